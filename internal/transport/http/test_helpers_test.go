package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiregate/internal/auth"
	"github.com/vovakirdan/wiregate/internal/command"
	"github.com/vovakirdan/wiregate/internal/command/builtin"
	"github.com/vovakirdan/wiregate/internal/config"
	"github.com/vovakirdan/wiregate/internal/core"
)

const testPassword = "hunter22"

type testEnv struct {
	ts       *httptest.Server
	gateway  *core.Gateway
	auth     *auth.Service
	commands *command.Registry
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T, jwtSecret string) *auth.Service {
	t.Helper()

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	jwtConfig := &auth.JWTConfig{
		Secret: []byte(jwtSecret),
		Issuer: "test",
		TTL:    time.Hour,
	}
	return auth.NewService(hash, jwtConfig)
}

func startTestServer(t *testing.T) *testEnv {
	t.Helper()

	disabledLogger := zerolog.Nop()

	var reg *command.Registry
	reg, err := command.NewRegistry(nil, &disabledLogger, builtin.Specs(func() []command.Spec { return reg.Specs() })...)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}

	gw := core.NewGateway(reg, nil, core.Options{ServerName: "server"}, &disabledLogger)
	authService := createTestAuthService(t, "test-secret")

	cfg := config.Default()
	cfg.ReadHeaderTimeout = time.Second

	server := NewServer(gw, authService, reg, cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, gateway: gw, auth: authService, commands: reg}
}
