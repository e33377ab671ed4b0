package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vovakirdan/wiregate/internal/auth"
	"github.com/vovakirdan/wiregate/internal/core"
)

func (e *testEnv) do(t *testing.T, method, path, token string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	e.ts.Config.Handler.ServeHTTP(resp, req)
	return resp
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()

	resp := e.do(t, http.MethodPost, "/api/login", "", []byte(`{"password":"`+testPassword+`"}`))
	if resp.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", resp.Code, resp.Body.String())
	}
	var out AuthResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal login: %v", err)
	}
	if out.Token == "" {
		t.Fatal("expected non-empty token")
	}
	return out.Token
}

func TestHealthEndpoint(t *testing.T) {
	env := startTestServer(t)

	resp, err := env.ts.Client().Get(env.ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected health response: %d %q", resp.StatusCode, body)
	}
}

func TestLogin(t *testing.T) {
	env := startTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "wrong password", body: `{"password":"nope"}`, want: http.StatusUnauthorized},
		{name: "missing password", body: `{}`, want: http.StatusBadRequest},
		{name: "bad json", body: `{`, want: http.StatusBadRequest},
		{name: "ok", body: `{"password":"` + testPassword + `"}`, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/login", "", []byte(tt.body))
			if resp.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := startTestServer(t)

	viewerToken, err := auth.GenerateToken(&auth.JWTConfig{
		Secret: []byte("test-secret"),
		Issuer: "test",
		TTL:    time.Minute,
	}, "someone", "viewer")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	for _, path := range []string{"/api/sessions", "/api/channels", "/api/commands"} {
		if resp := env.do(t, http.MethodGet, path, "", nil); resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s without token: expected 401, got %d", path, resp.Code)
		}
		if resp := env.do(t, http.MethodGet, path, "garbage", nil); resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s with bad token: expected 401, got %d", path, resp.Code)
		}
		if resp := env.do(t, http.MethodGet, path, viewerToken, nil); resp.Code != http.StatusForbidden {
			t.Fatalf("%s with viewer token: expected 403, got %d", path, resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.Header.Set("Authorization", "Token abc")
	resp := httptest.NewRecorder()
	env.ts.Config.Handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-bearer header, got %d", resp.Code)
	}
}

func TestInspectionEndpoints(t *testing.T) {
	env := startTestServer(t)
	token := env.login(t)

	var buf bytes.Buffer
	conn := core.NewConn("h1", core.NewLineSink(&buf, "server"), 0)
	for _, line := range []string{"USER sensei_42", "JOIN lobby"} {
		if err := env.gateway.HandleLine(context.Background(), conn, line); err != nil {
			t.Fatalf("HandleLine(%q): %v", line, err)
		}
	}

	resp := env.do(t, http.MethodGet, "/api/sessions", token, nil)
	var sessions []SessionResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("unmarshal sessions: %v", err)
	}
	if diff := cmp.Diff([]SessionResponse{{Handle: "h1", AccountID: 42, Channel: "lobby"}}, sessions); diff != "" {
		t.Fatalf("sessions mismatch (-want +got):\n%s", diff)
	}

	resp = env.do(t, http.MethodGet, "/api/channels", token, nil)
	var channels []ChannelResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &channels); err != nil {
		t.Fatalf("unmarshal channels: %v", err)
	}
	if diff := cmp.Diff([]ChannelResponse{{Name: "lobby", Members: []int64{42}}}, channels); diff != "" {
		t.Fatalf("channels mismatch (-want +got):\n%s", diff)
	}

	resp = env.do(t, http.MethodGet, "/api/commands", token, nil)
	var commands []CommandResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &commands); err != nil {
		t.Fatalf("unmarshal commands: %v", err)
	}
	var names []string
	for _, cmd := range commands {
		names = append(names, cmd.Name)
	}
	if diff := cmp.Diff([]string{"help", "history", "members", "whoami"}, names); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
}
