package app

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiregate/internal/config"
)

// syncBuffer is a bytes.Buffer safe for one writer and one reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.IRCAddr = "127.0.0.1:0"
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.DatabasePath = ":memory:"
	cfg.ServerName = "server"
	cfg.ConsoleSettleDelay = 0
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func startApp(t *testing.T, cfg config.Config, in io.Reader, out io.Writer) (*App, context.CancelFunc, <-chan error) {
	t.Helper()

	logger := zerolog.Nop()
	a, err := New(cfg, &logger, in, out)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case <-a.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("run failed early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("app did not become ready")
	}
	return a, cancel, done
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestRunServesLinesAndConsole(t *testing.T) {
	out := &syncBuffer{}
	a, cancel, done := startApp(t, testConfig(), strings.NewReader("/whoami\nnot a command\n"), out)

	conn, err := net.Dial("tcp", a.IRCAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := io.WriteString(conn, "USER sensei_42\r\nPING\r\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if line != ":server 000 :PONG\r\n" {
		t.Fatalf("unexpected reply %q", line)
	}
	if a.Gateway().Sessions().Len() != 1 {
		t.Fatalf("expected 1 session, got %d", a.Gateway().Sessions().Len())
	}

	want := "Account 0, channel terminal\nCommand whoami executed successfully!\n"
	deadline := time.Now().Add(5 * time.Second)
	for out.String() != want {
		if time.Now().After(deadline) {
			t.Fatalf("unexpected console output %q", out.String())
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	waitDone(t, done)

	if a.Gateway().Sessions().Len() != 0 {
		t.Fatalf("sessions should be removed on shutdown, got %d", a.Gateway().Sessions().Len())
	}
}

func TestRunWithoutOptionalComponents(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPAddr = ""
	cfg.DatabasePath = ""
	cfg.ConsoleEnabled = false

	a, cancel, done := startApp(t, cfg, nil, nil)
	if a.server != nil || a.console != nil || a.store != nil {
		t.Fatal("optional components should be disabled")
	}

	cancel()
	waitDone(t, done)
}

func TestRunFailsWhenAddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	cfg := testConfig()
	cfg.IRCAddr = ln.Addr().String()
	cfg.ConsoleEnabled = false

	logger := zerolog.Nop()
	a, err := New(cfg, &logger, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	errc := make(chan error, 1)
	go func() { errc <- a.Run(context.Background()) }()

	select {
	case err := <-errc:
		if err == nil {
			t.Fatal("expected bind error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not fail")
	}
}
