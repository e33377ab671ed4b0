package core

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/vovakirdan/wiregate/internal/proto"
)

// fakeDispatcher answers invocations from a table of handlers keyed by name.
type fakeDispatcher struct {
	mu       sync.Mutex
	handlers map[string]func(inv Invocation) error
	usage    map[string]string
	calls    []Invocation
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{
		handlers: make(map[string]func(inv Invocation) error),
		usage:    make(map[string]string),
	}
}

func (d *fakeDispatcher) register(name, usage string, fn func(inv Invocation) error) {
	d.handlers[name] = fn
	d.usage[name] = usage
}

func (d *fakeDispatcher) Dispatch(_ context.Context, inv Invocation) Outcome {
	d.mu.Lock()
	d.calls = append(d.calls, inv)
	fn, ok := d.handlers[inv.Name]
	d.mu.Unlock()

	if !ok {
		return Outcome{}
	}
	return Outcome{Found: true, Usage: d.usage[inv.Name], Err: fn(inv)}
}

func (d *fakeDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

// testConn is a connection whose output lands in a buffer.
type testConn struct {
	*Conn
	buf *bytes.Buffer
}

func newTestConn(handle string, limit int) *testConn {
	buf := &bytes.Buffer{}
	return &testConn{Conn: NewConn(handle, NewLineSink(buf, "server"), limit), buf: buf}
}

// lines returns and clears the lines written so far.
func (c *testConn) lines() []string {
	raw := strings.TrimSuffix(c.buf.String(), "\r\n")
	c.buf.Reset()
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "\r\n")
}

func newTestGateway(d Dispatcher) *Gateway {
	return NewGateway(d, nil, Options{ServerName: "server", CommandPrefix: "/"}, nil)
}

func mustHandle(t *testing.T, g *Gateway, c *testConn, line string) {
	t.Helper()
	if err := g.HandleLine(context.Background(), c.Conn, line); err != nil {
		t.Fatalf("HandleLine(%q): %v", line, err)
	}
}

// chatText extracts the Text field of an outbound PRIVMSG line.
func chatText(t *testing.T, line string) string {
	t.Helper()
	idx := strings.Index(line, " :{")
	if idx < 0 || !strings.Contains(line, " PRIVMSG ") {
		t.Fatalf("not a chat line: %q", line)
	}
	msg, err := proto.DecodeChatPayload(line[idx+1:])
	if err != nil {
		t.Fatalf("decode chat line %q: %v", line, err)
	}
	return msg.Text
}

var errBoom = errors.New("boom")
