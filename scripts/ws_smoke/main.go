// Command ws_smoke logs in over the WebSocket line transport, joins a
// channel, runs one command and prints every line until the acknowledgement.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/wiregate/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("smoke failed: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/irc", "WebSocket address")
	account := flag.Int64("account", 1, "account id sent in USER")
	channel := flag.String("channel", "lobby", "channel to join")
	text := flag.String("text", "/whoami", "command text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	lines := []string{
		"NICK smoke",
		fmt.Sprintf("USER smoke_%d", *account),
		"JOIN " + *channel,
		fmt.Sprintf(`PRIVMSG %s :{"Text":%q}`, *channel, *text),
	}
	if err := conn.Write(ctx, websocket.MessageText, []byte(strings.Join(lines, "\r\n"))); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		line := strings.TrimRight(string(data), "\r\n")
		fmt.Println(line)

		idx := strings.Index(line, " :{")
		if idx < 0 {
			continue
		}
		msg, err := proto.DecodeChatPayload(line[idx+1:])
		if err != nil {
			return fmt.Errorf("decode %q: %w", line, err)
		}
		if strings.HasPrefix(msg.Text, "Command ") || strings.HasPrefix(msg.Text, "Invalid command ") {
			return nil
		}
	}
}
