// Command chat is a terminal client for one chat session. It prints presence
// and AI events as they arrive and sends each stdin line as a chat message.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"

	"github.com/jurishub/chatclient/internal/transport"
	"github.com/jurishub/chatclient/internal/wire"
	"github.com/jurishub/chatclient/pkg/chat"
)

// config holds the client configuration, parsed from the environment.
type config struct {
	ServerURL    string `env:"SERVER_URL" envDefault:"ws://localhost:8080"`
	SessionID    string `env:"SESSION_ID,required"`
	UserID       string `env:"USER_ID"`
	Jurisdiction string `env:"JURISDICTION"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Failed to parse configuration: %v", err)
	}

	dialer := transport.NewDialer(cfg.ServerURL, cfg.UserID)

	callbacks := chat.Callbacks{
		OnUserJoined: func(userID string) {
			fmt.Printf("* %s joined\n", userID)
		},
		OnUserLeft: func(userID string) {
			fmt.Printf("* %s left\n", userID)
		},
		OnTyping: func(userID string, isTyping bool) {
			if isTyping {
				fmt.Printf("* %s is typing...\n", userID)
			}
		},
		OnAIResponse: func(content string, metadata map[string]any) {
			fmt.Printf("[assistant] %s\n", content)
		},
		OnError: func(msg string) {
			fmt.Fprintf(os.Stderr, "! %s\n", msg)
		},
		OnStateChange: func(old, new chat.State) {
			fmt.Printf("* connection: %s\n", new)
		},
		OnMessage: func(f *wire.Frame) {
			if f.Type == wire.TypeChatMessage && f.UserID != "" {
				fmt.Printf("[%s] %s\n", f.UserID, f.Content)
			}
		},
	}

	client := chat.New(dialer, callbacks, chat.DefaultConfig())
	defer client.Close()

	ctx := context.Background()
	client.SetSession(ctx, cfg.SessionID)

	if cfg.Jurisdiction != "" {
		client.UpdateJurisdiction(cfg.Jurisdiction, 1.0)
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		client.Close()
		os.Exit(0)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit":
			return
		case "/reconnect":
			client.Reconnect(ctx)
		case "/who":
			snap := client.Snapshot()
			fmt.Printf("* active: %s\n", strings.Join(snap.ActiveUsers, ", "))
		default:
			client.SendMessage(line, cfg.Jurisdiction)
		}
	}
}
