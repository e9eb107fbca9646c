package main

import (
	"bufio"
	"chat-relay/client"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL  string        `env:"CHAT_SERVER_URL,default=ws://localhost:8080/ws"`
	Room       string        `env:"CHAT_ROOM"`
	Name       string        `env:"CHAT_NAME"`
	MaxRetries int           `env:"CHAT_MAX_RETRIES,default=3"`
	RetryDelay time.Duration `env:"CHAT_RETRY_DELAY,default=1s"`
	LogLevel   string        `env:"LOG_LEVEL,default=warn"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Name and room can come from the environment or the prompt.
	reader := bufio.NewReader(os.Stdin)
	name := config.Name
	for name == "" {
		fmt.Print("Enter your name: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return exitRuntime, err
		}
		name = strings.TrimSpace(line)
	}
	room := config.Room
	for room == "" {
		fmt.Print("Enter room name: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return exitRuntime, err
		}
		room = strings.TrimSpace(line)
	}

	// 3. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Connect with bounded backoff and run the chat loop.
	c := client.New(log, config.ServerURL, room, name, config.MaxRetries, config.RetryDelay)
	if err := c.Connect(ctx); err != nil {
		return exitRuntime, err
	}
	defer func() {
		_ = c.Close()
		fmt.Println("Goodbye!")
	}()

	fmt.Println("Welcome to the chat room!")
	fmt.Println("Type 'exit' to quit, 'help' for commands")
	fmt.Println("----------------------------------------")

	if err := c.Run(ctx, reader, os.Stdout); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}
