package main

import (
	"chat-relay/contract"
	"chat-relay/history"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/projection"
	"chat-relay/registry"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/search"
	"chat-relay/sink"
	"chat-relay/transport/ws"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting. Preferred over calling os.Exit or panic
// directly: defers (like database cleanup) execute before the program
// exits, and the initialization logic stays decoupled from the entry
// point.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB) & history
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	store := history.NewStore(history.NewBadgerBackend(db), log)
	if err := store.LoadAll(); err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	log.Info("History loaded", "rooms", len(store.Rooms()))

	// 3. Optional moderation and search index
	moderator, err := buildModerator(config, log)
	if err != nil {
		return fmt.Errorf("building moderator: %w", err)
	}

	var index *search.Index
	if config.BlugeFilepath != "" {
		index, err = search.Open(config.BlugeFilepath, log)
		if err != nil {
			return fmt.Errorf("opening search index: %w", err)
		}
		defer func() {
			log.Info("Closing search index...")
			_ = index.Close()
		}()
	}

	// 4. Core composition
	stats := observability.NewStats()
	reg := registry.NewRegistry(store)
	core := runtime.NewCore(log, reg, store, moderator, index, stats, config.BufferSize)

	permanentSinks := []contract.EventSink{projection.NewTimeline()}
	if index != nil {
		permanentSinks = append(permanentSinks, sink.NewIndexSink(index, log))
	}

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewEventFanout(log, core.Events(), reg, config.SinkTimeout, permanentSinks...))
	sup.Add(workers.NewHeartbeatWorker(log, stats, config.HeartbeatInterval))

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sup.Run(ctx)

	// 6. Websocket server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:    address,
		Handler: ws.NewServer(log, core, config.ConnectionBufferSize).Handler(),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown error", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

// buildModerator wires censored-word masking when CENSORED_WORDS is set.
func buildModerator(config Config, log *slog.Logger) (*moderation.Moderator, error) {
	if config.CensoredWords == "" {
		return nil, nil
	}

	replacement := []rune(config.CensoredChar)
	if len(replacement) != 1 {
		return nil, fmt.Errorf("MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q", config.CensoredChar)
	}

	var words []string
	for _, w := range strings.Split(config.CensoredWords, ",") {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	log.Info(fmt.Sprintf("%d censored words loaded", len(words)))

	moderator, err := moderation.NewModerator(words, replacement[0], log)
	if err != nil {
		return nil, err
	}
	return &moderator, nil
}
