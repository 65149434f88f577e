package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chathub/auth"
	"chathub/httpapi"
	"chathub/moderation"
	"chathub/observability"
	"chathub/repositories"
	"chathub/services"
	"chathub/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and manages the server lifecycle, so
// that deferred cleanups execute before the process exits and the main
// entry point stays testable.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	maskRune, err := maskRune(config.MaskCharacter)
	if err != nil {
		return err
	}

	// 2. Storage (BadgerDB + Bluge search index)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	index, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = index.Close()
	}()

	// 3. Repositories & Services
	categoryRepository := repositories.NewCategoryRepository(db)
	serverRepository := repositories.NewServerRepository(db, log)
	channelRepository := repositories.NewChannelRepository(db)
	messageRepository := repositories.NewMessageRepository(db, index, log, config.LimitMessages)
	attachmentRepository := repositories.NewAttachmentRepository(db)

	filter, err := moderation.NewContentFilter(config.BannedWords, maskRune)
	if err != nil {
		return fmt.Errorf("moderation filter: %w", err)
	}

	categoryService := services.NewCategoryService(categoryRepository)
	serverService := services.NewServerService(serverRepository, categoryRepository, log)
	channelService := services.NewChannelService(channelRepository)
	chatService := services.NewChatService(messageRepository, filter, log)
	attachmentService := services.NewAttachmentService(attachmentRepository, storage.NewDiskStore(config.AttachmentDir))

	// 4. HTTP server
	tokens := auth.NewTokens(config.AuthSecret, config.AuthTokenDuration)
	monitor := observability.NewMonitor(log)
	router := httpapi.NewRouter(log, tokens, categoryService, serverService, channelService, chatService, attachmentService, monitor)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	log.Info("Program stopped cleanly")
	return nil
}

func maskRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("MASK_CHARACTER must be a single character, got %q", str)
	}
	return r[0], nil
}
