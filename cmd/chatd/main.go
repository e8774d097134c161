package main

import (
	"chat-vault/auth"
	"chat-vault/envelope"
	"chat-vault/infrastructure/grpc/chatvaultv1"
	"chat-vault/infrastructure/grpc/server"
	"chat-vault/internal"
	"chat-vault/keyring"
	"chat-vault/repositories"
	"chat-vault/runtime/workers"
	"chat-vault/services"
	"chat-vault/summary"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	grpc3 "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Exit codes to provide meaningful status to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatd terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a fatal error.
// Deferred cleanups run before main calls os.Exit.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	masterKey, err := keyring.ParseMasterKey(config.MasterKey)
	if err != nil {
		return exitConfig, err
	}
	tokens, err := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if config.DebugPort > 0 && logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available",
			"url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		database.StartDebugServer(db, config.DebugPort, endpoint, internal.InspectMapper)
	}

	// 3. Keys, storage & services
	keys, err := keyring.New(db, logger, masterKey)
	if err != nil {
		return exitConfig, err
	}
	defer keys.Close()

	cipher := envelope.NewCipher(keys, logger, envelope.AuditPolicy{Log: logger})
	messageRepository := repositories.NewMessageRepository(db, logger)
	conversationRepository := repositories.NewConversationRepository(db, logger)
	userRepository := repositories.NewUserRepository(db)
	summaryWriter := summary.NewWriter(conversationRepository, cipher, logger)
	messageService := services.NewMessageService(
		cipher,
		messageRepository,
		conversationRepository,
		userRepository,
		summaryWriter,
		logger,
		config.DecryptParallelism,
	)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)

	// Bound before any worker starts, so a busy port leaves nothing to stop.
	address := config.Address()
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	// 5. Background workers
	healthServer := health.NewServer()
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(
		workers.NewSummaryReconciler(conversationRepository, messageRepository, cipher, summaryWriter, config.ReconcileInterval, logger),
		workers.NewHealthReporter(logger, db, healthServer, config.HealthInterval),
	)
	supervised := make(chan struct{})
	go func() {
		defer close(supervised)
		sup.Run(ctx)
	}()

	// 6. gRPC Server Setup
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc3.UnaryLoggingInterceptor(logger),
			tokens.AuthInterceptor(healthpb.Health_Check_FullMethodName),
		))
	chatvaultv1.RegisterMessageServiceServer(s, server.NewMessageServer(logger, messageService))
	healthpb.RegisterHealthServer(s, healthServer)

	go func() {
		logger.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		for serviceName := range s.GetServiceInfo() {
			logger.Debug("gRPC exposed services", "name", serviceName)
		}
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 8. Graceful Shutdown
	// In-flight sends finish before the workers and the store go away.
	logger.Info("Shutting down gracefully...")
	healthServer.Shutdown()
	s.GracefulStop()
	sup.Stop()
	<-supervised
	logger.Info("Program stopped cleanly")

	return code, runErr
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}
