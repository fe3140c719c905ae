package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"livechat-engine/handler"
	"livechat-engine/internal/config"
	"livechat-engine/internal/conversation"
	"livechat-engine/internal/flagstore"
	"livechat-engine/internal/integrations/paramstore"
	"livechat-engine/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- AWS SDK config ----
	var awsCfg aws.Config
	if cfg.NeedsAWS() {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			logger.Error("failed to load AWS config", "err", err)
			os.Exit(1)
		}
	}

	// ---- Flag stores ----
	local, closeLocal, err := newLocalStore(cfg, awsCfg)
	if err != nil {
		logger.Error("failed to create local flag store", "backend", cfg.FlagBackend, "err", err)
		os.Exit(1)
	}
	defer closeLocal()

	session, closeSession, err := newSessionStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to create session flag store", "err", err)
		os.Exit(1)
	}
	defer closeSession()

	// ---- Transport ----
	token, err := socketToken(ctx, cfg, awsCfg)
	if err != nil {
		logger.Error("failed to resolve socket token", "err", err)
		os.Exit(1)
	}
	sock, err := transport.Dial(ctx, cfg.SocketURL, token, logger)
	if err != nil {
		logger.Error("failed to connect to chat server", "url", cfg.SocketURL, "err", err)
		os.Exit(1)
	}
	defer sock.Close()

	// ---- Engine ----
	flags, err := conversation.LoadFlags(ctx, local, session)
	if err != nil {
		logger.Warn("failed to load persisted flags, starting from defaults", "err", err)
	}
	engine, err := conversation.NewEngine(sock, local, session,
		conversation.Config{StaleAfter: cfg.StaleAfter},
		conversation.InitialState(flags),
		conversation.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create engine", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(engine, logger)
	if err != nil {
		logger.Error("failed to create handler", "err", err)
		os.Exit(1)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() { _ = engine.Run(ctx) }()
	go engine.RunPruner(ctx, cfg.PruneInterval)
	go func() {
		if err := sock.Listen(ctx, engine); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("transport stopped", "err", err)
		}
		stop()
	}()
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "err", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func newLocalStore(cfg *config.Config, awsCfg aws.Config) (conversation.FlagStore, func(), error) {
	switch cfg.FlagBackend {
	case config.FlagBackendDynamoDB:
		s, err := flagstore.NewDynamoStore(awsdynamodb.NewFromConfig(awsCfg), cfg.FlagTable)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case config.FlagBackendSQLite:
		s, err := flagstore.NewSQLiteStore(cfg.FlagDBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return flagstore.NewMemoryStore(), func() {}, nil
	}
}

// newSessionStore uses Redis when configured; otherwise session flags live
// only as long as the process.
func newSessionStore(ctx context.Context, cfg *config.Config) (conversation.FlagStore, func(), error) {
	if cfg.SessionRedisURL == "" {
		return flagstore.NewMemoryStore(), func() {}, nil
	}
	s, err := flagstore.NewRedisStore(ctx, cfg.SessionRedisURL, cfg.SessionTTL)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { _ = s.Close() }, nil
}

func socketToken(ctx context.Context, cfg *config.Config, awsCfg aws.Config) (string, error) {
	if cfg.SocketToken != "" || cfg.SocketTokenParam == "" {
		return cfg.SocketToken, nil
	}
	src, err := paramstore.NewTokenSource(awsssm.NewFromConfig(awsCfg), cfg.SocketTokenParam)
	if err != nil {
		return "", err
	}
	return src.Token(ctx)
}
