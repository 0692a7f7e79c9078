package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"gopherai-pdfchat/internal/ai"
	"gopherai-pdfchat/internal/app"
	"gopherai-pdfchat/internal/config"
	"gopherai-pdfchat/internal/logging"
	"gopherai-pdfchat/internal/metrics"
	"gopherai-pdfchat/internal/pkg/pdfextract"
	redisClient "gopherai-pdfchat/internal/platform/redis"
	"gopherai-pdfchat/internal/session"
	"gopherai-pdfchat/internal/storage"
	"gopherai-pdfchat/internal/worker"
)

var ErrSweepNeedsSharedStore = errors.New("sweep requires a shared session backend")

type App struct {
	Config    *config.Config
	Logger    *zerolog.Logger
	Redis     *redis.Client
	Sessions  session.Store
	Files     *storage.LocalStore
	Documents *app.DocumentService
	Chat      *app.ChatService
	Sweeper   *worker.UploadSweeper

	StartedAt time.Time
}

// New wires every component from cfg. The sweeper is built but not started.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.New(cfg.Log)
	metrics.Register()

	policy, err := app.ParseOverwritePolicy(cfg.Documents.OverwritePolicy)
	if err != nil {
		return nil, err
	}

	var redisCli *redis.Client
	if cfg.Session.Backend == "redis" {
		redisCli, err = redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
	}

	sessions, err := session.New(cfg, redisCli)
	if err != nil {
		closeRedis(redisCli)
		return nil, fmt.Errorf("init session store failed: %w", err)
	}

	files, err := storage.NewLocalStore(cfg.Storage.UploadDir)
	if err != nil {
		closeRedis(redisCli)
		return nil, err
	}

	if cfg.LLM.APIKey == "" {
		logger.Warn().Msg("no LLM api key configured; chat replies will fall back to the apology text")
	}
	llm := ai.NewOpenAICompatibleClient(ai.ChatConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLMTimeout(),
		MaxRetries:  cfg.LLM.MaxRetries,
	})

	documents := app.NewDocumentService(files, pdfextract.NewExtractor(logger), policy, logger)
	chat := app.NewChatService(llm, logger)
	sweeper := worker.NewUploadSweeper(files, sessions, cfg.SweepInterval(), cfg.SweepGrace(), logger)

	logger.Info().
		Str("env", cfg.App.Env).
		Str("session_backend", cfg.Session.Backend).
		Str("upload_dir", files.Dir()).
		Str("model", llm.Model()).
		Str("api_key", logging.MaskSecret(cfg.LLM.APIKey)).
		Str("overwrite_policy", string(policy)).
		Msg("application wired")

	return &App{
		Config:    cfg,
		Logger:    logger,
		Redis:     redisCli,
		Sessions:  sessions,
		Files:     files,
		Documents: documents,
		Chat:      chat,
		Sweeper:   sweeper,
		StartedAt: time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Sweeper != nil {
		a.Sweeper.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	return closeErr
}

func closeRedis(client *redis.Client) {
	if client != nil {
		_ = client.Close()
	}
}

// SweepOnce runs a single sweep outside the serving process. Only a shared
// session backend can tell which files the serving process still owns.
func SweepOnce(ctx context.Context, cfg *config.Config) (int, error) {
	if cfg.Session.Backend != "redis" {
		return 0, fmt.Errorf("%w (backend %q)", ErrSweepNeedsSharedStore, cfg.Session.Backend)
	}

	app, err := New(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer app.Close()

	return app.Sweeper.SweepOnce(ctx)
}
