package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivankudzin/tgapp/guardian/internal/config"
	s3infra "github.com/ivankudzin/tgapp/guardian/internal/infra/s3"
	"github.com/ivankudzin/tgapp/guardian/internal/infra/telegram"
	"github.com/ivankudzin/tgapp/guardian/internal/jobs/retention"
	pgrepo "github.com/ivankudzin/tgapp/guardian/internal/repo/postgres"
	redrepo "github.com/ivankudzin/tgapp/guardian/internal/repo/redis"
	"github.com/ivankudzin/tgapp/guardian/internal/services/access"
	"github.com/ivankudzin/tgapp/guardian/internal/services/audit"
	"github.com/ivankudzin/tgapp/guardian/internal/services/hitrun"
	"github.com/ivankudzin/tgapp/guardian/internal/services/ledger"
	"github.com/ivankudzin/tgapp/guardian/internal/services/panel"
	"github.com/ivankudzin/tgapp/guardian/internal/services/settings"
	"github.com/ivankudzin/tgapp/guardian/internal/transport/http/handlers"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg       config.Config
	logger    *zap.Logger
	postgres  *pgxpool.Pool
	redis     *goredis.Client
	bot       *telegram.Client
	retention *retention.Job
	server    *http.Server
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for guardian: %w", err)
	}
	if err := pgrepo.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure postgres schema: %w", err)
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping failed, join tracking degraded", zap.Error(err))
	}

	spacesRepo := pgrepo.NewSpacesRepo(pool)
	flagsRepo := pgrepo.NewFlagsRepo(pool)
	auditRepo := pgrepo.NewAuditRepo(pool)
	joinRepo := redrepo.NewJoinRepo(redisClient, cfg.HitRun.JoinRecordTTL)
	pendingRepo := redrepo.NewPendingRepo(redisClient, cfg.Panel.PendingTTL)

	auditService := audit.NewService(auditRepo, logger)
	settingsService := settings.NewService(spacesRepo, auditService, logger)
	ledgerService := ledger.NewService(joinRepo, flagsRepo, logger)

	router := NewRouter(nil, nil, nil, nil, logger)
	bot, err := telegram.NewClient(cfg.Bot.Token, cfg.Bot.PollTimeoutSeconds, cfg.Bot.Workers, logger, router.Route)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init telegram client: %w", err)
	}

	accessService := access.NewService(cfg.Bot.OwnerTGID, bot, settingsService, logger)
	detector := hitrun.NewDetector(settingsService, ledgerService, bot, hitrun.Config{
		Threshold: cfg.HitRun.Threshold,
		SelfID:    bot.Self().ID,
	}, logger)
	controller := panel.NewController(settingsService, accessService, pendingRepo, bot, auditService, logger)

	router.bot = bot
	router.members = detector
	router.panel = controller
	router.admins = accessService

	retentionJob := retention.NewJob(auditRepo, cfg.Audit.Retention, logger)
	if cfg.S3Enabled() {
		if archive, err := newAuditArchive(ctx, cfg, logger); err != nil {
			logger.Warn("s3 init failed, audit entries will be deleted without archive", zap.Error(err))
		} else {
			retentionJob.AttachArchiver(archive)
		}
	}

	var server *http.Server
	if cfg.HTTP.Addr != "" {
		server = &http.Server{
			Addr: cfg.HTTP.Addr,
			Handler: NewOpsRouter(OpsDependencies{
				Checks: map[string]handlers.Check{
					"postgres": pool.Ping,
					"redis": func(ctx context.Context) error {
						return redisClient.Ping(ctx).Err()
					},
				},
				Stats:  settingsService,
				Logger: logger,
			}),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		}
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		postgres:  pool,
		redis:     redisClient,
		bot:       bot,
		retention: retentionJob,
		server:    server,
	}, nil
}

func newAuditArchive(ctx context.Context, cfg config.Config, logger *zap.Logger) (*s3infra.AuditArchive, error) {
	archive, err := s3infra.NewAuditArchiveFromConfig(cfg.S3, cfg.Audit.ArchivePrefix)
	if err != nil {
		return nil, err
	}
	if err := archive.EnsureBucket(ctx); err != nil {
		logger.Warn("audit archive bucket check failed, retrying on next retention run",
			zap.String("bucket", cfg.S3.Bucket),
			zap.Error(err),
		)
	}
	return archive, nil
}

// Run blocks until ctx is done or a component fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("guardian started",
		zap.String("env", a.cfg.Env),
		zap.String("bot", a.bot.Self().UserName),
		zap.Duration("hitrun_threshold", a.cfg.HitRun.Threshold),
	)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.bot.Start(ctx)
	})
	group.Go(func() error {
		a.retention.Loop(ctx, a.cfg.Audit.CleanupInterval)
		return nil
	})

	if a.server != nil {
		group.Go(func() error {
			a.logger.Info("ops server started", zap.String("addr", a.server.Addr))
			err := a.server.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		group.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return a.server.Shutdown(shutdownCtx)
		})
	}

	err := group.Wait()
	a.logger.Info("guardian stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
}
