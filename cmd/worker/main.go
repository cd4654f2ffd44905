package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/harumi-id/backend-parfum/internal/app"
	"github.com/harumi-id/backend-parfum/internal/config"
	"github.com/harumi-id/backend-parfum/internal/notify"
	"github.com/harumi-id/backend-parfum/internal/obs"
	"github.com/harumi-id/backend-parfum/internal/report"
)

func main() {
	cfg := config.MustLoad()

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := app.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisClient, err := app.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	asynqOpt, err := app.AsynqRedisOpt(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse asynq redis options")
	}

	reportSvc := &report.Service{Store: report.Store{DB: pool}, R: redisClient, TTL: cfg.ReportCacheTTL}
	rollup := report.RollupHandler{Service: reportSvc, Log: logger}

	deliverer := notify.Deliverer{
		Store:  notify.Store{DB: pool},
		Client: &http.Client{Timeout: cfg.WebhookRequestTimeout},
		Log:    logger,
	}

	mux := asynq.NewServeMux()
	mux.Handle(report.TaskRollup, rollup)
	mux.Handle(notify.TaskDeliver, deliverer)

	srv := asynq.NewServer(asynqOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Logger:      asynqLogger{logger},
	})

	// nightly rollup at 00:10 server time; the empty payload makes the
	// worker resolve "previous day" when each run fires
	scheduler := asynq.NewScheduler(asynqOpt, &asynq.SchedulerOpts{
		Logger: asynqLogger{logger},
	})
	task, err := report.NewRollupTask(time.Time{})
	if err != nil {
		logger.Fatal().Err(err).Msg("build rollup task")
	}
	if _, err := scheduler.Register("10 0 * * *", task); err != nil {
		logger.Fatal().Err(err).Msg("register rollup schedule")
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}

	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}

	<-ctx.Done()
	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

// asynqLogger adapts zerolog to asynq's Logger interface.
type asynqLogger struct {
	log zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Fatal().Msg(fmt.Sprint(args...)) }
