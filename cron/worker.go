// Package cron runs the background worker that processes queued email sends.
package cron

import (
	"context"
	"time"

	"senadirectory/config"
	"senadirectory/services/email"
	"senadirectory/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueueRedisOpt is the redis connection of the task queue.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewQueueClient returns a client for enqueueing tasks.
func NewQueueClient() *asynq.Client {
	return asynq.NewClient(QueueRedisOpt())
}

// NewMux routes task types to their handlers.
func NewMux(sender email.Sender, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(email.TypeEmailSend, email.HandleSendTask(sender, logger))
	return mux
}

// InitEmailWorker starts the asynq worker in the background and returns the
// server so the caller can shut it down.
func InitEmailWorker(ctx context.Context, sender email.Sender, logger *zap.Logger) *asynq.Server {
	logger = utils.OrNop(logger)
	srv := asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := NewMux(sender, logger)

	go monitorQueueConnection(ctx, logger)

	go func() {
		logger.Info("email worker starting")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Error("email worker failed to start",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("email worker giving up; queued sends will not be processed")
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempts*2) * time.Second):
			}
		}
	}()
	return srv
}

// monitorQueueConnection pings the queue's redis periodically until ctx is done.
func monitorQueueConnection(ctx context.Context, logger *zap.Logger) {
	opt := QueueRedisOpt()
	client := redis.NewClient(&redis.Options{Addr: opt.Addr, Password: opt.Password, DB: opt.DB})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("queue redis connection lost", zap.Error(err))
			}
		}
	}
}
