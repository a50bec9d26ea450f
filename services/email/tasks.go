package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"senadirectory/models"
	"senadirectory/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeEmailSend is the asynq task type for queued sends.
const TypeEmailSend = "email:send"

// Sender is the part of Store used by queued sends.
type Sender interface {
	SimulateSend(ctx context.Context, input models.EmailInput) (models.StoredEmailRecord, error)
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewSendTask wraps input in an email:send task.
func NewSendTask(input models.EmailInput) (*asynq.Task, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("email: encode task payload: %w", err)
	}
	return asynq.NewTask(TypeEmailSend, payload, asynq.MaxRetry(5)), nil
}

// Enqueue schedules input for a background send and returns the task id.
func Enqueue(ctx context.Context, q Enqueuer, input models.EmailInput) (string, error) {
	task, err := NewSendTask(input)
	if err != nil {
		return "", err
	}
	info, err := q.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("email: enqueue failed: %w", err)
	}
	return info.ID, nil
}

// HandleSendTask processes email:send tasks. Transient failures are returned
// so asynq retries them; undecodable payloads are not retried.
func HandleSendTask(sender Sender, logger *zap.Logger) asynq.HandlerFunc {
	logger = utils.OrNop(logger)
	return func(ctx context.Context, task *asynq.Task) error {
		var input models.EmailInput
		if err := json.Unmarshal(task.Payload(), &input); err != nil {
			logger.Error("email: invalid task payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		record, err := sender.SimulateSend(ctx, input)
		if err != nil {
			if errors.Is(err, ErrPersistFailed) {
				logger.Error("email: queued send could not be recorded", zap.String("to", input.To), zap.Error(err))
			}
			return err
		}
		logger.Info("email: queued send delivered", zap.String("id", record.ID), zap.String("to", record.To))
		return nil
	}
}
