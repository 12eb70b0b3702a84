package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wealthplan/backend/internal/queue/task"
	"github.com/wealthplan/backend/internal/worker"

	"github.com/hibiken/asynq"
)

type sendLoginAlertProcessor struct {
	workers *worker.Workers
}

func NewSendLoginAlertProcessor(workers *worker.Workers) *sendLoginAlertProcessor {
	return &sendLoginAlertProcessor{
		workers: workers,
	}
}

func (p *sendLoginAlertProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var data task.SendLoginAlert
	err := json.Unmarshal(t.Payload(), &data)
	if err != nil {
		return fmt.Errorf("process login alert task json unmarshal failed: %w", err)
	}

	if err = p.workers.EmailSender.SendLoginAlertEmail(ctx, data.Email, data.DeviceInfo, data.IP, data.SignedInAt); err != nil {
		return fmt.Errorf("send login alert email failed: %w", err)
	}

	return nil
}
