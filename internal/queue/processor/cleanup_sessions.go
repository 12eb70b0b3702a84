package processor

import (
	"context"
	"fmt"

	"github.com/wealthplan/backend/internal/service"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type cleanupSessionsProcessor struct {
	sessions service.Sessions
	logger   *zap.Logger
}

func NewCleanupSessionsProcessor(sessions service.Sessions, logger *zap.Logger) *cleanupSessionsProcessor {
	return &cleanupSessionsProcessor{
		sessions: sessions,
		logger:   logger,
	}
}

func (p *cleanupSessionsProcessor) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	purged, err := p.sessions.CleanupExpired(ctx)
	if err != nil {
		return fmt.Errorf("cleanup expired sessions failed: %w", err)
	}

	p.logger.Info("expired sessions purged", zap.Int64("count", purged))

	return nil
}
