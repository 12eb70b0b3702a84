package task

import (
	"github.com/hibiken/asynq"
)

const (
	CleanupSessionsTaskName = "cleanupSessionsTask"
	MaintenanceQueueName    = "maintenanceQueue"
)

// NewCleanupSessionsTask builds the periodic sweep that purges expired
// session rows. No payload: the processor always sweeps up to "now".
func NewCleanupSessionsTask() *asynq.Task {
	return asynq.NewTask(
		CleanupSessionsTaskName,
		nil,
		asynq.MaxRetry(3),
		asynq.Queue(MaintenanceQueueName),
	)
}
