package asynqserver

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/wealthplan/backend/internal/cache"
	"github.com/wealthplan/backend/internal/config"
	"github.com/wealthplan/backend/internal/queue/processor"
	"github.com/wealthplan/backend/internal/queue/task"
	"github.com/wealthplan/backend/internal/service"
	"github.com/wealthplan/backend/internal/worker"

	"go.uber.org/zap"
)

func New(cfg config.Cache, services *service.Services, workers *worker.Workers, logger *zap.Logger) (*asynq.Server, *asynq.ServeMux) {
	mux, queues := getQueues(services, workers, logger)
	srv := asynq.NewServer(
		RedisOptions(cfg),
		asynq.Config{
			Concurrency: 10,
			LogLevel:    asynq.ErrorLevel,
			Queues:      queues,
		},
	)

	return srv, mux
}

// NewScheduler registers the recurring session cleanup sweep. It runs
// independently of request traffic; overlap with in-flight validations is
// fine because the sweep only deletes rows that are already expired.
func NewScheduler(cfg config.Cache, cleanupInterval time.Duration) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(RedisOptions(cfg), &asynq.SchedulerOpts{
		LogLevel: asynq.ErrorLevel,
	})

	spec := fmt.Sprintf("@every %s", cleanupInterval)
	if _, err := scheduler.Register(spec, task.NewCleanupSessionsTask()); err != nil {
		return nil, fmt.Errorf("register cleanup sessions task failed: %w", err)
	}

	return scheduler, nil
}

func RedisOptions(cfg config.Cache) asynq.RedisConnOpt {
	var opts asynq.RedisConnOpt
	if cfg.Type == cache.RedisTypeCluster {
		opts = asynq.RedisClusterClientOpt{Addrs: cfg.RedisCluster.Addresses, Password: cfg.RedisCluster.Password}
	} else {
		opts = asynq.RedisClientOpt{Addr: cfg.Redis.Address, Password: cfg.Redis.Password}
	}
	return opts
}

func getQueues(services *service.Services, workers *worker.Workers, logger *zap.Logger) (*asynq.ServeMux, map[string]int) {
	mux := asynq.NewServeMux()
	mux.Handle(task.CleanupSessionsTaskName, processor.NewCleanupSessionsProcessor(services.Sessions, logger))
	mux.Handle(task.SendLoginAlertTaskName, processor.NewSendLoginAlertProcessor(workers))
	queues := map[string]int{
		task.MaintenanceQueueName: 1,
		task.EmailQueueName:       1,
	}
	return mux, queues
}
