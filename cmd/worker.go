package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/jobs"
	"github.com/frahmantamala/datascope/internal/notification"
	notificationPostgres "github.com/frahmantamala/datascope/internal/notification/postgres"
	"github.com/frahmantamala/datascope/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background job worker",
	Long:  `Process asynq tasks and schedule the periodic notification prune.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startWorker()
	},
}

var enqueuePruneCmd = &cobra.Command{
	Use:   "prune-now",
	Short: "Enqueue a notification prune immediately",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		if err := requireWorkerConfig(cfg); err != nil {
			return err
		}
		client := jobs.NewClient(redisClientOpt(cfg.Redis))
		defer client.Close()

		info, err := client.EnqueuePrune(cmd.Context(), "cli")
		if err != nil {
			return fmt.Errorf("enqueue prune: %w", err)
		}
		fmt.Printf("enqueued %s as %s\n", info.Type, info.ID)
		return nil
	},
}

func redisClientOpt(cfg internal.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

// requireWorkerConfig rejects setups where the worker has nothing to prune: the memory
// store lives inside the server process.
func requireWorkerConfig(cfg *internal.Config) error {
	if !cfg.Redis.Enabled {
		return errors.New("worker requires redis.enabled")
	}
	if cfg.Notifications.Store != "postgres" {
		return errors.New("worker requires notifications.store=postgres")
	}
	return nil
}

func startWorker() error {
	cfg := mustLoadConfig()
	log := logger.LoggerWrapper()
	if err := requireWorkerConfig(cfg); err != nil {
		return err
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	gdb, err := initGorm(db, cfg.IsProduction())
	if err != nil {
		return err
	}

	store := notificationPostgres.NewNotificationRepository(gdb)
	pruneJob := jobs.NewPruneJob(notification.NewService(store, cfg.Notifications.Retention, log), log)

	pruneTask, err := jobs.NewPruneTask("cron")
	if err != nil {
		return fmt.Errorf("build prune task: %w", err)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisClientOpt(cfg.Redis),
		Concurrency: cfg.Worker.Concurrency,
		Logger:      log,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskNotificationsPrune, Handler: pruneJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.Notifications.PruneCronSchedule, Task: pruneTask},
		},
	})
	if err != nil {
		return fmt.Errorf("init worker: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("worker running", "concurrency", cfg.Worker.Concurrency, "prune_cron", cfg.Notifications.PruneCronSchedule)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker run: %w", err)
	}
	log.Info("worker stopped")
	return nil
}

func init() {
	workerCmd.AddCommand(enqueuePruneCmd)
	rootCmd.AddCommand(workerCmd)
}
