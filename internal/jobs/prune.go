package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

// PruneJob handles TaskNotificationsPrune.
type PruneJob struct {
	pruner Pruner
	logger *slog.Logger
}

func NewPruneJob(pruner Pruner, logger *slog.Logger) *PruneJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PruneJob{pruner: pruner, logger: logger.With("job", TaskNotificationsPrune)}
}

func (j *PruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.pruner == nil {
		return errors.New("notification prune: handler not configured")
	}
	var payload PrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		j.logger.Warn("discarding malformed prune payload", "error", err)
		return asynq.SkipRetry
	}

	start := time.Now()
	removed, err := j.pruner.Prune(ctx)
	if err != nil {
		j.logger.Error("prune notifications", "error", err, "source", payload.Source)
		return err
	}
	j.logger.Info("pruned notifications",
		"removed", removed,
		"source", payload.Source,
		"duration", time.Since(start))
	return nil
}
