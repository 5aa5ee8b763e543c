package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	QueueDefault = "default"

	// TaskNotificationsPrune removes read notifications past the retention period.
	TaskNotificationsPrune = "notifications:prune"
)

type PrunePayload struct {
	RequestedAt time.Time `json:"requested_at"`
	Source      string    `json:"source"`
}

func NewPruneTask(source string) (*asynq.Task, error) {
	data, err := json.Marshal(PrunePayload{RequestedAt: time.Now().UTC(), Source: source})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationsPrune, data, asynq.MaxRetry(3), asynq.Timeout(5*time.Minute)), nil
}
