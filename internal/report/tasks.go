package report

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TaskRollup is the asynq task type for the nightly sales rollup.
const TaskRollup = "report:rollup"

type rollupPayload struct {
	Day string `json:"day,omitempty"`
}

// NewRollupTask builds the rollup task. A zero day defers the choice to the
// worker, which rolls up the previous day at processing time; the scheduler
// re-enqueues the same payload every night, so the day must not be baked in.
func NewRollupTask(day time.Time) (*asynq.Task, error) {
	var p rollupPayload
	if !day.IsZero() {
		p.Day = day.Format("2006-01-02")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRollup, payload, asynq.MaxRetry(5), asynq.Timeout(5*time.Minute)), nil
}

// RollupHandler processes rollup tasks on the worker.
type RollupHandler struct {
	Service *Service
	Log     zerolog.Logger
	Now     func() time.Time
}

func (h RollupHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// ProcessTask implements asynq.Handler. An empty payload day means the
// previous day relative to processing time.
func (h RollupHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload rollupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}
	day := h.now().AddDate(0, 0, -1)
	if payload.Day != "" {
		parsed, err := time.Parse("2006-01-02", payload.Day)
		if err != nil {
			return err
		}
		day = parsed
	}
	if err := h.Service.RollupAll(ctx, day); err != nil {
		h.Log.Error().Err(err).Str("day", day.Format("2006-01-02")).Msg("sales rollup failed")
		return err
	}
	h.Log.Info().Str("day", day.Format("2006-01-02")).Msg("sales rollup complete")
	return nil
}
