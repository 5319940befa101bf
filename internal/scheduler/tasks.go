package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskIdleSweep = "leads.idle_sweep"

// IdleSweepPayload pins the sweep to the enqueue time so delayed workers
// evaluate idleness against the intended clock.
type IdleSweepPayload struct {
	ScheduledAt time.Time `json:"scheduledAt"`
}

func NewIdleSweepTask(payload IdleSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdleSweep, data), nil
}

func ParseIdleSweepPayload(task *asynq.Task) (IdleSweepPayload, error) {
	var payload IdleSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return IdleSweepPayload{}, err
	}
	return payload, nil
}
