package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"

	"github.com/harumi-id/backend-parfum/internal/events"
)

// TaskDeliver is the asynq task type for webhook deliveries.
const TaskDeliver = "webhook:deliver"

type deliverPayload struct {
	EndpointID string       `json:"endpointId"`
	Event      events.Event `json:"event"`
}

type endpointLister interface {
	ListActiveForTopic(ctx context.Context, orgID, topic string) ([]Endpoint, error)
}

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher fans emitted events out to subscribed endpoints by enqueueing
// one delivery task per endpoint. It implements events.DeliveryScheduler.
type Dispatcher struct {
	Store       endpointLister
	Client      taskEnqueuer
	MaxRetry    int
	TaskTimeout time.Duration
}

// Schedule enqueues deliveries for active endpoints subscribed to the
// event's topic.
func (d Dispatcher) Schedule(ctx context.Context, event events.Event) error {
	if d.Store == nil || d.Client == nil {
		return nil
	}
	endpoints, err := d.Store.ListActiveForTopic(ctx, event.OrgID, event.Topic)
	if err != nil {
		return err
	}
	maxRetry := d.MaxRetry
	if maxRetry <= 0 {
		maxRetry = 6
	}
	timeout := d.TaskTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	for _, ep := range endpoints {
		payload, err := json.Marshal(deliverPayload{EndpointID: ep.ID, Event: event})
		if err != nil {
			return err
		}
		task := asynq.NewTask(TaskDeliver, payload,
			asynq.MaxRetry(maxRetry),
			asynq.Timeout(timeout),
			asynq.TaskID(ep.ID+":"+event.ID),
		)
		if _, err := d.Client.EnqueueContext(ctx, task); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
			return err
		}
	}
	return nil
}
