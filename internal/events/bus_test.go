package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type memEventStore struct {
	inserted []Event
	failNext bool
}

func (m *memEventStore) InsertEvent(_ context.Context, orgID, topic, aggregateID string, payload []byte) (Event, error) {
	if m.failNext {
		return Event{}, errors.New("insert failed")
	}
	ev := Event{ID: "ev-1", OrgID: orgID, Topic: topic, AggregateID: aggregateID, Payload: payload, OccurredAt: time.Now()}
	m.inserted = append(m.inserted, ev)
	return ev, nil
}

type recordingScheduler struct {
	events []Event
	err    error
}

func (r *recordingScheduler) Schedule(_ context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return r.err
}

func TestEmitPersistsAndSchedules(t *testing.T) {
	store := &memEventStore{}
	sched := &recordingScheduler{}
	bus := &Bus{Store: store, Scheduler: sched}

	ev, err := bus.Emit(context.Background(), "org-1", TopicTransactionSettled, "tx-1", map[string]any{"total": 88800})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("inserted = %d, want 1", len(store.inserted))
	}
	if len(sched.events) != 1 || sched.events[0].ID != ev.ID {
		t.Fatalf("scheduler did not receive the event")
	}
	var payload map[string]any
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		t.Fatalf("payload not json: %v", err)
	}
}

func TestEmitRejectsEmptyTopic(t *testing.T) {
	bus := &Bus{Store: &memEventStore{}}
	if _, err := bus.Emit(context.Background(), "org-1", "  ", "agg", nil); err == nil {
		t.Fatal("expected error for empty topic")
	}
}

func TestEmitSchedulerFailureDoesNotDropEvent(t *testing.T) {
	store := &memEventStore{}
	sched := &recordingScheduler{err: errors.New("redis down")}
	bus := &Bus{Store: store, Scheduler: sched}

	_, err := bus.Emit(context.Background(), "org-1", TopicTransactionVoided, "tx-2", nil)
	if err == nil {
		t.Fatal("expected joined scheduler error")
	}
	if len(store.inserted) != 1 {
		t.Fatalf("event should persist despite scheduler failure")
	}
}

func TestEmitRejectsInvalidJSONString(t *testing.T) {
	bus := &Bus{Store: &memEventStore{}}
	if _, err := bus.Emit(context.Background(), "org-1", TopicProductLowStock, "p-1", "{not json"); err == nil {
		t.Fatal("expected error for invalid json payload")
	}
}
