package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/harumi-id/backend-parfum/internal/events"
)

type memEndpointStore struct {
	endpoints map[string]Endpoint
	logs      []DeliveryRecord
}

func (m *memEndpointStore) Get(_ context.Context, _ string, id string) (Endpoint, error) {
	ep, ok := m.endpoints[id]
	if !ok {
		return Endpoint{}, ErrNotFound
	}
	return ep, nil
}

func (m *memEndpointStore) LogDelivery(_ context.Context, rec DeliveryRecord) error {
	m.logs = append(m.logs, rec)
	return nil
}

func deliveryTask(t *testing.T, endpointID string, event events.Event) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(deliverPayload{EndpointID: endpointID, Event: event})
	require.NoError(t, err)
	return asynq.NewTask(TaskDeliver, payload)
}

func TestDeliverSignsPayload(t *testing.T) {
	var gotBody []byte
	var gotSig, gotTS string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get("X-Webhook-Signature")
		gotTS = r.Header.Get("X-Webhook-Timestamp")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	store := &memEndpointStore{endpoints: map[string]Endpoint{
		"ep-1": {ID: "ep-1", URL: server.URL, Secret: "whsec_test", IsActive: true},
	}}
	deliverer := Deliverer{Store: store, Log: zerolog.Nop()}
	event := events.Event{
		ID: "ev-1", OrgID: "org-1", Topic: events.TopicTransactionSettled,
		AggregateID: "tx-1", Payload: json.RawMessage(`{"total":88800}`),
		OccurredAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	err := deliverer.ProcessTask(context.Background(), deliveryTask(t, "ep-1", event))
	require.NoError(t, err)
	require.True(t, VerifySignature("whsec_test", gotTS, gotBody, gotSig))
	require.Contains(t, string(gotBody), `"transaction.settled"`)
	require.Len(t, store.logs, 1)
	require.Equal(t, "delivered", store.logs[0].Status)
}

func TestDeliverRetriesOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := &memEndpointStore{endpoints: map[string]Endpoint{
		"ep-1": {ID: "ep-1", URL: server.URL, Secret: "s", IsActive: true},
	}}
	deliverer := Deliverer{Store: store, Log: zerolog.Nop()}

	err := deliverer.ProcessTask(context.Background(),
		deliveryTask(t, "ep-1", events.Event{ID: "ev-1", OrgID: "org-1", Topic: events.TopicTransactionVoided}))
	require.Error(t, err, "non-2xx must surface an error so the task is retried")
	require.Len(t, store.logs, 1)
	require.Equal(t, "failed", store.logs[0].Status)
}

func TestDeliverSkipsMissingEndpoint(t *testing.T) {
	deliverer := Deliverer{Store: &memEndpointStore{endpoints: map[string]Endpoint{}}, Log: zerolog.Nop()}
	err := deliverer.ProcessTask(context.Background(),
		deliveryTask(t, "gone", events.Event{ID: "ev-1", OrgID: "org-1"}))
	require.NoError(t, err, "deleted endpoints drop the delivery instead of retrying forever")
}

func TestVerifySignatureRejectsTamper(t *testing.T) {
	body := []byte(`{"total":88800}`)
	sig := Sign("secret", "1700000000", body)
	require.True(t, VerifySignature("secret", "1700000000", body, sig))
	require.False(t, VerifySignature("secret", "1700000000", []byte(`{"total":1}`), sig))
	require.False(t, VerifySignature("other", "1700000000", body, sig))
}
