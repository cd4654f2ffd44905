package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/harumi-id/backend-parfum/internal/obs"
)

type endpointGetter interface {
	Get(ctx context.Context, orgID, id string) (Endpoint, error)
	LogDelivery(ctx context.Context, rec DeliveryRecord) error
}

// Deliverer posts signed webhook payloads. It runs on the worker as the
// asynq handler for TaskDeliver.
type Deliverer struct {
	Store  endpointGetter
	Client *http.Client
	Log    zerolog.Logger
	Now    func() time.Time
}

func (d Deliverer) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deliverer) client() *http.Client {
	if d.Client != nil {
		return d.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// ProcessTask implements asynq.Handler. Non-2xx responses return an error so
// asynq retries with backoff.
func (d Deliverer) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload deliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode delivery payload: %w", err)
	}
	endpoint, err := d.Store.Get(ctx, payload.Event.OrgID, payload.EndpointID)
	if err != nil {
		// endpoint deleted since scheduling: drop the delivery
		d.Log.Warn().Str("endpoint_id", payload.EndpointID).Err(err).Msg("webhook endpoint gone, skipping")
		return nil
	}
	if !endpoint.IsActive {
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"id":          payload.Event.ID,
		"topic":       payload.Event.Topic,
		"aggregateId": payload.Event.AggregateID,
		"occurredAt":  payload.Event.OccurredAt,
		"payload":     payload.Event.Payload,
	})
	if err != nil {
		return err
	}
	timestamp := strconv.FormatInt(d.now().Unix(), 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Timestamp", timestamp)
	req.Header.Set("X-Webhook-Signature", Sign(endpoint.Secret, timestamp, body))

	resp, err := d.client().Do(req)
	if err != nil {
		obs.IncWebhookDelivery("network_error")
		_ = d.Store.LogDelivery(ctx, DeliveryRecord{
			EndpointID: endpoint.ID, EventID: payload.Event.ID,
			Status: "failed", Error: err.Error(),
		})
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		obs.IncWebhookDelivery("rejected")
		_ = d.Store.LogDelivery(ctx, DeliveryRecord{
			EndpointID: endpoint.ID, EventID: payload.Event.ID,
			Status: "failed", HTTPStatus: resp.StatusCode,
		})
		return fmt.Errorf("webhook %s responded %d", endpoint.URL, resp.StatusCode)
	}
	obs.IncWebhookDelivery("delivered")
	return d.Store.LogDelivery(ctx, DeliveryRecord{
		EndpointID: endpoint.ID, EventID: payload.Event.ID,
		Status: "delivered", HTTPStatus: resp.StatusCode,
	})
}

// Sign computes the hex HMAC-SHA256 signature over "timestamp.body".
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature in constant time. Receivers
// should also reject stale timestamps.
func VerifySignature(secret, timestamp string, body []byte, signature string) bool {
	expected := Sign(secret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
