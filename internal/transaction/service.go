package transaction

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/harumi-id/backend-parfum/internal/common"
	"github.com/harumi-id/backend-parfum/internal/events"
	"github.com/harumi-id/backend-parfum/internal/obs"
	"github.com/harumi-id/backend-parfum/internal/tenant"
)

type store interface {
	List(ctx context.Context, orgID string, p ListParams) ([]Transaction, int64, error)
	Get(ctx context.Context, orgID, id string) (Transaction, error)
	ListItems(ctx context.Context, transactionID string) ([]Item, error)
	Void(ctx context.Context, orgID, id, reason string, at time.Time) (Transaction, error)
	UpdateStatus(ctx context.Context, orgID, id, status string) (Transaction, error)
}

type stockRestorer interface {
	RestoreStock(ctx context.Context, orgID, transactionID string) error
}

// Service reads and voids settled transactions.
type Service struct {
	Store store
	// Restorer returns voided product quantities to stock; nil skips
	// restock.
	Restorer stockRestorer
	Events   *events.Bus
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Detail bundles a transaction with its lines.
type Detail struct {
	Transaction Transaction `json:"transaction"`
	Items       []Item      `json:"items"`
}

// List returns a filtered transaction page.
func (s *Service) List(ctx context.Context, p ListParams) ([]Transaction, int64, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	list, total, err := s.Store.List(ctx, tenant.From(ctx), p)
	if err != nil {
		return nil, 0, err
	}
	if list == nil {
		list = []Transaction{}
	}
	return list, total, nil
}

// Get returns one transaction with its items.
func (s *Service) Get(ctx context.Context, id string) (Detail, error) {
	t, err := s.Store.Get(ctx, tenant.From(ctx), id)
	if errors.Is(err, ErrNotFound) {
		return Detail{}, common.NotFound("transaction not found", err)
	}
	if err != nil {
		return Detail{}, err
	}
	items, err := s.Store.ListItems(ctx, t.ID)
	if err != nil {
		return Detail{}, err
	}
	if items == nil {
		items = []Item{}
	}
	return Detail{Transaction: t, Items: items}, nil
}

// Void cancels a settled transaction, restores product stock, and emits a
// domain event.
func (s *Service) Void(ctx context.Context, id, reason string) (Transaction, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Transaction{}, common.BadRequest("reason", "void reason required", nil)
	}
	org := tenant.From(ctx)
	t, err := s.Store.Void(ctx, org, id, reason, s.now())
	switch {
	case errors.Is(err, ErrNotFound):
		return Transaction{}, common.NotFound("transaction not found", err)
	case errors.Is(err, ErrAlreadyVoided):
		return Transaction{}, common.NewAppError("ALREADY_VOIDED", "transaction was already voided", http.StatusConflict, err)
	case err != nil:
		return Transaction{}, err
	}
	if s.Restorer != nil {
		if err := s.Restorer.RestoreStock(ctx, org, t.ID); err != nil {
			return Transaction{}, err
		}
	}
	outlet := ""
	if t.OutletID != nil {
		outlet = *t.OutletID
	}
	obs.ObserveTransaction(outlet, "voided", t.Total)
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, org, events.TopicTransactionVoided, t.ID, map[string]any{
			"transactionId": t.ID,
			"code":          t.Code,
			"total":         t.Total,
			"reason":        reason,
		})
	}
	return t, nil
}

// PatchStatus lets administrators correct a transaction status. Voiding must
// go through Void so stock is restored.
func (s *Service) PatchStatus(ctx context.Context, id, status string) (Transaction, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case "settled", "refunded":
	case "voided":
		return Transaction{}, common.BadRequest("status", "use the void endpoint to void a transaction", nil)
	default:
		return Transaction{}, common.BadRequest("status", "status must be settled or refunded", nil)
	}
	t, err := s.Store.UpdateStatus(ctx, tenant.From(ctx), id, status)
	if errors.Is(err, ErrNotFound) {
		return Transaction{}, common.NotFound("transaction not found", err)
	}
	return t, err
}
