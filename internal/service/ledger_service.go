// Package service binds the session store, ledger engine, and reward client
// behind a command/query API. Every command locks its session so each
// mutation is an atomic read-modify-write, preserving the engine's
// single-writer contract when exposed over HTTP.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/platesplit/platesplit/internal/ledger"
	"github.com/platesplit/platesplit/internal/rewards"
	"github.com/platesplit/platesplit/internal/storage"
)

var commandsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "platesplit_ledger_commands_total",
		Help: "Ledger commands by operation and outcome.",
	},
	[]string{"op", "outcome"},
)

func countCommand(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	commandsTotal.WithLabelValues(op, outcome).Inc()
}

// Submitter is the outbound reward submission dependency.
type Submitter interface {
	Submit(ctx context.Context, sub rewards.Submission) (rewards.Result, error)
}

// LedgerService hosts ledger sessions and executes commands against them.
type LedgerService struct {
	store   storage.Store
	rewards Submitter
}

// NewLedgerService creates a LedgerService with the given store and reward
// submitter.
func NewLedgerService(store storage.Store, submitter Submitter) *LedgerService {
	return &LedgerService{store: store, rewards: submitter}
}

// CreateSession starts a new dining session with the given participant
// count and returns it.
func (s *LedgerService) CreateSession(ctx context.Context, dinerCount int) (*storage.Session, error) {
	eng := ledger.New()
	if err := eng.InitParticipants(dinerCount); err != nil {
		countCommand("create_session", err)
		return nil, err
	}

	session := &storage.Session{Ledger: eng}
	if err := s.store.CreateSession(ctx, session); err != nil {
		countCommand("create_session", err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	countCommand("create_session", nil)
	slog.Info("Session created", "session_id", session.ID, "diners", dinerCount)
	return session, nil
}

// ResetSession destroys a session and everything in it.
func (s *LedgerService) ResetSession(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	slog.Info("Session reset", "session_id", sessionID)
	return nil
}

// withSession runs fn with the session locked and its activity stamped.
func (s *LedgerService) withSession(ctx context.Context, sessionID string, fn func(*storage.Session) error) error {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	session.Lock()
	defer session.Unlock()
	session.Touch()
	return fn(session)
}

// View returns the session's full read model.
func (s *LedgerService) View(ctx context.Context, sessionID string) (ledger.Snapshot, error) {
	var snap ledger.Snapshot
	err := s.withSession(ctx, sessionID, func(session *storage.Session) error {
		snap = session.Ledger.Snapshot()
		return nil
	})
	return snap, err
}

// Totals returns the session's derived totals projection.
func (s *LedgerService) Totals(ctx context.Context, sessionID string) (ledger.Totals, error) {
	var totals ledger.Totals
	err := s.withSession(ctx, sessionID, func(session *storage.Session) error {
		totals = session.Ledger.ComputeTotals()
		return nil
	})
	return totals, err
}

// AddItem adds a line item and returns its ID.
func (s *LedgerService) AddItem(ctx context.Context, sessionID, name string, price float64, category string) (string, error) {
	var itemID string
	err := s.withSession(ctx, sessionID, func(session *storage.Session) error {
		id, err := session.Ledger.AddItem(name, price, ledger.Category(category))
		if err != nil {
			slog.Warn("AddItem rejected", "session_id", sessionID, "price", price, "error", err)
			return err
		}
		itemID = id
		slog.Info("Item added", "session_id", sessionID, "item_id", id, "price", price)
		return nil
	})
	countCommand("add_item", err)
	return itemID, err
}

// RenameItem updates an item's label.
func (s *LedgerService) RenameItem(ctx context.Context, sessionID, itemID, newName string) error {
	err := s.withSession(ctx, sessionID, func(session *storage.Session) error {
		return session.Ledger.RenameItem(itemID, newName)
	})
	countCommand("rename_item", err)
	return err
}

// RenameParticipant updates a participant's display name.
func (s *LedgerService) RenameParticipant(ctx context.Context, sessionID, participantID, newName string) error {
	err := s.withSession(ctx, sessionID, func(session *storage.Session) error {
		return session.Ledger.RenameParticipant(participantID, newName)
	})
	countCommand("rename_participant", err)
	return err
}

// TogglePayer flips a participant's membership in an item's payer set. The
// applied flag is false when the toggle was rejected to keep the payer set
// non-empty; payers is the item's payer set after the operation.
func (s *LedgerService) TogglePayer(ctx context.Context, sessionID, itemID, participantID string) (applied bool, payers []string, err error) {
	err = s.withSession(ctx, sessionID, func(session *storage.Session) error {
		var toggleErr error
		applied, toggleErr = session.Ledger.TogglePayer(itemID, participantID)
		if toggleErr != nil {
			return toggleErr
		}
		if !applied {
			slog.Info("Sole-payer removal rejected",
				"session_id", sessionID, "item_id", itemID, "participant_id", participantID)
		}
		for _, item := range session.Ledger.Items() {
			if item.ID == itemID {
				payers = item.Payers
				break
			}
		}
		return nil
	})
	countCommand("toggle_payer", err)
	return applied, payers, err
}

// RemoveItem deletes an item, reporting whether anything was removed.
func (s *LedgerService) RemoveItem(ctx context.Context, sessionID, itemID string) (bool, error) {
	var removed bool
	err := s.withSession(ctx, sessionID, func(session *storage.Session) error {
		removed = session.Ledger.RemoveItem(itemID)
		return nil
	})
	countCommand("remove_item", err)
	return removed, err
}

// ClearItems empties the session's item list.
func (s *LedgerService) ClearItems(ctx context.Context, sessionID string) error {
	err := s.withSession(ctx, sessionID, func(session *storage.Session) error {
		session.Ledger.ClearItems()
		slog.Info("Items cleared", "session_id", sessionID)
		return nil
	})
	countCommand("clear_items", err)
	return err
}

// SetServiceChargeRate replaces the session's surcharge rate.
func (s *LedgerService) SetServiceChargeRate(ctx context.Context, sessionID string, rate float64) error {
	err := s.withSession(ctx, sessionID, func(session *storage.Session) error {
		return session.Ledger.SetServiceChargeRate(rate)
	})
	countCommand("set_service_charge_rate", err)
	return err
}

// Submit snapshots the session and forwards the receipt summary to the
// reward service. The snapshot is taken under the session lock; the network
// call runs outside it, and its outcome never touches ledger state.
func (s *LedgerService) Submit(ctx context.Context, sessionID, inviteCode string) (rewards.Result, error) {
	var snap ledger.Snapshot
	if err := s.withSession(ctx, sessionID, func(session *storage.Session) error {
		snap = session.Ledger.Snapshot()
		return nil
	}); err != nil {
		return rewards.Result{}, err
	}

	details := make([]rewards.ItemDetail, len(snap.Items))
	for i, item := range snap.Items {
		details[i] = rewards.ItemDetail{
			ID:        item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Category:  string(item.Category),
			Payers:    item.Payers,
			CreatedAt: item.CreatedAt,
		}
	}

	sub := rewards.Submission{
		Amount:     strconv.FormatFloat(snap.Totals.GrandTotal, 'f', 2, 64),
		InviteCode: inviteCode,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Details:    details,
	}

	result, err := s.rewards.Submit(ctx, sub)
	if err != nil {
		slog.Error("Receipt submission failed", "session_id", sessionID, "error", err)
		return rewards.Result{}, err
	}
	slog.Info("Receipt submitted", "session_id", sessionID, "amount", sub.Amount, "code", result.Code)
	return result, nil
}
