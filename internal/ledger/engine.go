package ledger

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// defaultItemName labels items added without a usable name.
const defaultItemName = "Custom item"

// Engine owns a session's participants and line items and enforces every
// allocation invariant at the mutation boundary. The zero value is not
// usable; construct with New.
type Engine struct {
	participants      []Participant
	items             []LineItem // insertion order; Items() reverses for newest-first
	serviceChargeRate float64
	now               func() time.Time
}

// New returns an engine with no participants, no items, and the default
// service charge rate.
func New() *Engine {
	return &Engine{
		serviceChargeRate: DefaultServiceChargeRate,
		now:               time.Now,
	}
}

// InitParticipants replaces the participant set with count freshly generated
// participants and clears all items. Participants get sequential letter IDs
// and generated display names. Counts outside [1,8] fail with
// ErrInvalidParticipantCount; the caller's UI bounds the count too, but the
// engine guards the range itself.
func (e *Engine) InitParticipants(count int) error {
	if count < MinParticipants || count > MaxParticipants {
		return fmt.Errorf("%w: got %d", ErrInvalidParticipantCount, count)
	}
	e.participants = make([]Participant, count)
	for i := range e.participants {
		id := string(rune('A' + i))
		e.participants[i] = Participant{
			ID:          id,
			DisplayName: "Diner " + id,
		}
	}
	e.items = e.items[:0]
	return nil
}

// RenameParticipant updates a participant's display name. An empty name
// after trimming is a no-op, not an error.
func (e *Engine) RenameParticipant(participantID, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil
	}
	for i := range e.participants {
		if e.participants[i].ID == participantID {
			e.participants[i].DisplayName = newName
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrParticipantNotFound, participantID)
}

// AddItem creates a line item with the full current participant set as its
// payers and returns the new item's ID. Prices that are not positive finite
// numbers fail with ErrInvalidPrice. Adding an item before participants are
// initialized fails with ErrNoParticipants: the payer set is never empty, so
// an item cannot exist without someone responsible for it.
func (e *Engine) AddItem(name string, price float64, category Category) (string, error) {
	if len(e.participants) == 0 {
		return "", ErrNoParticipants
	}
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return "", fmt.Errorf("%w: got %v", ErrInvalidPrice, price)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultItemName
	}

	payers := make([]string, len(e.participants))
	for i, p := range e.participants {
		payers[i] = p.ID
	}

	// UUIDv7 keeps item IDs unique and time-ordered; the wall-clock
	// timestamp the original design used collides on fast repeated adds.
	id := uuid.Must(uuid.NewV7()).String()
	e.items = append(e.items, LineItem{
		ID:        id,
		Name:      name,
		Price:     price,
		Category:  normalizeCategory(category),
		Payers:    payers,
		CreatedAt: e.now(),
	})
	return id, nil
}

// RenameItem updates an item's name in place. An empty name after trimming
// is a no-op; an unknown item ID fails with ErrItemNotFound.
func (e *Engine) RenameItem(itemID, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil
	}
	item := e.findItem(itemID)
	if item == nil {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	item.Name = newName
	return nil
}

// TogglePayer flips a participant's membership in an item's payer set.
// Removing the sole remaining payer is rejected as a no-op rather than an
// error: a line can never be orphaned with nobody responsible for it. The
// returned boolean reports whether the toggle was applied, letting callers
// distinguish that business-rule rejection from invalid IDs.
func (e *Engine) TogglePayer(itemID, participantID string) (bool, error) {
	item := e.findItem(itemID)
	if item == nil {
		return false, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if e.findParticipant(participantID) == nil {
		return false, fmt.Errorf("%w: %s", ErrParticipantNotFound, participantID)
	}

	if item.hasPayer(participantID) {
		if len(item.Payers) == 1 {
			return false, nil // sole payer stays
		}
		kept := item.Payers[:0]
		for _, p := range item.Payers {
			if p != participantID {
				kept = append(kept, p)
			}
		}
		item.Payers = kept
		return true, nil
	}

	item.Payers = append(item.Payers, participantID)
	return true, nil
}

// RemoveItem deletes the item if present and reports whether anything was
// removed. Deleting a missing item is inherently idempotent, not an error.
func (e *Engine) RemoveItem(itemID string) bool {
	for i := range e.items {
		if e.items[i].ID == itemID {
			e.items = append(e.items[:i], e.items[i+1:]...)
			return true
		}
	}
	return false
}

// ClearItems empties the item list. Participants are untouched.
func (e *Engine) ClearItems() {
	e.items = e.items[:0]
}

// SetServiceChargeRate replaces the surcharge rate. Negative rates fail with
// ErrInvalidRate; zero disables the surcharge.
func (e *Engine) SetServiceChargeRate(rate float64) error {
	if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidRate, rate)
	}
	e.serviceChargeRate = rate
	return nil
}

// ServiceChargeRate returns the current surcharge rate.
func (e *Engine) ServiceChargeRate() float64 {
	return e.serviceChargeRate
}

// Participants returns a copy of the participant list in ID order.
func (e *Engine) Participants() []Participant {
	return append([]Participant(nil), e.participants...)
}

// Items returns copies of all line items, newest first. Mutating the result
// does not affect engine state.
func (e *Engine) Items() []LineItem {
	out := make([]LineItem, len(e.items))
	for i := range e.items {
		out[len(e.items)-1-i] = e.items[i].clone()
	}
	return out
}

// Snapshot returns the full read model: participants, items (newest first),
// and the current totals projection.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Participants: e.Participants(),
		Items:        e.Items(),
		Totals:       e.ComputeTotals(),
	}
}

func (e *Engine) findItem(itemID string) *LineItem {
	for i := range e.items {
		if e.items[i].ID == itemID {
			return &e.items[i]
		}
	}
	return nil
}

func (e *Engine) findParticipant(participantID string) *Participant {
	for i := range e.participants {
		if e.participants[i].ID == participantID {
			return &e.participants[i]
		}
	}
	return nil
}
