// Package ledger implements the shared-expense allocation engine: a single
// dining session's participants, line items, and the rules that distribute
// item costs and a flat service charge across everyone at the table.
//
// The engine performs no I/O and holds no presentation state. Callers issue
// mutation commands and independently re-query the totals projection. It is
// not safe for concurrent use; callers exposing it to multiple writers must
// serialize access (see internal/service).
package ledger

import "time"

// Bounds on the table size the engine accepts.
const (
	MinParticipants = 1
	MaxParticipants = 8
)

// DefaultServiceChargeRate is the flat surcharge applied to the subtotal
// unless the caller overrides it.
const DefaultServiceChargeRate = 0.10

// Participant is one person sharing the bill. IDs are sequential letters
// ("A" through "H") assigned when the participant set is initialized; the
// set is fixed for the lifetime of a session.
type Participant struct {
	ID          string
	DisplayName string
}

// Category tags a line item for presentation. It carries no pricing
// semantics.
type Category string

const (
	CategoryRed    Category = "red"
	CategorySilver Category = "silver"
	CategoryGold   Category = "gold"
	CategoryBlack  Category = "black"
	CategoryCustom Category = "custom"
)

// normalizeCategory maps unknown or empty tags to CategoryCustom. The tag
// set is presentation-only, so bad input is coerced rather than rejected.
func normalizeCategory(c Category) Category {
	switch c {
	case CategoryRed, CategorySilver, CategoryGold, CategoryBlack, CategoryCustom:
		return c
	default:
		return CategoryCustom
	}
}

// LineItem is one purchased unit. Price is fixed at creation; Name and
// Payers are mutable through the engine's operations. Payers is never empty.
type LineItem struct {
	ID        string
	Name      string
	Price     float64
	Category  Category
	Payers    []string
	CreatedAt time.Time
}

// hasPayer reports whether the participant is in the item's payer set.
func (li *LineItem) hasPayer(participantID string) bool {
	for _, p := range li.Payers {
		if p == participantID {
			return true
		}
	}
	return false
}

// clone returns a copy whose Payers slice is independent of the original.
func (li *LineItem) clone() LineItem {
	out := *li
	out.Payers = append([]string(nil), li.Payers...)
	return out
}

// Snapshot is the serializable read model handed to external consumers
// (presentation, receipt submission). Amounts stay full precision; rounding
// is the boundary's job.
type Snapshot struct {
	Participants []Participant
	Items        []LineItem
	Totals       Totals
}
