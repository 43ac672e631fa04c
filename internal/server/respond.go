package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/platesplit/platesplit/internal/ledger"
	"github.com/platesplit/platesplit/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps domain errors to HTTP statuses. Validation failures are
// the caller's fault; unknown errors are the server's.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrSessionNotFound),
		errors.Is(err, ledger.ErrItemNotFound),
		errors.Is(err, ledger.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidPrice),
		errors.Is(err, ledger.ErrInvalidRate),
		errors.Is(err, ledger.ErrInvalidParticipantCount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// round2 rounds to 2 decimal places at the read boundary. Stored state is
// never rounded.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type participantJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type itemJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Category  string    `json:"category"`
	Payers    []string  `json:"payers"`
	CreatedAt time.Time `json:"createdAt"`
}

type participantTotalJSON struct {
	Raw          float64 `json:"raw"`
	ServiceShare float64 `json:"serviceShare"`
	Final        float64 `json:"final"`
}

type totalsJSON struct {
	Subtotal       float64                         `json:"subtotal"`
	ServiceCharge  float64                         `json:"serviceCharge"`
	GrandTotal     float64                         `json:"grandTotal"`
	PerParticipant map[string]participantTotalJSON `json:"perParticipant"`
}

func toParticipantsJSON(participants []ledger.Participant) []participantJSON {
	out := make([]participantJSON, len(participants))
	for i, p := range participants {
		out[i] = participantJSON{ID: p.ID, Name: p.DisplayName}
	}
	return out
}

func toItemsJSON(items []ledger.LineItem) []itemJSON {
	out := make([]itemJSON, len(items))
	for i, item := range items {
		out[i] = itemJSON{
			ID:        item.ID,
			Name:      item.Name,
			Price:     round2(item.Price),
			Category:  string(item.Category),
			Payers:    item.Payers,
			CreatedAt: item.CreatedAt,
		}
	}
	return out
}

func toTotalsJSON(totals ledger.Totals) totalsJSON {
	per := make(map[string]participantTotalJSON, len(totals.PerParticipant))
	for id, pt := range totals.PerParticipant {
		per[id] = participantTotalJSON{
			Raw:          round2(pt.Raw),
			ServiceShare: round2(pt.ServiceShare),
			Final:        round2(pt.Final),
		}
	}
	return totalsJSON{
		Subtotal:       round2(totals.Subtotal),
		ServiceCharge:  round2(totals.ServiceCharge),
		GrandTotal:     round2(totals.GrandTotal),
		PerParticipant: per,
	}
}
