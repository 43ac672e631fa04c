package ledger

// ParticipantTotal is one participant's share of the bill.
type ParticipantTotal struct {
	// Raw is the sum of this participant's per-item allocations, before
	// the service charge.
	Raw float64
	// ServiceShare is this participant's proportional slice of the
	// service charge.
	ServiceShare float64
	// Final is Raw + ServiceShare.
	Final float64
}

// Totals is the derived totals projection. All amounts are full-precision
// float64; presentation rounding happens at the read boundary only.
type Totals struct {
	Subtotal       float64
	ServiceCharge  float64
	GrandTotal     float64
	PerParticipant map[string]ParticipantTotal
}

// ComputeTotals derives the current totals from engine state. It is a pure
// query with no side effects.
//
// Each item's price is divided evenly across its payer set (never empty, so
// the division is always defined). The service charge is subtotal times the
// configured rate, distributed proportionally to each participant's raw
// spend. With zero subtotal every service share is zero: with no spend, no
// one owes any surcharge.
func (e *Engine) ComputeTotals() Totals {
	totals := Totals{
		PerParticipant: make(map[string]ParticipantTotal, len(e.participants)),
	}

	raw := make(map[string]float64, len(e.participants))
	for _, p := range e.participants {
		raw[p.ID] = 0
	}

	for i := range e.items {
		item := &e.items[i]
		totals.Subtotal += item.Price
		perPayer := item.Price / float64(len(item.Payers))
		for _, payer := range item.Payers {
			raw[payer] += perPayer
		}
	}

	totals.ServiceCharge = totals.Subtotal * e.serviceChargeRate
	totals.GrandTotal = totals.Subtotal + totals.ServiceCharge

	for _, p := range e.participants {
		pt := ParticipantTotal{Raw: raw[p.ID]}
		if totals.Subtotal > 0 {
			pt.ServiceShare = (pt.Raw / totals.Subtotal) * totals.ServiceCharge
		}
		pt.Final = pt.Raw + pt.ServiceShare
		totals.PerParticipant[p.ID] = pt
	}

	return totals
}
