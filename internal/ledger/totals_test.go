package ledger

import (
	"math"
	"testing"
)

const tolerance = 1e-6

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}

// checkConservation asserts the allocation invariant: participant finals sum
// to the grand total, and subtotal plus service charge equals grand total.
func checkConservation(t *testing.T, totals Totals) {
	t.Helper()
	var sum float64
	for _, pt := range totals.PerParticipant {
		sum += pt.Final
	}
	if !almostEqual(sum, totals.GrandTotal) {
		t.Errorf("participant finals sum to %v, grand total is %v", sum, totals.GrandTotal)
	}
	if !almostEqual(totals.Subtotal+totals.ServiceCharge, totals.GrandTotal) {
		t.Errorf("subtotal %v + service %v != grand total %v",
			totals.Subtotal, totals.ServiceCharge, totals.GrandTotal)
	}
}

func TestComputeTotalsEmptyLedger(t *testing.T) {
	e := newTestEngine(t, 4)

	totals := e.ComputeTotals()
	if totals.Subtotal != 0 {
		t.Errorf("subtotal = %v, want 0", totals.Subtotal)
	}
	if totals.ServiceCharge != 0 {
		t.Errorf("service charge = %v, want 0", totals.ServiceCharge)
	}
	if len(totals.PerParticipant) != 4 {
		t.Fatalf("got %d participant totals, want 4", len(totals.PerParticipant))
	}
	// No spend means no surcharge for anyone; no division-by-zero fault.
	for id, pt := range totals.PerParticipant {
		if pt.Final != 0 || pt.Raw != 0 || pt.ServiceShare != 0 {
			t.Errorf("participant %s totals = %+v, want zeros", id, pt)
		}
	}
}

func TestComputeTotalsSinglePlate(t *testing.T) {
	// Four diners share one 10.00 plate at a 10% service charge: everyone
	// owes 2.50 raw, 0.25 surcharge, 2.75 final.
	e := newTestEngine(t, 4)
	if _, err := e.AddItem("Plate", 10.00, CategoryRed); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	totals := e.ComputeTotals()
	if !almostEqual(totals.Subtotal, 10.00) {
		t.Errorf("subtotal = %v, want 10.00", totals.Subtotal)
	}
	if !almostEqual(totals.ServiceCharge, 1.00) {
		t.Errorf("service charge = %v, want 1.00", totals.ServiceCharge)
	}
	if !almostEqual(totals.GrandTotal, 11.00) {
		t.Errorf("grand total = %v, want 11.00", totals.GrandTotal)
	}
	for _, id := range []string{"A", "B", "C", "D"} {
		pt := totals.PerParticipant[id]
		if !almostEqual(pt.Raw, 2.50) {
			t.Errorf("%s raw = %v, want 2.50", id, pt.Raw)
		}
		if !almostEqual(pt.Final, 2.75) {
			t.Errorf("%s final = %v, want 2.75", id, pt.Final)
		}
	}
	checkConservation(t, totals)
}

func TestComputeTotalsAfterPayerRemoval(t *testing.T) {
	e := newTestEngine(t, 4)
	id, _ := e.AddItem("Plate", 10.00, CategoryRed)

	if applied, err := e.TogglePayer(id, "D"); err != nil || !applied {
		t.Fatalf("toggle off D: applied=%v err=%v", applied, err)
	}

	totals := e.ComputeTotals()
	third := 10.0 / 3.0
	for _, id := range []string{"A", "B", "C"} {
		if !almostEqual(totals.PerParticipant[id].Raw, third) {
			t.Errorf("%s raw = %v, want %v", id, totals.PerParticipant[id].Raw, third)
		}
	}
	if d := totals.PerParticipant["D"]; d.Raw != 0 || d.Final != 0 {
		t.Errorf("D totals = %+v, want zeros", d)
	}
	checkConservation(t, totals)
}

func TestEvenSplit(t *testing.T) {
	// One 30.00 item across 4 payers raises each raw total by exactly 7.50.
	e := newTestEngine(t, 4)
	before := e.ComputeTotals()
	if _, err := e.AddItem("Platter", 30.00, CategoryGold); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	after := e.ComputeTotals()

	for _, id := range []string{"A", "B", "C", "D"} {
		delta := after.PerParticipant[id].Raw - before.PerParticipant[id].Raw
		if !almostEqual(delta, 7.50) {
			t.Errorf("%s raw delta = %v, want 7.50", id, delta)
		}
	}
}

func TestSubtotalConservation(t *testing.T) {
	// An arbitrary mutation history never double-counts or drops an item
	// from the subtotal.
	e := newTestEngine(t, 5)

	a, _ := e.AddItem("One", 3.50, CategoryRed)
	b, _ := e.AddItem("Two", 7.25, CategorySilver)
	c, _ := e.AddItem("Three", 12.00, CategoryGold)

	e.RenameItem(b, "Two Renamed")
	e.TogglePayer(a, "E")
	e.TogglePayer(c, "A")
	e.RemoveItem(b)
	e.AddItem("Four", 0.75, CategoryBlack)
	e.RemoveItem("never-existed")

	totals := e.ComputeTotals()
	want := 3.50 + 12.00 + 0.75
	if !almostEqual(totals.Subtotal, want) {
		t.Errorf("subtotal = %v, want %v", totals.Subtotal, want)
	}

	var fromItems float64
	for _, item := range e.Items() {
		fromItems += item.Price
	}
	if !almostEqual(totals.Subtotal, fromItems) {
		t.Errorf("subtotal %v != sum of item prices %v", totals.Subtotal, fromItems)
	}
	checkConservation(t, totals)
}

func TestAllocationConservationAcrossRates(t *testing.T) {
	for _, rate := range []float64{0, 0.05, 0.10, 0.125, 1.0} {
		e := newTestEngine(t, 6)
		if err := e.SetServiceChargeRate(rate); err != nil {
			t.Fatalf("SetServiceChargeRate(%v) failed: %v", rate, err)
		}

		a, _ := e.AddItem("Plate", 9.99, CategoryRed)
		e.AddItem("Roll", 4.10, CategorySilver)
		e.AddItem("Special", 23.45, CategoryBlack)
		e.TogglePayer(a, "B")
		e.TogglePayer(a, "C")
		e.TogglePayer(a, "D")
		e.TogglePayer(a, "E")
		e.TogglePayer(a, "F")

		totals := e.ComputeTotals()
		if !almostEqual(totals.ServiceCharge, totals.Subtotal*rate) {
			t.Errorf("rate %v: service charge = %v, want %v",
				rate, totals.ServiceCharge, totals.Subtotal*rate)
		}
		checkConservation(t, totals)
	}
}

func TestSolePayerCarriesWholeItem(t *testing.T) {
	// Walkthrough: toggle D back on, then strip A, B, C so D alone carries
	// the plate, with the sole-payer removal rejected.
	e := newTestEngine(t, 4)
	id, _ := e.AddItem("Plate", 10.00, CategoryRed)

	e.TogglePayer(id, "D") // off
	e.TogglePayer(id, "D") // back on
	for _, p := range []string{"A", "B", "C"} {
		e.TogglePayer(id, p)
	}
	if applied, err := e.TogglePayer(id, "D"); err != nil || applied {
		t.Fatalf("sole-payer toggle: applied=%v err=%v, want rejection", applied, err)
	}

	totals := e.ComputeTotals()
	if !almostEqual(totals.PerParticipant["D"].Raw, 10.00) {
		t.Errorf("D raw = %v, want 10.00", totals.PerParticipant["D"].Raw)
	}
	if !almostEqual(totals.PerParticipant["D"].Final, 11.00) {
		t.Errorf("D final = %v, want 11.00", totals.PerParticipant["D"].Final)
	}
	for _, other := range []string{"A", "B", "C"} {
		if totals.PerParticipant[other].Final != 0 {
			t.Errorf("%s final = %v, want 0", other, totals.PerParticipant[other].Final)
		}
	}
	checkConservation(t, totals)
}

func TestRemoveOnlyItemResetsTotals(t *testing.T) {
	e := newTestEngine(t, 4)
	id, _ := e.AddItem("Plate", 10.00, CategoryRed)
	if !e.RemoveItem(id) {
		t.Fatal("RemoveItem returned false")
	}

	totals := e.ComputeTotals()
	if totals.Subtotal != 0 || totals.ServiceCharge != 0 || totals.GrandTotal != 0 {
		t.Errorf("totals = %+v, want all zeros", totals)
	}
	for id, pt := range totals.PerParticipant {
		if pt.Final != 0 {
			t.Errorf("%s final = %v, want 0", id, pt.Final)
		}
	}
}

func TestSnapshot(t *testing.T) {
	e := newTestEngine(t, 2)
	e.AddItem("Plate", 8.00, CategoryRed)

	snap := e.Snapshot()
	if len(snap.Participants) != 2 {
		t.Errorf("snapshot participants = %d, want 2", len(snap.Participants))
	}
	if len(snap.Items) != 1 {
		t.Errorf("snapshot items = %d, want 1", len(snap.Items))
	}
	if !almostEqual(snap.Totals.GrandTotal, 8.80) {
		t.Errorf("snapshot grand total = %v, want 8.80", snap.Totals.GrandTotal)
	}
}
