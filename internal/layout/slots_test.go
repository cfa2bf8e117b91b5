package layout

import (
	"errors"
	"testing"

	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/models"
)

func coord(lineID, processID string, shift models.Shift) Coordinate {
	return Coordinate{LineID: lineID, ProcessID: processID, Shift: shift}
}

func TestSwap_ExchangesWorkers(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	// w1 at p1/day, w2 at p2/day.
	if err := db.Model(&models.ShiftSlot{}).
		Where("process_id = ? AND shift = ?", "p2", models.ShiftDay).
		Update("worker_id", "w2").Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := Swap(db, coord("l1", "p1", models.ShiftDay), coord("l2", "p2", models.ShiftDay))
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}

	if w := slotWorker(t, db, "p1", models.ShiftDay); w == nil || *w != "w2" {
		t.Errorf("p1/day worker = %v, want w2", w)
	}
	if w := slotWorker(t, db, "p2", models.ShiftDay); w == nil || *w != "w1" {
		t.Errorf("p2/day worker = %v, want w1", w)
	}
}

func TestSwap_WithEmptyTarget(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	// p2/day is empty; swapping moves w1 there and empties p1/day.
	err := Swap(db, coord("l1", "p1", models.ShiftDay), coord("l2", "p2", models.ShiftDay))
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}

	if w := slotWorker(t, db, "p1", models.ShiftDay); w != nil {
		t.Errorf("p1/day worker = %v, want nil", *w)
	}
	if w := slotWorker(t, db, "p2", models.ShiftDay); w == nil || *w != "w1" {
		t.Errorf("p2/day worker = %v, want w1", w)
	}
}

func TestSwap_OverlappingPairsSerialize(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	// Third coordinate on l1 and a second assigned worker, so two swaps
	// can share the middle slot.
	if err := db.Create(&models.Process{ID: "p3", LineID: "l1", Name: "P3", Position: 1}).Error; err != nil {
		t.Fatalf("seed process: %v", err)
	}
	for _, shift := range models.Shifts {
		slot := models.ShiftSlot{ProcessID: "p3", Shift: shift, Status: models.StatusNormal}
		if err := db.Create(&slot).Error; err != nil {
			t.Fatalf("seed slot: %v", err)
		}
	}
	if err := db.Model(&models.ShiftSlot{}).
		Where("process_id = ? AND shift = ?", "p2", models.ShiftDay).
		Update("worker_id", "w2").Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	a := coord("l1", "p1", models.ShiftDay) // w1
	b := coord("l2", "p2", models.ShiftDay) // w2
	c := coord("l1", "p3", models.ShiftDay) // empty

	// Both swaps touch b; the store serializes them, so the outcome is
	// the composition of one order, not a lost update of either call.
	if err := Swap(db, a, b); err != nil {
		t.Fatalf("Swap(a, b): %v", err)
	}
	if err := Swap(db, b, c); err != nil {
		t.Fatalf("Swap(b, c): %v", err)
	}

	// After swap one: a=w2, b=w1. After swap two: c=w1, b empty.
	if w := slotWorker(t, db, "p1", models.ShiftDay); w == nil || *w != "w2" {
		t.Errorf("p1/day worker = %v, want w2", w)
	}
	if w := slotWorker(t, db, "p2", models.ShiftDay); w != nil {
		t.Errorf("p2/day worker = %v, want nil", *w)
	}
	if w := slotWorker(t, db, "p3", models.ShiftDay); w == nil || *w != "w1" {
		t.Errorf("p3/day worker = %v, want w1", w)
	}
}

func TestSwap_IdenticalCoordinates(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	c := coord("l1", "p1", models.ShiftDay)
	if err := Swap(db, c, c); !errors.Is(err, ErrIdenticalCoordinates) {
		t.Errorf("Swap(a,a) = %v, want ErrIdenticalCoordinates", err)
	}
}

func TestSwap_InvalidCoordinateMutatesNeither(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	err := Swap(db, coord("l1", "p1", models.ShiftDay), coord("l2", "ghost", models.ShiftDay))
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Swap error = %v, want NotFoundError", err)
	}

	if w := slotWorker(t, db, "p1", models.ShiftDay); w == nil || *w != "w1" {
		t.Errorf("p1/day worker = %v, want untouched w1", w)
	}
}

func TestSwap_ValidatesShift(t *testing.T) {
	db := openLayoutTestDB(t)

	err := Swap(db, Coordinate{LineID: "l1", ProcessID: "p1", Shift: "dusk"},
		coord("l2", "p2", models.ShiftDay))
	if err == nil {
		t.Fatal("expected validation error for unknown shift")
	}
}

func TestAssign_EmptyCell(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	if err := Assign(db, coord("l2", "p2", models.ShiftNight), "w2", false); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if w := slotWorker(t, db, "p2", models.ShiftNight); w == nil || *w != "w2" {
		t.Errorf("p2/night worker = %v, want w2", w)
	}
}

func TestAssign_OverwritesSameCell(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	// w2 takes the cell w1 holds; w1 is silently displaced from that
	// cell only.
	if err := Assign(db, coord("l1", "p1", models.ShiftDay), "w2", false); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if w := slotWorker(t, db, "p1", models.ShiftDay); w == nil || *w != "w2" {
		t.Errorf("p1/day worker = %v, want w2", w)
	}
}

func TestAssign_OccupiedElsewhere(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	// w1 is at p1/day; assigning w1 to p2/night must flag the conflict.
	err := Assign(db, coord("l2", "p2", models.ShiftNight), "w1", false)
	var occ *OccupiedElsewhereError
	if !errors.As(err, &occ) {
		t.Fatalf("Assign error = %v, want OccupiedElsewhereError", err)
	}
	want := coord("l1", "p1", models.ShiftDay)
	if occ.Location != want {
		t.Errorf("Location = %v, want %v", occ.Location, want)
	}

	// The target cell must be untouched.
	if w := slotWorker(t, db, "p2", models.ShiftNight); w != nil {
		t.Errorf("p2/night worker = %v, want nil", *w)
	}
}

func TestAssign_ForceMovesWorker(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	if err := Assign(db, coord("l2", "p2", models.ShiftNight), "w1", true); err != nil {
		t.Fatalf("Assign force: %v", err)
	}
	if w := slotWorker(t, db, "p1", models.ShiftDay); w != nil {
		t.Errorf("p1/day worker = %v, want cleared", *w)
	}
	if w := slotWorker(t, db, "p2", models.ShiftNight); w == nil || *w != "w1" {
		t.Errorf("p2/night worker = %v, want w1", w)
	}
}

func TestAssign_UnknownWorker(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	err := Assign(db, coord("l1", "p1", models.ShiftDay), "ghost", false)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Assign error = %v, want NotFoundError", err)
	}
	if nf.Kind != "worker" {
		t.Errorf("NotFoundError.Kind = %q, want worker", nf.Kind)
	}
}

func TestUnassign(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	if err := Unassign(db, coord("l1", "p1", models.ShiftDay)); err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	if w := slotWorker(t, db, "p1", models.ShiftDay); w != nil {
		t.Errorf("p1/day worker = %v, want nil", *w)
	}

	// Unassigning an empty cell is not an error.
	if err := Unassign(db, coord("l1", "p1", models.ShiftDay)); err != nil {
		t.Errorf("Unassign empty cell: %v", err)
	}
}

func TestWorkerLocation(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	loc, err := WorkerLocation(db, "w1")
	if err != nil {
		t.Fatalf("WorkerLocation: %v", err)
	}
	want := coord("l1", "p1", models.ShiftDay)
	if loc != want {
		t.Errorf("location = %v, want %v", loc, want)
	}

	_, err = WorkerLocation(db, "w2")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("WorkerLocation for unassigned = %v, want NotFoundError", err)
	}
}
