package layout

import (
	"errors"
	"testing"

	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/models"
)

func TestCommit_CreateLineWithProcesses(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	cs := &ChangeSet{
		CreateLines: []LineChange{
			{ID: "tmp-line", Name: "L9", Position: 2, GroupID: "g1"},
		},
		CreateProcesses: []ProcessChange{
			{ID: "tmp-proc-a", LineID: "tmp-line", Name: "P1", Position: 0},
			{ID: "tmp-proc-b", LineID: "tmp-line", Name: "P2", Position: 1},
		},
	}

	result, err := Commit(db, cs)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	lineID, ok := result.IDMap["tmp-line"]
	if !ok || IsPlaceholderID(lineID) {
		t.Fatalf("IDMap[tmp-line] = %q, want persisted id", lineID)
	}
	for _, tmp := range []string{"tmp-proc-a", "tmp-proc-b"} {
		if id, ok := result.IDMap[tmp]; !ok || IsPlaceholderID(id) {
			t.Errorf("IDMap[%s] = %q, want persisted id", tmp, id)
		}
	}

	line := result.Snapshot.FindLine(lineID)
	if line == nil {
		t.Fatal("new line missing from returned snapshot")
	}
	if line.Name != "L9" {
		t.Errorf("line name = %q, want L9", line.Name)
	}
	if len(line.Processes) != 2 {
		t.Fatalf("new line processes = %d, want 2", len(line.Processes))
	}
	for _, p := range line.Processes {
		if len(p.Slots) != 2 {
			t.Errorf("process %s slots = %d, want 2 (day+night)", p.Name, len(p.Slots))
		}
	}
}

func TestCommit_UpdateScalars(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	cs := &ChangeSet{
		UpdateLines: []LineChange{
			{ID: "l1", Name: "Line One", Position: 5, GroupID: "g1"},
		},
		UpdateProcesses: []ProcessChange{
			{ID: "p1", LineID: "l1", Name: "Station 1", Position: 3},
		},
		UpdateSlots: []SlotChange{
			{ProcessID: "p1", Shift: models.ShiftNight, Status: models.StatusOvertime},
		},
	}

	result, err := Commit(db, cs)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	var line *LineNode
	for i := range result.Snapshot.Lines {
		if result.Snapshot.Lines[i].ID == "l1" {
			line = &result.Snapshot.Lines[i]
		}
	}
	if line == nil {
		t.Fatal("l1 missing from snapshot")
	}
	if line.Name != "Line One" || line.Position != 5 {
		t.Errorf("line = %q/%d, want Line One/5", line.Name, line.Position)
	}
	if line.Processes[0].Name != "Station 1" {
		t.Errorf("process name = %q, want Station 1", line.Processes[0].Name)
	}

	var night models.ShiftSlot
	if err := db.Where("process_id = ? AND shift = ?", "p1", models.ShiftNight).
		First(&night).Error; err != nil {
		t.Fatalf("load slot: %v", err)
	}
	if night.Status != models.StatusOvertime {
		t.Errorf("night status = %q, want overtime", night.Status)
	}
}

func TestCommit_DeleteLineCascades(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	cs := &ChangeSet{DeleteLineIDs: []string{"l1"}}
	result, err := Commit(db, cs)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if result.Snapshot.FindLine("l1") != nil {
		t.Error("l1 still present after delete")
	}

	var procCount, slotCount int64
	db.Model(&models.Process{}).Where("line_id = ?", "l1").Count(&procCount)
	db.Model(&models.ShiftSlot{}).Where("process_id = ?", "p1").Count(&slotCount)
	if procCount != 0 || slotCount != 0 {
		t.Errorf("cascade left %d processes, %d slots", procCount, slotCount)
	}
}

func TestCommit_DeleteProcess(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	cs := &ChangeSet{DeleteProcessIDs: []string{"p2"}}
	if _, err := Commit(db, cs); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	var slotCount int64
	db.Model(&models.ShiftSlot{}).Where("process_id = ?", "p2").Count(&slotCount)
	if slotCount != 0 {
		t.Errorf("slots of deleted process = %d, want 0", slotCount)
	}
}

func TestCommit_AtomicRollback(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	// Valid create combined with a delete of a vanished line: the whole
	// commit must roll back, including the create.
	cs := &ChangeSet{
		CreateLines:   []LineChange{{ID: "tmp-x", Name: "LX", Position: 9, GroupID: "g1"}},
		DeleteLineIDs: []string{"ghost"},
	}

	_, err := Commit(db, cs)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Commit error = %v, want NotFoundError", err)
	}
	if nf.Kind != "line" || nf.ID != "ghost" {
		t.Errorf("NotFoundError = %s %q, want line ghost", nf.Kind, nf.ID)
	}

	var count int64
	db.Model(&models.Line{}).Count(&count)
	if count != 2 {
		t.Errorf("line count after rollback = %d, want 2", count)
	}
	db.Model(&models.Line{}).Where("name = ?", "LX").Count(&count)
	if count != 0 {
		t.Error("rolled-back create leaked a line")
	}
}

func TestCommit_UpdateMissingLine(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	cs := &ChangeSet{
		UpdateLines: []LineChange{{ID: "ghost", Name: "X", Position: 0}},
	}
	_, err := Commit(db, cs)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Commit error = %v, want NotFoundError", err)
	}
}

func TestCommit_ValidateRejectsMisplacedPlaceholders(t *testing.T) {
	db := openLayoutTestDB(t)

	bad := []*ChangeSet{
		{CreateLines: []LineChange{{ID: "l1", Name: "X"}}},
		{UpdateLines: []LineChange{{ID: "tmp-a", Name: "X"}}},
		{DeleteLineIDs: []string{"tmp-a"}},
		{CreateProcesses: []ProcessChange{{ID: "p9", LineID: "l1"}}},
		{UpdateProcesses: []ProcessChange{{ID: "tmp-p", LineID: "l1"}}},
		{DeleteProcessIDs: []string{"tmp-p"}},
	}
	for i, cs := range bad {
		if _, err := Commit(db, cs); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestCommit_EmptyChangeSet(t *testing.T) {
	db := openLayoutTestDB(t)
	seedLayout(t, db)

	cs := &ChangeSet{}
	if !cs.Empty() {
		t.Error("empty change set should report Empty")
	}
	result, err := Commit(db, cs)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(result.Snapshot.Lines) != 2 {
		t.Errorf("snapshot lines = %d, want 2", len(result.Snapshot.Lines))
	}
}
