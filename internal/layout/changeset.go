package layout

import (
	"fmt"

	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/models"
)

// LineChange carries the scalar fields of a created or updated line.
type LineChange struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	GroupID  string `json:"group_id"`
}

// ProcessChange carries the scalar fields of a created or updated process.
// For creates under a not-yet-persisted line, LineID is a placeholder id.
type ProcessChange struct {
	ID       string `json:"id"`
	LineID   string `json:"line_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// SlotChange carries a work-status update for one shift cell. Worker
// assignments are not part of structural commits; they move through the
// swap protocol.
type SlotChange struct {
	ProcessID string       `json:"process_id"`
	Shift     models.Shift `json:"shift"`
	Status    string       `json:"status"`
}

// ChangeSet is the structural diff between an edit buffer and its
// baseline snapshot, applied atomically by Commit.
type ChangeSet struct {
	CreateLines      []LineChange    `json:"create_lines,omitempty"`
	UpdateLines      []LineChange    `json:"update_lines,omitempty"`
	DeleteLineIDs    []string        `json:"delete_line_ids,omitempty"`
	CreateProcesses  []ProcessChange `json:"create_processes,omitempty"`
	UpdateProcesses  []ProcessChange `json:"update_processes,omitempty"`
	DeleteProcessIDs []string        `json:"delete_process_ids,omitempty"`
	UpdateSlots      []SlotChange    `json:"update_slots,omitempty"`
}

// Empty reports whether the change set contains no mutations.
func (cs *ChangeSet) Empty() bool {
	return len(cs.CreateLines) == 0 &&
		len(cs.UpdateLines) == 0 &&
		len(cs.DeleteLineIDs) == 0 &&
		len(cs.CreateProcesses) == 0 &&
		len(cs.UpdateProcesses) == 0 &&
		len(cs.DeleteProcessIDs) == 0 &&
		len(cs.UpdateSlots) == 0
}

// Validate rejects change sets that can never apply cleanly: placeholder
// ids in update/delete positions and creates without placeholder ids.
func (cs *ChangeSet) Validate() error {
	for _, lc := range cs.CreateLines {
		if !IsPlaceholderID(lc.ID) {
			return fmt.Errorf("layout: create line %q: id must carry the %q prefix", lc.ID, PlaceholderPrefix)
		}
	}
	for _, lc := range cs.UpdateLines {
		if IsPlaceholderID(lc.ID) {
			return fmt.Errorf("layout: update line %q: placeholder id", lc.ID)
		}
	}
	for _, id := range cs.DeleteLineIDs {
		if IsPlaceholderID(id) {
			return fmt.Errorf("layout: delete line %q: placeholder id", id)
		}
	}
	for _, pc := range cs.CreateProcesses {
		if !IsPlaceholderID(pc.ID) {
			return fmt.Errorf("layout: create process %q: id must carry the %q prefix", pc.ID, PlaceholderPrefix)
		}
	}
	for _, pc := range cs.UpdateProcesses {
		if IsPlaceholderID(pc.ID) {
			return fmt.Errorf("layout: update process %q: placeholder id", pc.ID)
		}
	}
	for _, id := range cs.DeleteProcessIDs {
		if IsPlaceholderID(id) {
			return fmt.Errorf("layout: delete process %q: placeholder id", id)
		}
	}
	return nil
}
