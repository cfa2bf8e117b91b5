// Package buffer holds the client-side working copy of the layout graph
// during an edit session. Structural edits mutate only the buffer; the
// committed snapshot is untouched until the diff is applied in one
// transaction on commit.
package buffer

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/layout"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/models"
)

// Op identifies a recorded structural edit.
type Op string

const (
	OpAddLine       Op = "add_line"
	OpRenameLine    Op = "rename_line"
	OpDeleteLine    Op = "delete_line"
	OpMoveLine      Op = "move_line"
	OpSetLineGroup  Op = "set_line_group"
	OpAddProcess    Op = "add_process"
	OpRenameProcess Op = "rename_process"
	OpDeleteProcess Op = "delete_process"
	OpMoveProcess   Op = "move_process"
	OpSetSlotStatus Op = "set_slot_status"
)

// Command is one recorded structural edit. The command log makes the
// buffer's divergence from its baseline explicit and replayable.
type Command struct {
	Op      Op           `json:"op"`
	ID      string       `json:"id,omitempty"`
	LineID  string       `json:"line_id,omitempty"`
	Name    string       `json:"name,omitempty"`
	Index   int          `json:"index,omitempty"`
	GroupID string       `json:"group_id,omitempty"`
	Shift   models.Shift `json:"shift,omitempty"`
	Status  string       `json:"status,omitempty"`
}

// Buffer is an edit session's working copy plus the log of edits applied
// to it since the baseline snapshot.
type Buffer struct {
	baseline *layout.Snapshot
	working  *layout.Snapshot
	log      []Command
}

// New initializes a buffer as a deep copy of the committed snapshot.
func New(snapshot *layout.Snapshot) *Buffer {
	return &Buffer{
		baseline: snapshot.Clone(),
		working:  snapshot.Clone(),
	}
}

// NewPlaceholderID generates a client-side id for a not-yet-persisted
// entity, carrying the reserved prefix commit uses to detect creates.
func NewPlaceholderID() string {
	return layout.PlaceholderPrefix + uuid.NewString()
}

// Working exposes the mutable working copy for rendering.
func (b *Buffer) Working() *layout.Snapshot { return b.working }

// Baseline exposes the committed snapshot the buffer diverged from.
func (b *Buffer) Baseline() *layout.Snapshot { return b.baseline }

// Log returns the recorded edit commands in application order.
func (b *Buffer) Log() []Command { return b.log }

// Dirty reports whether the working copy differs from the baseline. Edits
// that cancel out (add then delete the same line) leave the buffer clean.
func (b *Buffer) Dirty() bool {
	return !b.Diff().Empty()
}

// AddLine appends a new line with a placeholder id and returns the id.
func (b *Buffer) AddLine(name, groupID string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("buffer: line name is required")
	}
	id := NewPlaceholderID()
	b.working.Lines = append(b.working.Lines, layout.LineNode{
		ID:      id,
		Name:    name,
		GroupID: groupID,
	})
	b.record(Command{Op: OpAddLine, ID: id, Name: name, GroupID: groupID})
	return id, nil
}

// RenameLine changes a line's display name.
func (b *Buffer) RenameLine(id, name string) error {
	line := b.working.FindLine(id)
	if line == nil {
		return &layout.NotFoundError{Kind: "line", ID: id}
	}
	line.Name = name
	b.record(Command{Op: OpRenameLine, ID: id, Name: name})
	return nil
}

// SetLineGroup moves a line into another display group.
func (b *Buffer) SetLineGroup(id, groupID string) error {
	line := b.working.FindLine(id)
	if line == nil {
		return &layout.NotFoundError{Kind: "line", ID: id}
	}
	line.GroupID = groupID
	b.record(Command{Op: OpSetLineGroup, ID: id, GroupID: groupID})
	return nil
}

// DeleteLine removes a line and its processes from the working copy.
func (b *Buffer) DeleteLine(id string) error {
	for i := range b.working.Lines {
		if b.working.Lines[i].ID == id {
			b.working.Lines = append(b.working.Lines[:i], b.working.Lines[i+1:]...)
			b.record(Command{Op: OpDeleteLine, ID: id})
			return nil
		}
	}
	return &layout.NotFoundError{Kind: "line", ID: id}
}

// MoveLine repositions a line to the given index.
func (b *Buffer) MoveLine(id string, index int) error {
	if index < 0 || index >= len(b.working.Lines) {
		return fmt.Errorf("buffer: line index %d out of range", index)
	}
	from := -1
	for i := range b.working.Lines {
		if b.working.Lines[i].ID == id {
			from = i
			break
		}
	}
	if from == -1 {
		return &layout.NotFoundError{Kind: "line", ID: id}
	}
	line := b.working.Lines[from]
	b.working.Lines = append(b.working.Lines[:from], b.working.Lines[from+1:]...)
	b.working.Lines = append(b.working.Lines[:index],
		append([]layout.LineNode{line}, b.working.Lines[index:]...)...)
	b.record(Command{Op: OpMoveLine, ID: id, Index: index})
	return nil
}

// AddProcess appends a new process to a line with a placeholder id. Its
// day and night cells start at normal status with no worker.
func (b *Buffer) AddProcess(lineID, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("buffer: process name is required")
	}
	line := b.working.FindLine(lineID)
	if line == nil {
		return "", &layout.NotFoundError{Kind: "line", ID: lineID}
	}
	id := NewPlaceholderID()
	proc := layout.ProcessNode{ID: id, Name: name}
	for _, shift := range models.Shifts {
		proc.Slots = append(proc.Slots, layout.SlotCell{Shift: shift, Status: models.StatusNormal})
	}
	line.Processes = append(line.Processes, proc)
	b.record(Command{Op: OpAddProcess, ID: id, LineID: lineID, Name: name})
	return id, nil
}

// RenameProcess changes a process's display name.
func (b *Buffer) RenameProcess(id, name string) error {
	_, proc := b.working.FindProcess(id)
	if proc == nil {
		return &layout.NotFoundError{Kind: "process", ID: id}
	}
	proc.Name = name
	b.record(Command{Op: OpRenameProcess, ID: id, Name: name})
	return nil
}

// DeleteProcess removes a process from its line.
func (b *Buffer) DeleteProcess(id string) error {
	line, _ := b.working.FindProcess(id)
	if line == nil {
		return &layout.NotFoundError{Kind: "process", ID: id}
	}
	for i := range line.Processes {
		if line.Processes[i].ID == id {
			line.Processes = append(line.Processes[:i], line.Processes[i+1:]...)
			break
		}
	}
	b.record(Command{Op: OpDeleteProcess, ID: id})
	return nil
}

// MoveProcess repositions a process within its line.
func (b *Buffer) MoveProcess(id string, index int) error {
	line, _ := b.working.FindProcess(id)
	if line == nil {
		return &layout.NotFoundError{Kind: "process", ID: id}
	}
	if index < 0 || index >= len(line.Processes) {
		return fmt.Errorf("buffer: process index %d out of range", index)
	}
	from := -1
	for i := range line.Processes {
		if line.Processes[i].ID == id {
			from = i
			break
		}
	}
	proc := line.Processes[from]
	line.Processes = append(line.Processes[:from], line.Processes[from+1:]...)
	line.Processes = append(line.Processes[:index],
		append([]layout.ProcessNode{proc}, line.Processes[index:]...)...)
	b.record(Command{Op: OpMoveProcess, ID: id, Index: index})
	return nil
}

// SetSlotStatus changes the work status of one shift cell.
func (b *Buffer) SetSlotStatus(processID string, shift models.Shift, status string) error {
	_, proc := b.working.FindProcess(processID)
	if proc == nil {
		return &layout.NotFoundError{Kind: "process", ID: processID}
	}
	for i := range proc.Slots {
		if proc.Slots[i].Shift == shift {
			proc.Slots[i].Status = status
			b.record(Command{Op: OpSetSlotStatus, ID: processID, Shift: shift, Status: status})
			return nil
		}
	}
	return &layout.NotFoundError{Kind: "slot", ID: fmt.Sprintf("%s/%s", processID, shift)}
}

// ApplyAssignments copies worker assignments from a fresh snapshot into
// the buffer without touching its structure. Used while editing so swaps
// performed by other admins stay visible.
func (b *Buffer) ApplyAssignments(fresh *layout.Snapshot) {
	for _, snap := range []*layout.Snapshot{b.baseline, b.working} {
		for li := range snap.Lines {
			for pi := range snap.Lines[li].Processes {
				proc := &snap.Lines[li].Processes[pi]
				_, freshProc := fresh.FindProcess(proc.ID)
				if freshProc == nil {
					continue
				}
				for si := range proc.Slots {
					for _, fs := range freshProc.Slots {
						if fs.Shift == proc.Slots[si].Shift {
							proc.Slots[si].WorkerID = cloneWorkerRef(fs.WorkerID)
						}
					}
				}
			}
		}
	}
}

// record appends a command to the edit log.
func (b *Buffer) record(cmd Command) {
	b.log = append(b.log, cmd)
}

func cloneWorkerRef(w *string) *string {
	if w == nil {
		return nil
	}
	cp := *w
	return &cp
}
