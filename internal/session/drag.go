package session

import (
	"fmt"

	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/layout"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/models"
)

// DragKind tags what a drag payload carries.
type DragKind string

const (
	DragLine    DragKind = "line"
	DragProcess DragKind = "process"
	DragSlot    DragKind = "slot"
)

// DragPayload is a tagged drag-and-drop item: a line, a process, or a
// slot coordinate. Handlers dispatch on Kind instead of guessing shape.
type DragPayload struct {
	Kind      DragKind     `json:"kind"`
	LineID    string       `json:"line_id,omitempty"`
	ProcessID string       `json:"process_id,omitempty"`
	Shift     models.Shift `json:"shift,omitempty"`
}

// LinePayload tags a dragged line.
func LinePayload(lineID string) DragPayload {
	return DragPayload{Kind: DragLine, LineID: lineID}
}

// ProcessPayload tags a dragged process.
func ProcessPayload(lineID, processID string) DragPayload {
	return DragPayload{Kind: DragProcess, LineID: lineID, ProcessID: processID}
}

// SlotPayload tags a dragged slot cell.
func SlotPayload(coord layout.Coordinate) DragPayload {
	return DragPayload{Kind: DragSlot, LineID: coord.LineID, ProcessID: coord.ProcessID, Shift: coord.Shift}
}

// Coordinate converts a slot payload back into a coordinate.
func (p DragPayload) Coordinate() layout.Coordinate {
	return layout.Coordinate{LineID: p.LineID, ProcessID: p.ProcessID, Shift: p.Shift}
}

// SwapRequest is a slot exchange the transport layer should send to the
// server. The UI applies it optimistically and reverts on failure.
type SwapRequest struct {
	Source layout.Coordinate `json:"source"`
	Target layout.Coordinate `json:"target"`
}

// ApplySwap exchanges the two workers in the local view before the server
// call returns, so both cells update immediately. While an edit buffer is
// open the exchange is folded into its snapshots the same way pushed
// assignment changes are. Fails without mutating anything when either
// coordinate is not in the visible snapshot.
func (s *Session) ApplySwap(req *SwapRequest) error {
	if req == nil {
		return nil
	}
	if s.buf != nil {
		if err := swapCells(s.buf.Working(), req.Source, req.Target); err != nil {
			return err
		}
		return swapCells(s.buf.Baseline(), req.Source, req.Target)
	}
	return swapCells(s.last, req.Source, req.Target)
}

// RevertSwap snaps both cells back after the server rejected the swap. An
// exchange is its own inverse, so reverting re-applies it.
func (s *Session) RevertSwap(req *SwapRequest) error {
	return s.ApplySwap(req)
}

func swapCells(snap *layout.Snapshot, a, b layout.Coordinate) error {
	ca, err := findCell(snap, a)
	if err != nil {
		return err
	}
	cb, err := findCell(snap, b)
	if err != nil {
		return err
	}
	ca.WorkerID, cb.WorkerID = cb.WorkerID, ca.WorkerID
	return nil
}

func findCell(snap *layout.Snapshot, coord layout.Coordinate) (*layout.SlotCell, error) {
	line := snap.FindLine(coord.LineID)
	if line == nil {
		return nil, &layout.NotFoundError{Kind: "line", ID: coord.LineID}
	}
	for pi := range line.Processes {
		proc := &line.Processes[pi]
		if proc.ID != coord.ProcessID {
			continue
		}
		for si := range proc.Slots {
			if proc.Slots[si].Shift == coord.Shift {
				return &proc.Slots[si], nil
			}
		}
	}
	return nil, &layout.NotFoundError{Kind: "slot", ID: coord.String()}
}

// Drop dispatches a drag payload onto a target of the same kind. Line
// and process drops reorder the edit buffer and require edit mode. Slot
// drops return the swap request to send; dropping a slot onto itself is
// a no-op short-circuited here, before any request is made.
func (s *Session) Drop(src, dst DragPayload) (*SwapRequest, error) {
	if src.Kind != dst.Kind {
		return nil, fmt.Errorf("session: cannot drop %s onto %s", src.Kind, dst.Kind)
	}

	switch src.Kind {
	case DragLine:
		if s.buf == nil {
			return nil, ErrNotEditing
		}
		index, err := s.lineIndex(dst.LineID)
		if err != nil {
			return nil, err
		}
		return nil, s.buf.MoveLine(src.LineID, index)

	case DragProcess:
		if s.buf == nil {
			return nil, ErrNotEditing
		}
		if src.LineID != dst.LineID {
			return nil, fmt.Errorf("session: process reorder must stay within line %s", src.LineID)
		}
		index, err := s.processIndex(dst.LineID, dst.ProcessID)
		if err != nil {
			return nil, err
		}
		return nil, s.buf.MoveProcess(src.ProcessID, index)

	case DragSlot:
		source, target := src.Coordinate(), dst.Coordinate()
		if err := source.Validate(); err != nil {
			return nil, err
		}
		if err := target.Validate(); err != nil {
			return nil, err
		}
		if source == target {
			return nil, nil
		}
		return &SwapRequest{Source: source, Target: target}, nil

	default:
		return nil, fmt.Errorf("session: unknown drag kind %q", src.Kind)
	}
}

func (s *Session) lineIndex(lineID string) (int, error) {
	for i, l := range s.buf.Working().Lines {
		if l.ID == lineID {
			return i, nil
		}
	}
	return 0, &layout.NotFoundError{Kind: "line", ID: lineID}
}

func (s *Session) processIndex(lineID, processID string) (int, error) {
	line := s.buf.Working().FindLine(lineID)
	if line == nil {
		return 0, &layout.NotFoundError{Kind: "line", ID: lineID}
	}
	for i, p := range line.Processes {
		if p.ID == processID {
			return i, nil
		}
	}
	return 0, &layout.NotFoundError{Kind: "process", ID: processID}
}
