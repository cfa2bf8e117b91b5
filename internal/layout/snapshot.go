// Package layout loads the line/process/shift graph and applies structural
// commits and worker-slot mutations against the relational store.
package layout

import (
	"fmt"
	"strings"
	"time"

	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/models"
	"gorm.io/gorm"
)

// PlaceholderPrefix marks client-generated ids for entities that have not
// been persisted yet. Commit replaces them with real ids.
const PlaceholderPrefix = "tmp-"

// IsPlaceholderID reports whether id was generated client-side and does
// not exist in the store.
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, PlaceholderPrefix)
}

// SlotCell is one shift cell of a process: its work status and assigned
// worker, if any.
type SlotCell struct {
	Shift    models.Shift `json:"shift"`
	Status   string       `json:"status"`
	WorkerID *string      `json:"worker_id"`
}

// ProcessNode is a process and its per-shift cells.
type ProcessNode struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Position int        `json:"position"`
	Slots    []SlotCell `json:"slots"`
}

// LineNode is a line and its ordered processes.
type LineNode struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Position  int           `json:"position"`
	GroupID   string        `json:"group_id"`
	Processes []ProcessNode `json:"processes"`
}

// Snapshot is the full committed layout graph plus reference data.
type Snapshot struct {
	Lines    []LineNode         `json:"lines"`
	Groups   []models.LineGroup `json:"groups"`
	LoadedAt time.Time          `json:"loaded_at"`
}

// Load reads the complete layout graph from the store.
func Load(db *gorm.DB) (*Snapshot, error) {
	var lines []models.Line
	if err := db.Preload("Processes", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	}).Preload("Processes.Slots", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("shift ASC")
	}).Order("position ASC").Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("layout: load lines: %w", err)
	}

	var groups []models.LineGroup
	if err := db.Order("position ASC").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("layout: load groups: %w", err)
	}

	snap := &Snapshot{
		Lines:    make([]LineNode, 0, len(lines)),
		Groups:   groups,
		LoadedAt: time.Now(),
	}
	for _, l := range lines {
		node := LineNode{
			ID:        l.ID,
			Name:      l.Name,
			Position:  l.Position,
			GroupID:   l.GroupID,
			Processes: make([]ProcessNode, 0, len(l.Processes)),
		}
		for _, p := range l.Processes {
			pn := ProcessNode{
				ID:       p.ID,
				Name:     p.Name,
				Position: p.Position,
				Slots:    make([]SlotCell, 0, len(p.Slots)),
			}
			for _, s := range p.Slots {
				pn.Slots = append(pn.Slots, SlotCell{
					Shift:    s.Shift,
					Status:   s.Status,
					WorkerID: s.WorkerID,
				})
			}
			node.Processes = append(node.Processes, pn)
		}
		snap.Lines = append(snap.Lines, node)
	}
	return snap, nil
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	cp := &Snapshot{
		Lines:    make([]LineNode, len(s.Lines)),
		Groups:   make([]models.LineGroup, len(s.Groups)),
		LoadedAt: s.LoadedAt,
	}
	copy(cp.Groups, s.Groups)
	for i, l := range s.Lines {
		ln := l
		ln.Processes = make([]ProcessNode, len(l.Processes))
		for j, p := range l.Processes {
			pn := p
			pn.Slots = make([]SlotCell, len(p.Slots))
			for k, cell := range p.Slots {
				sc := cell
				if cell.WorkerID != nil {
					w := *cell.WorkerID
					sc.WorkerID = &w
				}
				pn.Slots[k] = sc
			}
			ln.Processes[j] = pn
		}
		cp.Lines[i] = ln
	}
	return cp
}

// FindLine returns the line with the given id, or nil.
func (s *Snapshot) FindLine(id string) *LineNode {
	for i := range s.Lines {
		if s.Lines[i].ID == id {
			return &s.Lines[i]
		}
	}
	return nil
}

// FindProcess returns the line and process with the given process id, or nils.
func (s *Snapshot) FindProcess(processID string) (*LineNode, *ProcessNode) {
	for i := range s.Lines {
		for j := range s.Lines[i].Processes {
			if s.Lines[i].Processes[j].ID == processID {
				return &s.Lines[i], &s.Lines[i].Processes[j]
			}
		}
	}
	return nil, nil
}
