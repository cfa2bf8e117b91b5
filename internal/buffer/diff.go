package buffer

import (
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/layout"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/models"
)

// Diff computes the structural change set between the baseline and the
// working copy: placeholder-id entities become creates, entities present
// in both with differing scalars become updates, and baseline entities
// missing from the working copy become deletes. Display positions are
// renormalized to slice order.
func (b *Buffer) Diff() *layout.ChangeSet {
	cs := &layout.ChangeSet{}

	baseLines := make(map[string]*layout.LineNode, len(b.baseline.Lines))
	for i := range b.baseline.Lines {
		baseLines[b.baseline.Lines[i].ID] = &b.baseline.Lines[i]
	}
	workingLines := make(map[string]bool, len(b.working.Lines))

	for idx := range b.working.Lines {
		line := &b.working.Lines[idx]
		workingLines[line.ID] = true

		if layout.IsPlaceholderID(line.ID) {
			cs.CreateLines = append(cs.CreateLines, layout.LineChange{
				ID:       line.ID,
				Name:     line.Name,
				Position: idx,
				GroupID:  line.GroupID,
			})
			for pidx := range line.Processes {
				proc := &line.Processes[pidx]
				cs.CreateProcesses = append(cs.CreateProcesses, layout.ProcessChange{
					ID:       proc.ID,
					LineID:   line.ID,
					Name:     proc.Name,
					Position: pidx,
				})
				diffNewProcessSlots(cs, proc)
			}
			continue
		}

		base, ok := baseLines[line.ID]
		if !ok {
			// Persisted id unknown to the baseline: treat as untouched.
			continue
		}
		if line.Name != base.Name || idx != base.Position || line.GroupID != base.GroupID {
			cs.UpdateLines = append(cs.UpdateLines, layout.LineChange{
				ID:       line.ID,
				Name:     line.Name,
				Position: idx,
				GroupID:  line.GroupID,
			})
		}
		diffProcesses(cs, base, line)
	}

	for _, base := range b.baseline.Lines {
		if !workingLines[base.ID] {
			cs.DeleteLineIDs = append(cs.DeleteLineIDs, base.ID)
		}
	}
	return cs
}

// diffProcesses applies the same three-way diff one level down, over the
// processes of a line that exists on both sides.
func diffProcesses(cs *layout.ChangeSet, base, line *layout.LineNode) {
	baseProcs := make(map[string]*layout.ProcessNode, len(base.Processes))
	for i := range base.Processes {
		baseProcs[base.Processes[i].ID] = &base.Processes[i]
	}
	seen := make(map[string]bool, len(line.Processes))

	for pidx := range line.Processes {
		proc := &line.Processes[pidx]
		seen[proc.ID] = true

		if layout.IsPlaceholderID(proc.ID) {
			cs.CreateProcesses = append(cs.CreateProcesses, layout.ProcessChange{
				ID:       proc.ID,
				LineID:   line.ID,
				Name:     proc.Name,
				Position: pidx,
			})
			diffNewProcessSlots(cs, proc)
			continue
		}

		baseProc, ok := baseProcs[proc.ID]
		if !ok {
			continue
		}
		if proc.Name != baseProc.Name || pidx != baseProc.Position {
			cs.UpdateProcesses = append(cs.UpdateProcesses, layout.ProcessChange{
				ID:       proc.ID,
				LineID:   line.ID,
				Name:     proc.Name,
				Position: pidx,
			})
		}
		for _, cell := range proc.Slots {
			for _, baseCell := range baseProc.Slots {
				if baseCell.Shift == cell.Shift && baseCell.Status != cell.Status {
					cs.UpdateSlots = append(cs.UpdateSlots, layout.SlotChange{
						ProcessID: proc.ID,
						Shift:     cell.Shift,
						Status:    cell.Status,
					})
				}
			}
		}
	}

	for _, baseProc := range base.Processes {
		if !seen[baseProc.ID] {
			cs.DeleteProcessIDs = append(cs.DeleteProcessIDs, baseProc.ID)
		}
	}
}

// diffNewProcessSlots emits status updates for a created process whose
// cells were edited away from the default before commit.
func diffNewProcessSlots(cs *layout.ChangeSet, proc *layout.ProcessNode) {
	for _, cell := range proc.Slots {
		if cell.Status != models.StatusNormal {
			cs.UpdateSlots = append(cs.UpdateSlots, layout.SlotChange{
				ProcessID: proc.ID,
				Shift:     cell.Shift,
				Status:    cell.Status,
			})
		}
	}
}
