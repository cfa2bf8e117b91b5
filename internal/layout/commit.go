package layout

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/models"
	"gorm.io/gorm"
)

// CommitResult is the outcome of a successful structural commit: the
// freshly persisted snapshot and the placeholder-to-persisted id mapping.
type CommitResult struct {
	Snapshot *Snapshot         `json:"snapshot"`
	IDMap    map[string]string `json:"id_map"`
}

// Commit applies a structural change set in one transaction. Deletes
// cascade to child processes and slots; creates materialize placeholder
// ids; every referenced persisted entity must still exist or the whole
// commit rolls back with a NotFoundError.
func Commit(db *gorm.DB, cs *ChangeSet) (*CommitResult, error) {
	if err := cs.Validate(); err != nil {
		return nil, err
	}

	result := &CommitResult{IDMap: make(map[string]string)}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, id := range cs.DeleteLineIDs {
			if err := deleteLine(tx, id); err != nil {
				return err
			}
		}
		for _, id := range cs.DeleteProcessIDs {
			if err := deleteProcess(tx, id); err != nil {
				return err
			}
		}

		for _, lc := range cs.CreateLines {
			line := models.Line{
				ID:       uuid.NewString(),
				Name:     lc.Name,
				Position: lc.Position,
				GroupID:  lc.GroupID,
			}
			if err := tx.Create(&line).Error; err != nil {
				return fmt.Errorf("create line %q: %w", lc.Name, err)
			}
			result.IDMap[lc.ID] = line.ID
		}

		for _, pc := range cs.CreateProcesses {
			lineID := pc.LineID
			if IsPlaceholderID(lineID) {
				mapped, ok := result.IDMap[lineID]
				if !ok {
					return &NotFoundError{Kind: "line", ID: lineID}
				}
				lineID = mapped
			} else if err := mustExist(tx, &models.Line{}, "line", lineID); err != nil {
				return err
			}

			proc := models.Process{
				ID:       uuid.NewString(),
				LineID:   lineID,
				Name:     pc.Name,
				Position: pc.Position,
			}
			if err := tx.Create(&proc).Error; err != nil {
				return fmt.Errorf("create process %q: %w", pc.Name, err)
			}
			result.IDMap[pc.ID] = proc.ID

			// A process exists once per shift.
			for _, shift := range models.Shifts {
				slot := models.ShiftSlot{
					ProcessID: proc.ID,
					Shift:     shift,
					Status:    models.StatusNormal,
				}
				if err := tx.Create(&slot).Error; err != nil {
					return fmt.Errorf("create slot %s/%s: %w", proc.ID, shift, err)
				}
			}
		}

		for _, lc := range cs.UpdateLines {
			if err := mustExist(tx, &models.Line{}, "line", lc.ID); err != nil {
				return err
			}
			if err := tx.Model(&models.Line{}).Where("id = ?", lc.ID).
				Updates(map[string]interface{}{
					"name":     lc.Name,
					"position": lc.Position,
					"group_id": lc.GroupID,
				}).Error; err != nil {
				return fmt.Errorf("update line %s: %w", lc.ID, err)
			}
		}

		for _, pc := range cs.UpdateProcesses {
			if err := mustExist(tx, &models.Process{}, "process", pc.ID); err != nil {
				return err
			}
			if err := tx.Model(&models.Process{}).Where("id = ?", pc.ID).
				Updates(map[string]interface{}{
					"name":     pc.Name,
					"position": pc.Position,
				}).Error; err != nil {
				return fmt.Errorf("update process %s: %w", pc.ID, err)
			}
		}

		for _, sc := range cs.UpdateSlots {
			processID := sc.ProcessID
			if IsPlaceholderID(processID) {
				mapped, ok := result.IDMap[processID]
				if !ok {
					return &NotFoundError{Kind: "process", ID: processID}
				}
				processID = mapped
			}
			res := tx.Model(&models.ShiftSlot{}).
				Where("process_id = ? AND shift = ?", processID, sc.Shift).
				Update("status", sc.Status)
			if res.Error != nil {
				return fmt.Errorf("update slot %s/%s: %w", processID, sc.Shift, res.Error)
			}
			if res.RowsAffected == 0 {
				return &NotFoundError{Kind: "slot", ID: fmt.Sprintf("%s/%s", processID, sc.Shift)}
			}
		}

		fresh, err := Load(tx)
		if err != nil {
			return err
		}
		result.Snapshot = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// deleteLine removes a line with its processes and their slots.
func deleteLine(tx *gorm.DB, id string) error {
	var processIDs []string
	if err := tx.Model(&models.Process{}).Where("line_id = ?", id).
		Pluck("id", &processIDs).Error; err != nil {
		return fmt.Errorf("list processes of line %s: %w", id, err)
	}
	if len(processIDs) > 0 {
		if err := tx.Where("process_id IN ?", processIDs).
			Delete(&models.ShiftSlot{}).Error; err != nil {
			return fmt.Errorf("delete slots of line %s: %w", id, err)
		}
		if err := tx.Where("line_id = ?", id).Delete(&models.Process{}).Error; err != nil {
			return fmt.Errorf("delete processes of line %s: %w", id, err)
		}
	}
	result := tx.Where("id = ?", id).Delete(&models.Line{})
	if result.Error != nil {
		return fmt.Errorf("delete line %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Kind: "line", ID: id}
	}
	return nil
}

// deleteProcess removes a process and its slots.
func deleteProcess(tx *gorm.DB, id string) error {
	if err := tx.Where("process_id = ?", id).Delete(&models.ShiftSlot{}).Error; err != nil {
		return fmt.Errorf("delete slots of process %s: %w", id, err)
	}
	result := tx.Where("id = ?", id).Delete(&models.Process{})
	if result.Error != nil {
		return fmt.Errorf("delete process %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Kind: "process", ID: id}
	}
	return nil
}

// mustExist fails with a NotFoundError if no row of the model has the id.
func mustExist(tx *gorm.DB, model interface{}, kind, id string) error {
	err := tx.Select("id").Where("id = ?", id).First(model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Kind: kind, ID: id}
	}
	if err != nil {
		return fmt.Errorf("check %s %s: %w", kind, id, err)
	}
	return nil
}
