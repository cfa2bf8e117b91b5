package layout

import (
	"errors"
	"fmt"

	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate adds a row lock on dialects that support it. SQLite (used
// by the unit tests) serializes writers at the connection level instead.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// resolveSlot loads the slot at a coordinate, verifying the process
// belongs to the stated line.
func resolveSlot(tx *gorm.DB, coord Coordinate) (*models.ShiftSlot, error) {
	var proc models.Process
	err := tx.Where("id = ? AND line_id = ?", coord.ProcessID, coord.LineID).First(&proc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "process", ID: coord.ProcessID}
	}
	if err != nil {
		return nil, fmt.Errorf("layout: resolve process %s: %w", coord.ProcessID, err)
	}

	var slot models.ShiftSlot
	err = lockForUpdate(tx).
		Where("process_id = ? AND shift = ?", coord.ProcessID, coord.Shift).
		First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "slot", ID: coord.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("layout: resolve slot %s: %w", coord, err)
	}
	return &slot, nil
}

// Swap exchanges the assigned workers of two coordinates in one
// transaction. If either coordinate does not resolve, neither side is
// mutated. Empty cells swap like any other value.
func Swap(db *gorm.DB, source, target Coordinate) error {
	if err := source.Validate(); err != nil {
		return err
	}
	if err := target.Validate(); err != nil {
		return err
	}
	if source == target {
		return ErrIdenticalCoordinates
	}

	// Lock in a stable order so two overlapping swaps cannot deadlock.
	first, second := source, target
	if second.ProcessID < first.ProcessID ||
		(second.ProcessID == first.ProcessID && second.Shift < first.Shift) {
		first, second = second, first
	}

	return db.Transaction(func(tx *gorm.DB) error {
		a, err := resolveSlot(tx, first)
		if err != nil {
			return err
		}
		b, err := resolveSlot(tx, second)
		if err != nil {
			return err
		}

		aWorker, bWorker := a.WorkerID, b.WorkerID
		if err := tx.Model(&models.ShiftSlot{}).Where("id = ?", a.ID).
			Update("worker_id", bWorker).Error; err != nil {
			return fmt.Errorf("layout: swap write %s: %w", first, err)
		}
		if err := tx.Model(&models.ShiftSlot{}).Where("id = ?", b.ID).
			Update("worker_id", aWorker).Error; err != nil {
			return fmt.Errorf("layout: swap write %s: %w", second, err)
		}
		return nil
	})
}

// Assign sets the worker at a coordinate, overwriting any prior occupant
// of that cell. If the worker already occupies a different cell, an
// OccupiedElsewhereError is returned unless force is set, in which case
// the worker is removed from the old cell first.
func Assign(db *gorm.DB, coord Coordinate, workerID string, force bool) error {
	if err := coord.Validate(); err != nil {
		return err
	}
	if workerID == "" {
		return errors.New("layout: worker id is required")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.Worker{}, "worker", workerID); err != nil {
			return err
		}

		slot, err := resolveSlot(tx, coord)
		if err != nil {
			return err
		}

		// Same worker already occupies another cell?
		var other models.ShiftSlot
		err = lockForUpdate(tx).
			Where("worker_id = ? AND id != ?", workerID, slot.ID).
			First(&other).Error
		switch {
		case err == nil:
			if !force {
				loc, locErr := slotCoordinate(tx, &other)
				if locErr != nil {
					return locErr
				}
				return &OccupiedElsewhereError{WorkerID: workerID, Location: loc}
			}
			if err := tx.Model(&models.ShiftSlot{}).Where("id = ?", other.ID).
				Update("worker_id", nil).Error; err != nil {
				return fmt.Errorf("layout: clear prior assignment: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Worker is unassigned, nothing to move.
		default:
			return fmt.Errorf("layout: check prior assignment: %w", err)
		}

		if err := tx.Model(&models.ShiftSlot{}).Where("id = ?", slot.ID).
			Update("worker_id", workerID).Error; err != nil {
			return fmt.Errorf("layout: assign %s: %w", coord, err)
		}
		return nil
	})
}

// Unassign clears the worker at a coordinate.
func Unassign(db *gorm.DB, coord Coordinate) error {
	if err := coord.Validate(); err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		slot, err := resolveSlot(tx, coord)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.ShiftSlot{}).Where("id = ?", slot.ID).
			Update("worker_id", nil).Error; err != nil {
			return fmt.Errorf("layout: unassign %s: %w", coord, err)
		}
		return nil
	})
}

// WorkerLocation returns the coordinate currently occupied by the worker,
// or a NotFoundError if the worker is unassigned.
func WorkerLocation(db *gorm.DB, workerID string) (Coordinate, error) {
	var slot models.ShiftSlot
	err := db.Where("worker_id = ?", workerID).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Coordinate{}, &NotFoundError{Kind: "worker", ID: workerID}
	}
	if err != nil {
		return Coordinate{}, fmt.Errorf("layout: locate worker %s: %w", workerID, err)
	}
	return slotCoordinate(db, &slot)
}

// slotCoordinate rebuilds the full coordinate of a slot row.
func slotCoordinate(tx *gorm.DB, slot *models.ShiftSlot) (Coordinate, error) {
	var proc models.Process
	if err := tx.Where("id = ?", slot.ProcessID).First(&proc).Error; err != nil {
		return Coordinate{}, fmt.Errorf("layout: locate process %s: %w", slot.ProcessID, err)
	}
	return Coordinate{LineID: proc.LineID, ProcessID: proc.ID, Shift: slot.Shift}, nil
}
