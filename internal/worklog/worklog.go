// Package worklog records work sessions on shift slots. A slot has at
// most one open session; starting a second one is a conflict surfaced to
// the caller rather than retried.
package worklog

import (
	"errors"
	"fmt"
	"time"

	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/layout"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/models"
	"gorm.io/gorm"
)

// OpenLogError reports that the slot already has an open work session.
type OpenLogError struct {
	LogID    uint
	WorkerID string
}

func (e *OpenLogError) Error() string {
	return fmt.Sprintf("worklog: session %d already open (worker %q)", e.LogID, e.WorkerID)
}

// Start opens a work session for the worker at a coordinate. Fails with
// an OpenLogError if the slot already has an open session.
func Start(db *gorm.DB, coord layout.Coordinate, workerID, status string) (*models.WorkLog, error) {
	if err := coord.Validate(); err != nil {
		return nil, err
	}
	if workerID == "" {
		return nil, errors.New("worklog: worker id is required")
	}
	if status == "" {
		status = models.StatusNormal
	}

	var created models.WorkLog

	err := db.Transaction(func(tx *gorm.DB) error {
		var proc models.Process
		err := tx.Where("id = ? AND line_id = ?", coord.ProcessID, coord.LineID).First(&proc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &layout.NotFoundError{Kind: "process", ID: coord.ProcessID}
		}
		if err != nil {
			return fmt.Errorf("resolve process: %w", err)
		}

		var open models.WorkLog
		err = tx.Where("process_id = ? AND shift = ? AND ended_at IS NULL", coord.ProcessID, coord.Shift).
			First(&open).Error
		if err == nil {
			return &OpenLogError{LogID: open.ID, WorkerID: open.WorkerID}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check open session: %w", err)
		}

		created = models.WorkLog{
			ProcessID: coord.ProcessID,
			Shift:     coord.Shift,
			WorkerID:  workerID,
			Status:    status,
			StartedAt: time.Now(),
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
	if err != nil {
		var open *OpenLogError
		var nf *layout.NotFoundError
		if errors.As(err, &open) || errors.As(err, &nf) {
			return nil, err
		}
		return nil, fmt.Errorf("worklog: start at %s: %w", coord, err)
	}
	return &created, nil
}

// Stop closes the open session at a coordinate and returns it.
func Stop(db *gorm.DB, coord layout.Coordinate) (*models.WorkLog, error) {
	if err := coord.Validate(); err != nil {
		return nil, err
	}

	var closed models.WorkLog

	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("process_id = ? AND shift = ? AND ended_at IS NULL", coord.ProcessID, coord.Shift).
			First(&closed).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &layout.NotFoundError{Kind: "slot", ID: coord.String()}
		}
		if err != nil {
			return fmt.Errorf("find open session: %w", err)
		}

		now := time.Now()
		if err := tx.Model(&models.WorkLog{}).Where("id = ?", closed.ID).
			Update("ended_at", now).Error; err != nil {
			return fmt.Errorf("close session %d: %w", closed.ID, err)
		}
		closed.EndedAt = &now
		return nil
	})
	if err != nil {
		var nf *layout.NotFoundError
		if errors.As(err, &nf) {
			return nil, err
		}
		return nil, fmt.Errorf("worklog: stop at %s: %w", coord, err)
	}
	return &closed, nil
}

// History lists the closed sessions at a coordinate, newest first.
func History(db *gorm.DB, coord layout.Coordinate, limit int) ([]models.WorkLog, error) {
	if err := coord.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	var logs []models.WorkLog
	if err := db.Where("process_id = ? AND shift = ? AND ended_at IS NOT NULL", coord.ProcessID, coord.Shift).
		Order("started_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("worklog: history at %s: %w", coord, err)
	}
	return logs, nil
}
