// Package lease implements the exclusive edit lock that gates structural
// layout edits to a single administrator at a time.
package lease

import (
	"errors"
	"fmt"
	"time"

	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/models"
	"gorm.io/gorm"
)

// ResourceLayout is the resource type guarding the line/process structure.
const ResourceLayout = "layout"

// DefaultTimeout is the duration after which a lease's heartbeat is
// considered stale and the lock can be reclaimed.
const DefaultTimeout = 90 * time.Second

// ErrNotHeld is returned when releasing or renewing a lease the caller
// does not hold.
var ErrNotHeld = errors.New("lease: not held by caller")

// HeldError reports that another owner currently holds the lease.
type HeldError struct {
	OwnerName string
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("lease: held by %q", e.OwnerName)
}

// State is the viewer-facing lock state.
type State string

const (
	StateFree          State = "free"
	StateEditingSelf   State = "editing_self"
	StateLockedByOther State = "locked_by_other"
)

// Status describes the lock from one viewer's perspective.
type Status struct {
	State      State     `json:"state"`
	OwnerName  string    `json:"owner_name,omitempty"`
	AcquiredAt time.Time `json:"acquired_at,omitempty"`
}

// Acquire attempts to take the edit lease for resourceType. Inside one
// transaction it expires a stale lease (heartbeat older than timeout),
// then creates the lease row if the resource is free. Re-acquiring a
// lease the caller already holds refreshes its heartbeat. Returns a
// HeldError if another live owner holds the lease.
func Acquire(db *gorm.DB, resourceType, ownerID, ownerName string, timeout time.Duration) (*models.EditLease, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("lease: owner id is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var acquired models.EditLease

	err := db.Transaction(func(tx *gorm.DB) error {
		cutoff := time.Now().Add(-timeout)

		// Expire a stale lease so a crashed editor does not wedge the
		// resource forever.
		if err := tx.Where("resource_type = ? AND last_heartbeat < ?", resourceType, cutoff).
			Delete(&models.EditLease{}).Error; err != nil {
			return fmt.Errorf("expire stale lease: %w", err)
		}

		var existing models.EditLease
		result := tx.Where("resource_type = ?", resourceType).First(&existing)
		if result.Error == nil {
			if existing.OwnerID != ownerID {
				return &HeldError{OwnerName: existing.OwnerName}
			}
			// Already ours: refresh the heartbeat.
			now := time.Now()
			if err := tx.Model(&models.EditLease{}).
				Where("resource_type = ?", resourceType).
				Update("last_heartbeat", now).Error; err != nil {
				return fmt.Errorf("refresh lease: %w", err)
			}
			existing.LastHeartbeat = now
			acquired = existing
			return nil
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check existing lease: %w", result.Error)
		}

		now := time.Now()
		acquired = models.EditLease{
			ResourceType:  resourceType,
			OwnerID:       ownerID,
			OwnerName:     ownerName,
			AcquiredAt:    now,
			LastHeartbeat: now,
		}
		if err := tx.Create(&acquired).Error; err != nil {
			return fmt.Errorf("create lease: %w", err)
		}
		return nil
	})
	if err != nil {
		var held *HeldError
		if errors.As(err, &held) {
			return nil, held
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Two acquires both passed the existence check and raced to
			// insert; the primary key picked the winner. Report the loser
			// the same held error a later arrival would get.
			var winner models.EditLease
			if db.Where("resource_type = ?", resourceType).First(&winner).Error == nil {
				return nil, &HeldError{OwnerName: winner.OwnerName}
			}
			return nil, &HeldError{}
		}
		return nil, fmt.Errorf("lease: acquire %s: %w", resourceType, err)
	}
	return &acquired, nil
}

// Release deletes the lease row if the caller owns it.
func Release(db *gorm.DB, resourceType, ownerID string) error {
	result := db.Where("resource_type = ? AND owner_id = ?", resourceType, ownerID).
		Delete(&models.EditLease{})
	if result.Error != nil {
		return fmt.Errorf("lease: release %s: %w", resourceType, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotHeld
	}
	return nil
}

// Renew refreshes the heartbeat of a lease the caller holds.
func Renew(db *gorm.DB, resourceType, ownerID string) error {
	result := db.Model(&models.EditLease{}).
		Where("resource_type = ? AND owner_id = ?", resourceType, ownerID).
		Update("last_heartbeat", time.Now())
	if result.Error != nil {
		return fmt.Errorf("lease: renew %s: %w", resourceType, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotHeld
	}
	return nil
}

// StatusFor derives the lock state as seen by viewerID. A missing or
// stale lease reads as free.
func StatusFor(db *gorm.DB, resourceType, viewerID string, timeout time.Duration) (Status, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var l models.EditLease
	err := db.Where("resource_type = ?", resourceType).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Status{State: StateFree}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("lease: status %s: %w", resourceType, err)
	}

	if time.Since(l.LastHeartbeat) > timeout {
		return Status{State: StateFree}, nil
	}
	if l.OwnerID == viewerID {
		return Status{State: StateEditingSelf, OwnerName: l.OwnerName, AcquiredAt: l.AcquiredAt}, nil
	}
	return Status{State: StateLockedByOther, OwnerName: l.OwnerName, AcquiredAt: l.AcquiredAt}, nil
}

// SweepStale deletes leases whose heartbeat is older than timeout, across
// all resource types. Returns the number of leases removed.
func SweepStale(db *gorm.DB, timeout time.Duration) (int64, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cutoff := time.Now().Add(-timeout)
	result := db.Where("last_heartbeat < ?", cutoff).Delete(&models.EditLease{})
	if result.Error != nil {
		return 0, fmt.Errorf("lease: sweep stale: %w", result.Error)
	}
	return result.RowsAffected, nil
}
