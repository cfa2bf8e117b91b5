package models

import "time"

// WorkLog records a work session on a shift slot. A slot has at most one
// open log (EndedAt null) at a time.
type WorkLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	ProcessID string    `gorm:"size:36;not null;index:idx_worklog_slot"`
	Shift     Shift     `gorm:"size:8;not null;index:idx_worklog_slot"`
	WorkerID  string    `gorm:"size:36;not null;index"`
	Status    string    `gorm:"size:16;default:normal"`
	StartedAt time.Time `gorm:"not null"`
	EndedAt   *time.Time
}
