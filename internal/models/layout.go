package models

import "time"

// Shift identifies the working period of a process slot.
type Shift string

const (
	ShiftDay   Shift = "day"
	ShiftNight Shift = "night"
)

// Shifts lists every shift a process carries, in display order.
var Shifts = []Shift{ShiftDay, ShiftNight}

// Work status values for a shift slot.
const (
	StatusNormal   = "normal"
	StatusOvertime = "overtime"
	StatusExtended = "extended"
)

// Line is a production line composed of ordered process slots.
type Line struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:64;not null"`
	Position  int    `gorm:"not null;index"`
	GroupID   string `gorm:"size:36;index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Processes []Process `gorm:"foreignKey:LineID"`
}

// Process is a named position within a line. Each process exists once
// per shift as a ShiftSlot.
type Process struct {
	ID        string `gorm:"primaryKey;size:36"`
	LineID    string `gorm:"size:36;not null;index"`
	Name      string `gorm:"size:64;not null"`
	Position  int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Slots []ShiftSlot `gorm:"foreignKey:ProcessID"`
}

// ShiftSlot is the concrete per-shift cell of a process: its work status
// and the worker currently assigned, if any.
type ShiftSlot struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	ProcessID string `gorm:"size:36;not null;uniqueIndex:idx_process_shift"`
	Shift     Shift  `gorm:"size:8;not null;uniqueIndex:idx_process_shift"`
	Status    string `gorm:"size:16;default:normal"`
	WorkerID  *string `gorm:"size:36;index"`
	UpdatedAt time.Time
}

// LineGroup classifies lines into display groups.
type LineGroup struct {
	ID       string `gorm:"primaryKey;size:36"`
	Name     string `gorm:"size:64;not null;uniqueIndex"`
	Position int    `gorm:"not null"`
}

// SlotConfig stores instance-level layout configuration, one row per key.
type SlotConfig struct {
	ID    uint   `gorm:"primaryKey;autoIncrement"`
	Key   string `gorm:"size:64;uniqueIndex;not null"`
	Value string `gorm:"size:256;not null"`
}
