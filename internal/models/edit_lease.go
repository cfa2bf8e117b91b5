package models

import "time"

// EditLease is the singleton edit lock for a resource type. Presence of a
// row means the resource is locked; absence means it is free. At most one
// row exists per resource type.
type EditLease struct {
	ResourceType  string    `gorm:"primaryKey;size:32"`
	OwnerID       string    `gorm:"size:36;not null"`
	OwnerName     string    `gorm:"size:64;not null"`
	AcquiredAt    time.Time `gorm:"not null"`
	LastHeartbeat time.Time `gorm:"not null;index"`
}
