package models

// Worker is an employee who can be assigned to a shift slot. Worker rows
// are owned by the personnel system; this service only reads them.
type Worker struct {
	ID          string `gorm:"primaryKey;size:36"`
	DisplayName string `gorm:"size:64;not null"`
	BadgeNumber string `gorm:"size:32;uniqueIndex"`
}
