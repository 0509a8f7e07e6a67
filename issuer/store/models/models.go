package models

import (
	"time"

	"gorm.io/gorm"
)

// SerialCounter per-CA running serial; Next holds the next serial in hex
type SerialCounter struct {
	gorm.Model

	CAKeyID string `gorm:"uniqueIndex;size:64" validate:"required"`
	Next    string `gorm:"size:64" validate:"required"`
}

// Issuance one row per issued certificate, the CA's index database
type Issuance struct {
	gorm.Model

	ID      string `gorm:"primaryKey;size:37" validate:"required"`
	CAKeyID string `gorm:"index;size:64" validate:"required"`
	Serial  string `gorm:"size:64" validate:"required"`

	CN     string `gorm:"size:256"`
	Status string `gorm:"size:10"`

	NotBefore time.Time
	NotAfter  time.Time
}
