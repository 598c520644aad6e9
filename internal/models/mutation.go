package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MutationKind discriminates the two kinds of locally recorded changes.
type MutationKind string

const (
	// MutationScanAssign pairs a scanned lot with a shelf slot chosen on the
	// device. The destination is fixed at capture time.
	MutationScanAssign MutationKind = "scan_assign"
	// MutationHallMove sends a lot to a staging hall. The concrete slot is
	// resolved during sync against fresh occupancy.
	MutationHallMove MutationKind = "hall_move"
)

// AutoWarehouse marks a hall move whose warehouse is picked at sync time:
// first fleet warehouse with a free hall slot wins.
const AutoWarehouse = 0

// PendingMutation is one change recorded on the device that the central
// server has not confirmed yet. Rows are append-only: a mutation is never
// edited, it is stamped SyncedAt once the server accepts it (or the change
// turns out to be moot) and pruned later.
type PendingMutation struct {
	ID              string            `gorm:"primaryKey;type:uuid" json:"id"`
	Seq             int64             `gorm:"autoIncrement;uniqueIndex" json:"seq"`
	Kind            MutationKind      `gorm:"type:varchar(20);not null;index" json:"kind"`
	LotCode         string            `gorm:"type:varchar(100);not null;index" json:"lotCode"`
	FromPos         string            `gorm:"type:varchar(100)" json:"fromPos"`
	ToPos           string            `gorm:"type:varchar(100)" json:"toPos"`
	TargetWarehouse int               `gorm:"default:0" json:"targetWarehouse"`
	WorkOrderID     string            `gorm:"type:varchar(64);index" json:"workOrderId"`
	Actor           string            `gorm:"type:varchar(100)" json:"actor"`
	Quantity        float64           `json:"quantity"`
	Unit            string            `gorm:"type:varchar(20)" json:"unit"`
	Meta            datatypes.JSONMap `gorm:"type:jsonb" json:"meta,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	SyncedAt        *time.Time        `gorm:"index" json:"syncedAt,omitempty"`
}

// TableName specifies the table name
func (PendingMutation) TableName() string {
	return "pending_mutations"
}

// BeforeCreate hook
func (m *PendingMutation) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Resolved reports whether the server has confirmed this mutation.
func (m PendingMutation) Resolved() bool {
	return m.SyncedAt != nil
}
