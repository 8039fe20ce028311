package models

import "time"

// Well-known task ids, seeded by the migrations. The scheduler dispatches on
// these.
const (
	TaskExportCatalog uint = 1
	TaskPushStock     uint = 2
)

// Task is a named synchronization capability. Largely static reference data.
type Task struct {
	ID          uint   `gorm:"column:id;primaryKey"`
	Name        string `gorm:"column:name"`
	Summary     string `gorm:"column:summary"`
	Description string `gorm:"column:description"`
	Concurrent  bool   `gorm:"column:concurrent"`
	Active      bool   `gorm:"column:active"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM
func (Task) TableName() string {
	return "tasks"
}
