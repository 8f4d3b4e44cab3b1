package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ForecastRecord is one persisted forecast snapshot. The full snapshot is
// kept as JSON so past forecasts can be replayed without schema churn.
type ForecastRecord struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Location  string         `gorm:"index:idx_location_fetched,priority:1" json:"location"`
	FetchedAt time.Time      `gorm:"index:idx_location_fetched,priority:2" json:"fetched_at"`
	Days      int            `json:"days"`
	Events    int            `json:"events"`
	Payload   datatypes.JSON `json:"payload"`
}
