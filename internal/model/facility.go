package model

import (
	"time"

	"github.com/google/uuid"
)

// Facility is one venue whose till sessions this back office tracks.
// Read-only to the ledger core — it only scopes sessions.
type Facility struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	Timezone  string    `gorm:"type:varchar(64);not null;default:'America/Argentina/Buenos_Aires'"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
}
