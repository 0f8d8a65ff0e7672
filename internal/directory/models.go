package directory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListingRecord is the persisted row behind an in-memory listing. The engines
// themselves are ledger-resident; the record is the catalog entry.
type ListingRecord struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ListingID uint64         `gorm:"uniqueIndex;not null" json:"listing_id"`
	Name      string         `gorm:"not null" json:"name"`
	Goal      uint64         `gorm:"not null" json:"goal"`
	Media     datatypes.JSON `json:"media"` // asset metadata document
	Status    string         `gorm:"not null;default:'NEW'" json:"status"`
	Template  int            `gorm:"not null" json:"template_version"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
