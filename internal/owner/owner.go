package owner

import (
	"time"

	"github.com/google/uuid"
)

type Owner struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	Name      string    `json:"name"`
	Email     string    `gorm:"uniqueIndex" json:"email"`
	GoogleID  string    `gorm:"uniqueIndex" json:"google_id"`
	Phone     *string   `gorm:"uniqueIndex" json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
