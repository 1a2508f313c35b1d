package documents

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	ID           uuid.UUID  `json:"id"`
	VehicleID    uuid.UUID  `json:"vehicle_id"`
	Type         string     `json:"type"`
	Name         string     `json:"name"`
	DocumentURL  string     `json:"document_url"`
	StorageKey   string     `json:"-"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	ReminderSent bool       `json:"reminder_sent"`
	UploadedBy   uuid.UUID  `json:"uploaded_by"`
	CreatedAt    time.Time  `json:"created_at"`
}
