package documents

import "github.com/google/uuid"

// UploadRequest carries the multipart form fields of an upload.
type UploadRequest struct {
	VehicleID   uuid.UUID `validate:"required"`
	Type        string    `validate:"required,max=50"`
	Name        string    `validate:"max=255"`
	ExpiryDate  string    `validate:"omitempty,datetime=2006-01-02"`
	Filename    string    `validate:"required"`
	ContentType string
	Body        []byte `validate:"required,min=1"`
}
