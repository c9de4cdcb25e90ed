package storage

import (
	"context"

	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/shared"
)

// ErrStorageDisabled is returned for uploads when no bucket is configured
var ErrStorageDisabled = shared.ErrInvalidInput.WithMessage("Image uploads are not configured")

// DisabledImageStorage is used when storage.enabled=false. Keys already
// stored on products are returned as-is, so absolute URLs keep working.
type DisabledImageStorage struct{}

// PresignUpload always fails
func (DisabledImageStorage) PresignUpload(context.Context, string, string) (*catalog.ImageUpload, error) {
	return nil, ErrStorageDisabled
}

// PublicURL returns key unchanged
func (DisabledImageStorage) PublicURL(key string) string {
	return key
}

// Delete is a no-op
func (DisabledImageStorage) Delete(context.Context, string) error {
	return nil
}

var _ catalog.ImageStorage = DisabledImageStorage{}
