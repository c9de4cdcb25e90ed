package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storehub/backend/internal/domain/shared"
)

// imageExtensions maps the accepted upload content types to file extensions
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageUpload is a presigned PUT the client uses to upload one image
type ImageUpload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ImageStorage issues upload URLs for product images and resolves keys to URLs
type ImageStorage interface {
	PresignUpload(ctx context.Context, key, contentType string) (*ImageUpload, error)
	PublicURL(key string) string
	Delete(ctx context.Context, key string) error
}

// NewImageKey builds the object key for a new product image. Keys are
// namespaced by organization so one tenant cannot reference another's objects.
func NewImageKey(organizationID, productID uuid.UUID, contentType string) (string, error) {
	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", shared.ErrInvalidInput.WithMessage("Unsupported image type %q", contentType)
	}
	return fmt.Sprintf("%s/products/%s/%s%s", organizationID, productID, uuid.NewString(), ext), nil
}

// OwnsImageKey reports whether key lives under the organization's namespace
func OwnsImageKey(organizationID uuid.UUID, key string) bool {
	return strings.HasPrefix(key, organizationID.String()+"/")
}
