package usecase

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labelscan/backend/internal/domain"
)

// PrepareImage checks that the upload is an image and records its sniffed
// content type. The client-declared type is ignored.
func PrepareImage(data []byte, filename string) (*domain.LabelImage, error) {
	if len(data) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	detected := mimetype.Detect(data)
	contentType := strings.TrimSpace(strings.SplitN(detected.String(), ";", 2)[0])
	if !strings.HasPrefix(contentType, "image/") {
		return nil, domain.ErrUnsupportedImage
	}

	return &domain.LabelImage{
		Data:        data,
		ContentType: contentType,
		Filename:    filename,
	}, nil
}
