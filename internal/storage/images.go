package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var ErrBadImage = errors.New("invalid image payload")

// FSImageStore кладёт картинки из data-URL в локальный каталог и
// возвращает публичный путь вида /uploads/<uuid>.<ext>.
type FSImageStore struct {
	dir      string
	basePath string
	maxBytes int
}

func NewFSImageStore(dir string, maxBytes int) (*FSImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = 4 << 20
	}
	return &FSImageStore{dir: dir, basePath: "/uploads", maxBytes: maxBytes}, nil
}

func (s *FSImageStore) Upload(_ context.Context, dataURL string) (string, error) {
	raw, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	if len(raw) > s.maxBytes {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrBadImage, s.maxBytes)
	}

	mt := mimetype.Detect(raw)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: %s is not an image", ErrBadImage, mt.String())
	}

	name := uuid.NewString() + mt.Extension()
	if err := os.WriteFile(filepath.Join(s.dir, name), raw, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	return s.basePath + "/" + name, nil
}

// Dir — каталог для отдачи статики роутером.
func (s *FSImageStore) Dir() string { return s.dir }

// decodeDataURL принимает "data:image/png;base64,..." или голый base64.
func decodeDataURL(v string) ([]byte, error) {
	if i := strings.Index(v, ","); i >= 0 && strings.HasPrefix(v, "data:") {
		v = v[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	return raw, nil
}
