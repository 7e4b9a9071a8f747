package utils

import (
	"context"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// MediaStore persists an uploaded post or story asset and returns its public URL.
type MediaStore interface {
	Put(ctx context.Context, folder string, fileHeader *multipart.FileHeader) (string, error)
}

// ObjectKey builds "<folder>/<slugged-name>-<id><ext>" for an upload. The random suffix
// keeps keys unique when two uploads share a filename.
func ObjectKey(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if base == "" {
		base = "media"
	}
	if len(base) > 48 {
		base = strings.Trim(base[:48], "-")
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	folder = strings.Trim(slug.Make(folder), "/")
	if folder == "" {
		folder = "media"
	}
	return folder + "/" + base + "-" + id + ext
}
