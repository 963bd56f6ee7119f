package media

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// AttachmentPath returns the deterministic store path for an entity's image.
// order is only used for photos. The extension comes from filename, which
// after compression is always .jpg.
func AttachmentPath(kind EntityKind, slug string, order int, filename string) (string, error) {
	if slug == "" || strings.ContainsAny(slug, `/\`) || slug == "." || slug == ".." {
		return "", fmt.Errorf("invalid slug %q for attachment path", slug)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = encodedExtension
	}

	switch kind {
	case KindPhoto:
		return path.Join("albums", slug, "photos", fmt.Sprintf("%04d%s", order, ext)), nil
	case KindAlbumCover:
		return path.Join("albums", slug, "cover", "cover"+ext), nil
	case KindCategoryCover:
		return path.Join("categories", slug, "cover"+ext), nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}

// ContentTypeFor guesses the content type from a stored path's extension.
func ContentTypeFor(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
