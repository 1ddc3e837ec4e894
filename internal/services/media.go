package services

import (
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

// MediaStore keeps uploaded post images on local disk under Root.
type MediaStore struct {
	Root     string
	MaxBytes int64
}

func NewMediaStore(root string, maxUploadMB int64) *MediaStore {
	if maxUploadMB <= 0 {
		maxUploadMB = 5
	}
	return &MediaStore{Root: root, MaxBytes: maxUploadMB << 20}
}

// imageExt maps a decoded image format to the extension it is stored with.
var imageExt = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

// maxPixels bounds the decoded size of an upload.
const maxPixels = 40 << 20

const invalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// Save validates the upload as an image and stores it as posts/<uuid><ext>.
// The extension follows the decoded format, never the client's file name.
// The returned path is relative to Root and uses forward slashes.
func (m *MediaStore) Save(header *multipart.FileHeader) (string, error) {
	if header.Size > m.MaxBytes {
		return "", fieldError("image", fmt.Sprintf("Image is larger than %d MB.", m.MaxBytes>>20))
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	cfg, format, err := image.DecodeConfig(src)
	if err != nil {
		return "", fieldError("image", invalidImage)
	}
	ext, ok := imageExt[format]
	if !ok || cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxPixels {
		return "", fieldError("image", invalidImage)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	if _, _, err := image.Decode(src); err != nil {
		return "", fieldError("image", invalidImage)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	rel := path.Join("posts", uuid.NewString()+ext)

	dst := filepath.Join(m.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("write media file: %w", err)
	}
	return rel, nil
}

// Remove deletes a stored file; a missing file is not an error.
func (m *MediaStore) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(m.Root, filepath.FromSlash(rel)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// URL is the public address of a stored file.
func URL(rel string) string {
	if rel == "" {
		return ""
	}
	return "/media/" + rel
}
