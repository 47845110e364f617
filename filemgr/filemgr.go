// Package filemgr stores uploaded images under the static directory: a
// fitted original plus a JPEG thumbnail.
package filemgr

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxSize   = 10 << 20
	DefaultMaxWidth  = 1600
	DefaultMaxHeight = 1600
	ThumbWidth       = 300
)

var (
	AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	AllowedMIMEs      = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

	ErrInvalidExtension = errors.New("invalid file extension")
	ErrInvalidMIME      = errors.New("invalid MIME type")
	ErrFileTooLarge     = errors.New("file size exceeds limit")
	ErrNotAnImage       = errors.New("file is not a decodable image")
)

// Saved names the stored files relative to the static root, with forward
// slashes so they can be used as URL paths.
type Saved struct {
	Original string `json:"original"`
	Thumb    string `json:"thumb"`
}

// Store writes images under Root/<entity>/ and Root/<entity>/thumb/.
type Store struct {
	Root      string
	MaxSize   int64
	MaxWidth  int
	MaxHeight int
}

func NewStore(root string) *Store {
	return &Store{
		Root:      root,
		MaxSize:   DefaultMaxSize,
		MaxWidth:  DefaultMaxWidth,
		MaxHeight: DefaultMaxHeight,
	}
}

// SaveUpload validates and stores a multipart upload for entity.
func (s *Store) SaveUpload(file multipart.File, header *multipart.FileHeader, entity string) (Saved, error) {
	defer file.Close()
	return s.Save(file, header.Filename, entity)
}

// Save decodes r, fits it inside the configured bounds and writes both the
// original and a thumbnail. Animated GIFs keep only their first frame.
func (s *Store) Save(r io.Reader, filename, entity string) (Saved, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !contains(AllowedExtensions, ext) {
		return Saved{}, errors.Wrap(ErrInvalidExtension, ext)
	}

	buf, err := io.ReadAll(io.LimitReader(r, s.MaxSize+1))
	if err != nil {
		return Saved{}, errors.Wrap(err, "read upload")
	}
	if int64(len(buf)) > s.MaxSize {
		return Saved{}, ErrFileTooLarge
	}

	mimeType := http.DetectContentType(buf)
	if !contains(AllowedMIMEs, mimeType) {
		return Saved{}, errors.Wrap(ErrInvalidMIME, mimeType)
	}

	img, format, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return Saved{}, errors.Wrap(ErrNotAnImage, err.Error())
	}

	// Re-encoding drops EXIF. WebP has no encoder here so it is stored as PNG.
	if ext == ".webp" || ext == ".gif" {
		ext = ".png"
	}
	if ext == ".jpeg" {
		ext = ".jpg"
	}

	dir := filepath.Join(s.Root, entity)
	thumbDir := filepath.Join(dir, "thumb")
	if err := os.MkdirAll(thumbDir, 0o755); err != nil {
		return Saved{}, errors.Wrapf(err, "mkdir %s", thumbDir)
	}

	name := uuid.New().String()
	fitted := img
	b := img.Bounds()
	if b.Dx() > s.MaxWidth || b.Dy() > s.MaxHeight {
		fitted = imaging.Fit(img, s.MaxWidth, s.MaxHeight, imaging.Lanczos)
	}
	if err := imaging.Save(fitted, filepath.Join(dir, name+ext), imaging.JPEGQuality(90)); err != nil {
		return Saved{}, errors.Wrap(err, "save original")
	}

	thumb := imaging.Resize(img, ThumbWidth, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(thumbDir, name+".jpg"), imaging.JPEGQuality(85)); err != nil {
		return Saved{}, errors.Wrap(err, "save thumbnail")
	}

	log.WithFields(log.Fields{
		"entity": entity,
		"file":   name + ext,
		"format": format,
		"bytes":  len(buf),
	}).Info("Stored image upload")

	return Saved{
		Original: filepath.ToSlash(filepath.Join(entity, name+ext)),
		Thumb:    filepath.ToSlash(filepath.Join(entity, "thumb", name+".jpg")),
	}, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
