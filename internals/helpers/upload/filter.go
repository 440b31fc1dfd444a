package upload

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// MaxImageSize is the per-file limit for event images.
const MaxImageSize = int64(5 * 1024 * 1024)

var (
	allowedImage = regexp.MustCompile(`jpeg|jpg|png|webp|gif`)
	unsafeChars  = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)
	storedName   = regexp.MustCompile(`^\d+_[A-Za-z0-9._-]+$`)
)

// SafeName replaces every character outside [a-zA-Z0-9._-] with "_".
func SafeName(original string) string {
	return unsafeChars.ReplaceAllString(original, "_")
}

// StoredName is the timestamp-prefixed name a file is stored under.
func StoredName(now time.Time, original string) string {
	return fmt.Sprintf("%d_%s", now.UnixMilli(), SafeName(original))
}

// IsStoredName reports whether name has the StoredName shape.
func IsStoredName(name string) bool {
	return storedName.MatchString(name)
}

// CheckImage accepts jpeg/jpg/png/webp/gif by both extension and declared
// content type, up to maxSize bytes.
func CheckImage(fh *multipart.FileHeader, maxSize int64) error {
	if fh == nil {
		return fiber.NewError(fiber.StatusBadRequest, "File tidak ditemukan")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	ct := strings.ToLower(fh.Header.Get("Content-Type"))
	if !allowedImage.MatchString(ext) || !allowedImage.MatchString(ct) {
		return fiber.NewError(fiber.StatusBadRequest, "Only image files are allowed (jpeg, png, webp, gif)")
	}
	if maxSize > 0 && fh.Size > maxSize {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("File too large (max %d bytes)", maxSize))
	}
	return nil
}

// Uploader picks the image out of a request and writes it to a Store.
type Uploader struct {
	Store        Store
	Field        string
	MaxSize      int64
	PublicPrefix string
	VerifyImage  bool
	Now          func() time.Time
}

func NewUploader(store Store, publicPrefix string) *Uploader {
	return &Uploader{
		Store:        store,
		Field:        "image",
		MaxSize:      MaxImageSize,
		PublicPrefix: publicPrefix,
		Now:          time.Now,
	}
}

// Pick returns the request's image file header, or nil when the request has
// none. A present but unacceptable file is a *fiber.Error.
func (u *Uploader) Pick(c *fiber.Ctx) (*multipart.FileHeader, error) {
	if !IsMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Form multipart tidak valid")
	}
	fhs := form.File[u.Field]
	if len(fhs) == 0 || fhs[0] == nil || fhs[0].Filename == "" {
		return nil, nil
	}
	if len(fhs) > 1 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Only one image is allowed")
	}
	fh := fhs[0]
	if err := CheckImage(fh, u.MaxSize); err != nil {
		return nil, err
	}
	if u.VerifyImage {
		if err := VerifyImageFile(fh); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	return fh, nil
}

// Save writes fh to the store under a fresh timestamped name.
func (u *Uploader) Save(ctx context.Context, fh *multipart.FileHeader) (*StoredFile, error) {
	now := time.Now
	if u.Now != nil {
		now = u.Now
	}
	at := now()
	for attempt := 0; ; attempt++ {
		sf, err := save(ctx, u.Store, StoredName(at, fh.Filename), fh)
		// Same millisecond, same original name: bump the prefix.
		if errors.Is(err, os.ErrExist) && attempt < 3 {
			at = at.Add(time.Millisecond)
			continue
		}
		return sf, err
	}
}

// PublicPath is the URL path a stored file is served under.
func (u *Uploader) PublicPath(filename string) string {
	return path.Join("/", u.PublicPrefix, filename)
}

// IsMultipart menilai request multipart/form-data
func IsMultipart(c *fiber.Ctx) bool {
	ct := strings.ToLower(strings.TrimSpace(c.Get(fiber.HeaderContentType)))
	return strings.HasPrefix(ct, "multipart/form-data")
}
