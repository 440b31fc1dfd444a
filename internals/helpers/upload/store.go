// Package upload accepts a single image from a multipart request, checks it,
// and hands it to a storage backend (local disk, Aliyun OSS or S3).
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"
)

var ErrUnknownDriver = errors.New("upload: unknown storage driver")

// StoredFile describes an uploaded file after it was written to a backend.
type StoredFile struct {
	Filename     string
	OriginalName string
	MimeType     string
	Size         int64
}

// Object is one entry returned by a Lister.
type Object struct {
	Name    string
	ModTime time.Time
}

// Store persists uploaded bytes under a generated filename and removes them
// again by that filename.
type Store interface {
	Put(ctx context.Context, filename, contentType string, r io.Reader, size int64) error
	Remove(ctx context.Context, filename string) error
}

// Lister is implemented by stores that can enumerate what they hold. The
// orphan reaper needs it.
type Lister interface {
	List(ctx context.Context) ([]Object, error)
}

type Options struct {
	Driver string // disk | oss | s3
	Dir    string // disk
	Prefix string // object key prefix for oss/s3

	OSS OSSConfig
	S3  S3Config
}

// New builds the Store selected by opt.Driver.
func New(ctx context.Context, opt Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opt.Driver)) {
	case "", "disk":
		return NewDiskStore(opt.Dir)
	case "oss":
		return NewOSSStore(opt.OSS, opt.Prefix)
	case "s3":
		return NewS3Store(ctx, opt.S3, opt.Prefix)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opt.Driver)
	}
}

func save(ctx context.Context, s Store, filename string, fh *multipart.FileHeader) (*StoredFile, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	ct := fh.Header.Get("Content-Type")
	if err := s.Put(ctx, filename, ct, src, fh.Size); err != nil {
		return nil, err
	}
	return &StoredFile{
		Filename:     filename,
		OriginalName: fh.Filename,
		MimeType:     ct,
		Size:         fh.Size,
	}, nil
}

func objectKey(prefix, filename string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return filename
	}
	return prefix + "/" + filename
}
