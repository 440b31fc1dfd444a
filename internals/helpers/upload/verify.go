package upload

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/chai2010/webp"
)

// VerifyImageFile decodes the header of an uploaded file to make sure the
// bytes really are an image and not just a file with an image extension.
func VerifyImageFile(fh *multipart.FileHeader) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()
	return VerifyImage(src)
}

func VerifyImage(r io.Reader) error {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return fmt.Errorf("read upload: %w", err)
	}
	if len(head) == 0 {
		return fmt.Errorf("empty file")
	}

	ct := http.DetectContentType(head)
	var cfg image.Config
	switch {
	case isWebP(head):
		cfg, err = webp.DecodeConfig(br)
	case strings.HasPrefix(ct, "image/"):
		cfg, _, err = image.DecodeConfig(br)
	default:
		return fmt.Errorf("file is not an image (%s)", ct)
	}
	if err != nil {
		return fmt.Errorf("corrupt image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("image has no pixels")
	}
	return nil
}

// isWebP reports whether b starts with a RIFF/WEBP header.
func isWebP(b []byte) bool {
	return len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP"))
}
