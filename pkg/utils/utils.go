package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ErrNoFile       = errors.New("no file uploaded")
	ErrFileTooLarge = errors.New("file size exceeds limit")
	ErrNotAnImage   = errors.New("uploaded file is not an image")
)

const (
	DefaultBaseName  = "safefriends-image"
	DefaultExtension = "png"
	maxExtensionLen  = 5
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	ReadFile(file *multipart.FileHeader) ([]byte, error)
}

type utils struct {
	maxFileSize int64
}

func New() IUtils {
	return &utils{
		maxFileSize: 20 * 1024 * 1024,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrNoFile
	}

	if file.Size > u.maxFileSize {
		return ErrFileTooLarge
	}

	if strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return nil
	}

	// Browsers and scripts often send application/octet-stream, so the
	// declared type alone is not enough to turn a file away.
	if !strings.HasPrefix(sniffContentType(file), "image/") {
		return ErrNotAnImage
	}
	return nil
}

func sniffContentType(file *multipart.FileHeader) string {
	src, err := file.Open()
	if err != nil {
		return ""
	}
	defer src.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(src, head)
	if n == 0 {
		return ""
	}
	return http.DetectContentType(head[:n])
}

func (u *utils) ReadFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, u.maxFileSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > u.maxFileSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

// DataURL encodes data as a base64 data: URL. The content type is sniffed
// when empty.
func DataURL(data []byte, contentType string) string {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
}

// EditedFileName derives the save-as name of a processed image: the original
// base name with an "-edited" suffix. The extension is the original's, else
// the image URL's, else png. Extensions longer than five characters are
// ignored.
func EditedFileName(originalName, imageURL string) string {
	base := DefaultBaseName
	if originalName != "" {
		base = stripExtension(originalName)
	}

	ext := DefaultExtension
	if e, ok := nameExtension(originalName); ok {
		ext = e
	} else if e, ok := urlExtension(imageURL); ok {
		ext = e
	}

	return fmt.Sprintf("%s-edited.%s", base, ext)
}

func stripExtension(name string) string {
	i := strings.LastIndex(name, ".")
	if i <= 0 || strings.ContainsAny(name[i+1:], "/.") || i == len(name)-1 {
		return name
	}
	return name[:i]
}

func nameExtension(name string) (string, bool) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return "", false
	}
	ext := name[i+1:]
	return ext, ext != "" && len(ext) <= maxExtensionLen
}

func urlExtension(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(raw, "?#"); i >= 0 {
		p = raw[:i]
	}
	ext := strings.TrimPrefix(path.Ext(p), ".")
	return ext, ext != "" && len(ext) <= maxExtensionLen
}

// WithQuery returns raw with key set to value. Unparseable input is
// returned unchanged.
func WithQuery(raw, key, value string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return raw
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
