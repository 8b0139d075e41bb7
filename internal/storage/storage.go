package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Kind selects the folder a file is stored in and the types it accepts.
type Kind string

const (
	KindAudio Kind = "audio"
	KindMedia Kind = "media"
	KindPDF   Kind = "pdfs"
)

const MaxUploadSize = 50 << 20

var (
	ErrNotFound        = errors.New("file not found")
	ErrTooLarge        = errors.New("file exceeds the 50MB limit")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInvalidName     = errors.New("invalid file name")
)

var audioTypes = map[string]bool{
	"audio/mpeg": true,
	"audio/mp3":  true,
	"audio/wav":  true,
	"audio/ogg":  true,
	"audio/m4a":  true,
}

type FileInfo struct {
	Name    string    `json:"filename"`
	URL     string    `json:"url"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modifiedAt"`
}

type Storage interface {
	// SaveFile stores the upload under kind. A non-empty stem replaces the
	// original base name; otherwise the name is normalized and timestamped.
	SaveFile(ctx context.Context, kind Kind, fileHeader *multipart.FileHeader, stem string) (FileInfo, error)
	Open(ctx context.Context, kind Kind, name string) (io.ReadCloser, FileInfo, error)
	Delete(ctx context.Context, kind Kind, name string) error
	List(ctx context.Context, kind Kind) ([]FileInfo, error)
}

// Validate checks the declared content type and size of an upload.
func Validate(kind Kind, fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxUploadSize {
		return ErrTooLarge
	}
	ct := strings.ToLower(fileHeader.Header.Get("Content-Type"))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	var ok bool
	switch kind {
	case KindAudio:
		ok = audioTypes[ct]
	case KindMedia:
		ok = strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/")
	case KindPDF:
		ok = ct == "application/pdf"
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, ct)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func cleanBase(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeChars.ReplaceAllString(name, "")
	if name == "" {
		name = "file"
	}
	return name
}

// normalizeFilename creates a unique, normalized filename without spaces
func normalizeFilename(originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	baseName := cleanBase(strings.TrimSuffix(originalFilename, ext))
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s%s", baseName, timestamp, strings.ToLower(ext))
}

// storedName decides the final file name of an upload.
func storedName(original, stem string) string {
	if stem == "" {
		return normalizeFilename(original)
	}
	return cleanBase(stem) + strings.ToLower(filepath.Ext(original))
}

// checkName rejects anything that is not a plain file name.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}

func getContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".m4a":
		return "audio/m4a"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

func ContentType(filename string) string { return getContentType(filename) }
