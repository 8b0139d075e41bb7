package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// LocalStorage keeps files under uploadDir/<kind>/ and serves them back
// through the API.
type LocalStorage struct {
	uploadDir string
	baseURL   string
}

func NewLocalStorage(uploadDir, publicBaseURL string) *LocalStorage {
	return &LocalStorage{uploadDir: uploadDir, baseURL: strings.TrimSuffix(publicBaseURL, "/")}
}

func (ls *LocalStorage) url(kind Kind, name string) string {
	return fmt.Sprintf("%s/api/%s/%s", ls.baseURL, kind, name)
}

func (ls *LocalStorage) path(kind Kind, name string) string {
	return filepath.Join(ls.uploadDir, string(kind), name)
}

func (ls *LocalStorage) SaveFile(_ context.Context, kind Kind, fileHeader *multipart.FileHeader, stem string) (FileInfo, error) {
	name := storedName(fileHeader.Filename, stem)
	log.Debug().Str("original", fileHeader.Filename).Str("stored", name).Msg("[storage] local upload normalized")

	dir := filepath.Join(ls.uploadDir, string(kind))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return FileInfo{}, fmt.Errorf("failed to create upload directory: %w", err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to save file: %w", err)
	}
	return FileInfo{Name: name, URL: ls.url(kind, name), Size: n}, nil
}

func (ls *LocalStorage) Open(_ context.Context, kind Kind, name string) (io.ReadCloser, FileInfo, error) {
	if err := checkName(name); err != nil {
		return nil, FileInfo{}, err
	}
	f, err := os.Open(ls.path(kind, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, FileInfo{}, ErrNotFound
		}
		return nil, FileInfo{}, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, FileInfo{}, err
	}
	return f, FileInfo{Name: name, URL: ls.url(kind, name), Size: st.Size(), ModTime: st.ModTime()}, nil
}

func (ls *LocalStorage) Delete(_ context.Context, kind Kind, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := os.Remove(ls.path(kind, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// List returns the stored files, newest first.
func (ls *LocalStorage) List(_ context.Context, kind Kind) ([]FileInfo, error) {
	entries, err := os.ReadDir(filepath.Join(ls.uploadDir, string(kind)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []FileInfo{}, nil
		}
		return nil, err
	}
	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, FileInfo{Name: e.Name(), URL: ls.url(kind, e.Name()), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out, nil
}
