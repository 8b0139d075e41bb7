package band

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
	"github.com/Nixie-Tech-LLC/bandroom/internal/storage"
)

func (s *Service) SongPdfs(ctx context.Context, songID string) ([]model.SongPdf, error) {
	if _, err := s.store.Songs.Get(ctx, songID); err != nil {
		return nil, err
	}
	pdfs, err := db.Filter(ctx, s.store.SongPdfs, func(p model.SongPdf) bool { return p.SongID == songID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(pdfs, func(i, j int) bool { return pdfs[i].CreatedAt.Before(pdfs[j].CreatedAt) })
	return pdfs, nil
}

// AddSongPdf records a sheet already written to storage. When the record
// cannot be created the file is removed again.
func (s *Service) AddSongPdf(ctx context.Context, userID, songID, name string, file storage.FileInfo) (model.SongPdf, error) {
	if _, err := s.store.Songs.Get(ctx, songID); err != nil {
		s.removeFile(ctx, storage.KindPDF, file.Name)
		return model.SongPdf{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = file.Name
	}
	p := model.SongPdf{
		ID:         s.newID(),
		SongID:     songID,
		Name:       name,
		Filename:   file.Name,
		URL:        file.URL,
		UploadedBy: userID,
		CreatedAt:  s.now(),
	}
	if err := s.store.SongPdfs.Create(ctx, p); err != nil {
		s.removeFile(ctx, storage.KindPDF, file.Name)
		return model.SongPdf{}, err
	}
	return p, nil
}

func (s *Service) DeleteSongPdf(ctx context.Context, userID, songID, pdfID string) error {
	song, err := s.store.Songs.Get(ctx, songID)
	if err != nil {
		return err
	}
	p, err := s.store.SongPdfs.Get(ctx, pdfID)
	if err != nil {
		return err
	}
	if p.SongID != songID {
		return fmt.Errorf("pdf %s of song %s: %w", pdfID, songID, db.ErrNotFound)
	}
	if p.UploadedBy != userID {
		if err := s.canManage(ctx, userID, song); err != nil {
			return err
		}
	}
	if err := s.store.SongPdfs.Delete(ctx, pdfID); err != nil {
		return err
	}
	s.removeFile(ctx, storage.KindPDF, p.Filename)
	return nil
}
