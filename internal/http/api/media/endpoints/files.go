package endpoints

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/bandroom/internal/band"
	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api"
	"github.com/Nixie-Tech-LLC/bandroom/internal/metrics"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
	"github.com/Nixie-Tech-LLC/bandroom/internal/storage"
)

type MediaController struct {
	svc   *band.Service
	files storage.Storage
}

type UploadResponse struct {
	storage.FileInfo
	Song *model.Song `json:"song,omitempty"`
}

// MediaPublicModule serves stored files and the health probe. Audio players
// and <img> tags cannot send a bearer token, so reads stay public.
func MediaPublicModule(files storage.Storage) api.Module {
	ctl := &MediaController{files: files}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/health", ctl.health)
		c.Raw(http.MethodGet, "/audio/:filename", ctl.serve(storage.KindAudio))
		c.Raw(http.MethodGet, "/media/:filename", ctl.serve(storage.KindMedia))
		c.Raw(http.MethodGet, "/pdfs/:filename", ctl.serve(storage.KindPDF))
	})
}

// MediaModule mounts the authenticated upload endpoints.
func MediaModule(svc *band.Service, files storage.Storage) api.Module {
	ctl := &MediaController{svc: svc, files: files}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/upload/audio", ctl.uploadAudio)
		c.DELETE("/audio/:filename", ctl.deleteFile(storage.KindAudio))
		c.POST("/upload/media", ctl.uploadMedia)
		c.GET("/media", ctl.listMedia)
		c.DELETE("/media/:filename", ctl.deleteFile(storage.KindMedia))
	})
}

// GET /api/health
func (m *MediaController) health(_ *gin.Context) (any, *api.APIError) {
	return gin.H{"status": "ok"}, nil
}

// save validates and stores the multipart field under kind.
func (m *MediaController) save(ctx *gin.Context, kind storage.Kind, field, stem string) (storage.FileInfo, *api.APIError) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		return storage.FileInfo{}, &api.APIError{Code: http.StatusBadRequest, Message: "no file uploaded"}
	}
	if err := storage.Validate(kind, fh); err != nil {
		metrics.Uploads.WithLabelValues(string(kind), "rejected").Inc()
		log.Info().Err(err).Str("kind", string(kind)).Str("file", fh.Filename).Msg("[media] upload rejected")
		return storage.FileInfo{}, api.FromError(err)
	}
	info, err := m.files.SaveFile(ctx.Request.Context(), kind, fh, stem)
	if err != nil {
		metrics.Uploads.WithLabelValues(string(kind), "error").Inc()
		log.Error().Err(err).Str("kind", string(kind)).Msg("[media] save failed")
		return storage.FileInfo{}, api.FromError(err)
	}
	metrics.Uploads.WithLabelValues(string(kind), "ok").Inc()
	return info, nil
}

// POST /api/upload/audio, field "audioFile"; songId names the file and links
// it to the song when one exists.
func (m *MediaController) uploadAudio(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	songID := ctx.Query("songId")
	if songID == "" {
		songID = ctx.PostForm("songId")
	}

	info, apiErr := m.save(ctx, storage.KindAudio, "audioFile", songID)
	if apiErr != nil {
		return nil, apiErr
	}
	res := UploadResponse{FileInfo: info}
	if songID == "" {
		return res, nil
	}

	song, err := m.svc.SetSongAudio(ctx.Request.Context(), songID, info.URL)
	switch {
	case err == nil:
		res.Song = &song
	case errors.Is(err, db.ErrNotFound):
		log.Debug().Str("song", songID).Msg("[media] uploadAudio: no song to link")
	default:
		log.Warn().Err(err).Str("song", songID).Msg("[media] uploadAudio: could not link song")
	}
	return res, nil
}

// POST /api/upload/media, field "mediaFile"
func (m *MediaController) uploadMedia(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	info, apiErr := m.save(ctx, storage.KindMedia, "mediaFile", "")
	if apiErr != nil {
		return nil, apiErr
	}
	return UploadResponse{FileInfo: info}, nil
}

// GET /api/media
func (m *MediaController) listMedia(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	files, err := m.files.List(ctx.Request.Context(), storage.KindMedia)
	if err != nil {
		return nil, api.FromError(err)
	}
	return files, nil
}

// DELETE /api/{audio,media}/:filename
func (m *MediaController) deleteFile(kind storage.Kind) api.HandlerFuncWithAuth {
	return func(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
		if err := m.files.Delete(ctx.Request.Context(), kind, ctx.Param("filename")); err != nil {
			return nil, api.FromError(err)
		}
		return gin.H{"message": "file deleted"}, nil
	}
}

// GET /api/{audio,media,pdfs}/:filename
func (m *MediaController) serve(kind storage.Kind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		name := ctx.Param("filename")
		rc, info, err := m.files.Open(ctx.Request.Context(), kind, name)
		if err != nil {
			apiErr := api.FromError(err)
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}
		defer rc.Close()
		ctx.DataFromReader(http.StatusOK, info.Size, storage.ContentType(name), rc, nil)
	}
}
