package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api"
	"github.com/Nixie-Tech-LLC/bandroom/internal/metrics"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
	"github.com/Nixie-Tech-LLC/bandroom/internal/storage"
)

// GET /api/songs/:id/pdfs
func (s *SongController) listPdfs(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	pdfs, err := s.svc.SongPdfs(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return pdfs, nil
}

// POST /api/songs/:id/pdfs, multipart field "pdfFile" and optional "name"
func (s *SongController) uploadPdf(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	fh, err := ctx.FormFile("pdfFile")
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "no file uploaded"}
	}
	if err := storage.Validate(storage.KindPDF, fh); err != nil {
		metrics.Uploads.WithLabelValues(string(storage.KindPDF), "rejected").Inc()
		return nil, api.FromError(err)
	}

	info, err := s.files.SaveFile(ctx.Request.Context(), storage.KindPDF, fh, "")
	if err != nil {
		metrics.Uploads.WithLabelValues(string(storage.KindPDF), "error").Inc()
		log.Error().Err(err).Str("song", ctx.Param("id")).Msg("[songs] uploadPdf: save failed")
		return nil, api.FromError(err)
	}
	metrics.Uploads.WithLabelValues(string(storage.KindPDF), "ok").Inc()

	pdf, err := s.svc.AddSongPdf(ctx.Request.Context(), user.ID, ctx.Param("id"), ctx.PostForm("name"), info)
	if err != nil {
		return nil, api.FromError(err)
	}
	return api.Created{Body: pdf}, nil
}

// DELETE /api/songs/:id/pdfs/:pdfId
func (s *SongController) deletePdf(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if err := s.svc.DeleteSongPdf(ctx.Request.Context(), user.ID, ctx.Param("id"), ctx.Param("pdfId")); err != nil {
		return nil, api.FromError(err)
	}
	return api.NoContent{}, nil
}
