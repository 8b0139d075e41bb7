package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/bandroom/internal/band"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api/band/packets"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
	"github.com/Nixie-Tech-LLC/bandroom/internal/storage"
)

type SongController struct {
	svc   *band.Service
	files storage.Storage
}

func SongModule(svc *band.Service, files storage.Storage) api.Module {
	ctl := &SongController{svc: svc, files: files}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/songs", ctl.listSongs)
		c.POST("/songs", ctl.createSong)
		c.POST("/songs/import/text", ctl.importText)
		c.POST("/songs/import/json", ctl.importJSON)
		c.GET("/songs/:id", ctl.getSong)
		c.PUT("/songs/:id", ctl.updateSong)
		c.DELETE("/songs/:id", ctl.deleteSong)
		c.POST("/songs/:id/enrich", ctl.enrichSong)

		c.GET("/songs/:id/pdfs", ctl.listPdfs)
		c.POST("/songs/:id/pdfs", ctl.uploadPdf)
		c.DELETE("/songs/:id/pdfs/:pdfId", ctl.deletePdf)
	})
}

// GET /api/songs?group=<id>&playable=true
func (s *SongController) listSongs(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	filter := band.SongFilter{
		GroupID:      ctx.Query("group"),
		PlayableOnly: ctx.Query("playable") == "true",
	}
	songs, err := s.svc.ListSongs(ctx.Request.Context(), user.ID, filter)
	if err != nil {
		return nil, api.FromError(err)
	}
	return songs, nil
}

// POST /api/songs
func (s *SongController) createSong(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.SongRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	res, err := s.svc.AddSong(ctx.Request.Context(), user.ID, req.Input())
	if err != nil {
		return nil, api.FromError(err)
	}
	return api.Created{Body: res}, nil
}

// POST /api/songs/import/text
func (s *SongController) importText(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.ImportTextRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	res, err := s.svc.ImportText(ctx.Request.Context(), user.ID, req.GroupID, req.Text)
	if err != nil {
		return nil, api.FromError(err)
	}
	return api.Created{Body: res}, nil
}

// POST /api/songs/import/json
func (s *SongController) importJSON(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.ImportJSONRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	res, err := s.svc.ImportJSON(ctx.Request.Context(), user.ID, req.GroupID, req.Songs)
	if err != nil {
		return nil, api.FromError(err)
	}
	return api.Created{Body: res}, nil
}

// GET /api/songs/:id
func (s *SongController) getSong(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	song, err := s.svc.Song(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return song, nil
}

// PUT /api/songs/:id
func (s *SongController) updateSong(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.UpdateSongRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	song, err := s.svc.UpdateSong(ctx.Request.Context(), user.ID, ctx.Param("id"), req.Patch())
	if err != nil {
		return nil, api.FromError(err)
	}
	return song, nil
}

// DELETE /api/songs/:id?confirm=true
func (s *SongController) deleteSong(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if err := s.svc.DeleteSong(ctx.Request.Context(), user.ID, ctx.Param("id"), confirmed(ctx)); err != nil {
		return nil, api.FromError(err)
	}
	return api.NoContent{}, nil
}

// POST /api/songs/:id/enrich
func (s *SongController) enrichSong(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	res, err := s.svc.EnrichSong(ctx.Request.Context(), user.ID, ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return res, nil
}
