package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/bandroom/internal/band"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api/band/packets"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

type SetlistController struct {
	svc *band.Service
}

func SetlistModule(svc *band.Service) api.Module {
	ctl := &SetlistController{svc: svc}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/setlists", ctl.listSetlists)
		c.POST("/setlists", ctl.createSetlist)
		c.GET("/setlists/:id", ctl.getSetlist)
		c.PUT("/setlists/:id", ctl.renameSetlist)
		c.DELETE("/setlists/:id", ctl.deleteSetlist)
		c.POST("/setlists/:id/songs", ctl.addSong)
		c.PUT("/setlists/:id/songs", ctl.reorder)
		c.DELETE("/setlists/:id/songs/:songId", ctl.removeSong)
		c.GET("/setlists/:id/table", ctl.table)
	})
}

// GET /api/setlists
func (s *SetlistController) listSetlists(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	setlists, err := s.svc.ListSetlists(ctx.Request.Context(), user.ID)
	if err != nil {
		return nil, api.FromError(err)
	}
	return setlists, nil
}

// POST /api/setlists
func (s *SetlistController) createSetlist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.CreateSetlistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	sl, err := s.svc.CreateSetlist(ctx.Request.Context(), user.ID, req.Name, req.GroupID)
	if err != nil {
		return nil, api.FromError(err)
	}
	return api.Created{Body: sl}, nil
}

// GET /api/setlists/:id
func (s *SetlistController) getSetlist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	view, err := s.svc.Setlist(ctx.Request.Context(), user.ID, ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return view, nil
}

// PUT /api/setlists/:id
func (s *SetlistController) renameSetlist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.RenameSetlistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	sl, err := s.svc.RenameSetlist(ctx.Request.Context(), user.ID, ctx.Param("id"), req.Name)
	if err != nil {
		return nil, api.FromError(err)
	}
	return sl, nil
}

// DELETE /api/setlists/:id?confirm=true
func (s *SetlistController) deleteSetlist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if err := s.svc.DeleteSetlist(ctx.Request.Context(), user.ID, ctx.Param("id"), confirmed(ctx)); err != nil {
		return nil, api.FromError(err)
	}
	return api.NoContent{}, nil
}

// POST /api/setlists/:id/songs
func (s *SetlistController) addSong(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.AddSetlistSongRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	entry, err := s.svc.AddToSetlist(ctx.Request.Context(), user.ID, ctx.Param("id"), req.SongID)
	if err != nil {
		return nil, api.FromError(err)
	}
	return api.Created{Body: entry}, nil
}

// PUT /api/setlists/:id/songs
func (s *SetlistController) reorder(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.ReorderSetlistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	entries, err := s.svc.ReorderSetlist(ctx.Request.Context(), user.ID, ctx.Param("id"), req.SongIDs)
	if err != nil {
		return nil, api.FromError(err)
	}
	return entries, nil
}

// DELETE /api/setlists/:id/songs/:songId
func (s *SetlistController) removeSong(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	err := s.svc.RemoveFromSetlist(ctx.Request.Context(), user.ID, ctx.Param("id"), ctx.Param("songId"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return api.NoContent{}, nil
}

// GET /api/setlists/:id/table
func (s *SetlistController) table(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	t, err := s.svc.SetlistTable(ctx.Request.Context(), user.ID, ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return t, nil
}
