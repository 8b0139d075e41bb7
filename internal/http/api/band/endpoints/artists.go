package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/bandroom/internal/band"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api/band/packets"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

type ArtistController struct {
	svc *band.Service
}

func ArtistModule(svc *band.Service) api.Module {
	ctl := &ArtistController{svc: svc}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/artists", ctl.listArtists)
		c.POST("/artists", ctl.createArtist)
		c.GET("/artists/positioning", ctl.positioning)
		c.GET("/artists/positioning/sheet", ctl.positioningSheet)
		c.GET("/artists/:id", ctl.getArtist)
		c.PUT("/artists/:id", ctl.updateArtist)
		c.DELETE("/artists/:id", ctl.deleteArtist)
	})
}

// GET /api/artists
func (a *ArtistController) listArtists(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	artists, err := a.svc.Artists(ctx.Request.Context())
	if err != nil {
		return nil, api.FromError(err)
	}
	return artists, nil
}

// POST /api/artists
func (a *ArtistController) createArtist(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var req packets.ArtistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	artist, err := a.svc.CreateArtist(ctx.Request.Context(), req.Input())
	if err != nil {
		return nil, api.FromError(err)
	}
	return api.Created{Body: artist}, nil
}

// GET /api/artists/:id
func (a *ArtistController) getArtist(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	artist, err := a.svc.Artist(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return artist, nil
}

// PUT /api/artists/:id
func (a *ArtistController) updateArtist(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var req packets.ArtistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	artist, err := a.svc.UpdateArtist(ctx.Request.Context(), ctx.Param("id"), req.Input())
	if err != nil {
		return nil, api.FromError(err)
	}
	return artist, nil
}

// DELETE /api/artists/:id?confirm=true
func (a *ArtistController) deleteArtist(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	if err := a.svc.DeleteArtist(ctx.Request.Context(), ctx.Param("id"), confirmed(ctx)); err != nil {
		return nil, api.FromError(err)
	}
	return api.NoContent{}, nil
}

// GET /api/artists/positioning?group=<id>
func (a *ArtistController) positioning(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	positions, err := a.svc.ArtistPositioning(ctx.Request.Context(), ctx.Query("group"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return positions, nil
}

// GET /api/artists/positioning/sheet?group=<id>
func (a *ArtistController) positioningSheet(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	sheet, err := a.svc.PositioningSheet(ctx.Request.Context(), ctx.Query("group"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return sheet, nil
}
