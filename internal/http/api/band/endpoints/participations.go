package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/bandroom/internal/band"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api/band/packets"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

type ParticipationController struct {
	svc *band.Service
}

func ParticipationModule(svc *band.Service) api.Module {
	ctl := &ParticipationController{svc: svc}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/songs/:id/participations", ctl.songLineup)
		c.POST("/songs/:id/slots/:slotId/join", ctl.joinSlot)
		c.DELETE("/songs/:id/slots/:slotId/join", ctl.leaveSlot)
		c.POST("/songs/:id/slots/:slotId/artists", ctl.assignArtist)
		c.DELETE("/songs/:id/slots/:slotId/artists/:artistId", ctl.removeArtist)
		c.GET("/songs/:id/slots/:slotId/candidates", ctl.candidates)
		c.PUT("/participations/:id/comment", ctl.setComment)
	})
}

// GET /api/songs/:id/participations
func (p *ParticipationController) songLineup(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	lineup, err := p.svc.SongLineup(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return lineup, nil
}

// POST /api/songs/:id/slots/:slotId/join
func (p *ParticipationController) joinSlot(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	part, err := p.svc.JoinSlot(ctx.Request.Context(), user.ID, ctx.Param("id"), ctx.Param("slotId"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return api.Created{Body: part}, nil
}

// DELETE /api/songs/:id/slots/:slotId/join
func (p *ParticipationController) leaveSlot(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if err := p.svc.LeaveSlot(ctx.Request.Context(), user.ID, ctx.Param("id"), ctx.Param("slotId")); err != nil {
		return nil, api.FromError(err)
	}
	return api.NoContent{}, nil
}

// POST /api/songs/:id/slots/:slotId/artists
func (p *ParticipationController) assignArtist(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var req packets.AssignArtistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	part, err := p.svc.AssignArtist(ctx.Request.Context(), ctx.Param("id"), ctx.Param("slotId"), req.ArtistID)
	if err != nil {
		return nil, api.FromError(err)
	}
	return api.Created{Body: part}, nil
}

// DELETE /api/songs/:id/slots/:slotId/artists/:artistId
func (p *ParticipationController) removeArtist(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	err := p.svc.RemoveArtist(ctx.Request.Context(), ctx.Param("id"), ctx.Param("slotId"), ctx.Param("artistId"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return api.NoContent{}, nil
}

// GET /api/songs/:id/slots/:slotId/candidates
func (p *ParticipationController) candidates(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	artists, err := p.svc.Candidates(ctx.Request.Context(), ctx.Param("id"), ctx.Param("slotId"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return artists, nil
}

// PUT /api/participations/:id/comment
func (p *ParticipationController) setComment(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.CommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	part, err := p.svc.SetComment(ctx.Request.Context(), user.ID, ctx.Param("id"), req.Comment)
	if err != nil {
		return nil, api.FromError(err)
	}
	return part, nil
}
