package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/bandroom/internal/band"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api/band/packets"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

type RehearsalController struct {
	svc *band.Service
}

func RehearsalModule(svc *band.Service) api.Module {
	ctl := &RehearsalController{svc: svc}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/groups/:id/rehearsals", ctl.groupRehearsals)
		c.POST("/rehearsals", ctl.createRehearsal)
		c.GET("/rehearsals/:id", ctl.getRehearsal)
		c.PUT("/rehearsals/:id", ctl.updateRehearsal)
		c.DELETE("/rehearsals/:id", ctl.deleteRehearsal)
		c.PUT("/rehearsals/:id/artists/:artistId/status", ctl.setArtistStatus)
		c.PUT("/rehearsals/:id/attendance", ctl.setAttendance)
		c.GET("/rehearsals/:id/summary", ctl.summary)
	})
}

// GET /api/groups/:id/rehearsals
func (r *RehearsalController) groupRehearsals(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	list, err := r.svc.GroupRehearsals(ctx.Request.Context(), user.ID, ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return list, nil
}

// POST /api/rehearsals
func (r *RehearsalController) createRehearsal(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.RehearsalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	reh, err := r.svc.CreateRehearsal(ctx.Request.Context(), user.ID, req.Input())
	if err != nil {
		return nil, api.FromError(err)
	}
	return api.Created{Body: reh}, nil
}

// GET /api/rehearsals/:id
func (r *RehearsalController) getRehearsal(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	reh, err := r.svc.Rehearsal(ctx.Request.Context(), user.ID, ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return reh, nil
}

// PUT /api/rehearsals/:id
func (r *RehearsalController) updateRehearsal(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.RehearsalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	reh, err := r.svc.UpdateRehearsal(ctx.Request.Context(), user.ID, ctx.Param("id"), req.Input())
	if err != nil {
		return nil, api.FromError(err)
	}
	return reh, nil
}

// DELETE /api/rehearsals/:id?confirm=true
func (r *RehearsalController) deleteRehearsal(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if err := r.svc.DeleteRehearsal(ctx.Request.Context(), user.ID, ctx.Param("id"), confirmed(ctx)); err != nil {
		return nil, api.FromError(err)
	}
	return api.NoContent{}, nil
}

// PUT /api/rehearsals/:id/artists/:artistId/status
func (r *RehearsalController) setArtistStatus(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.AttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	reh, err := r.svc.SetArtistAttendance(ctx.Request.Context(), user.ID, ctx.Param("id"),
		ctx.Param("artistId"), model.AttendanceStatus(req.Status))
	if err != nil {
		return nil, api.FromError(err)
	}
	return reh, nil
}

// PUT /api/rehearsals/:id/attendance
func (r *RehearsalController) setAttendance(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.AttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	reh, err := r.svc.SetAttendance(ctx.Request.Context(), user.ID, ctx.Param("id"), model.AttendanceStatus(req.Status))
	if err != nil {
		return nil, api.FromError(err)
	}
	return reh, nil
}

// GET /api/rehearsals/:id/summary
func (r *RehearsalController) summary(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	sum, err := r.svc.RehearsalSummary(ctx.Request.Context(), user.ID, ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return sum, nil
}
