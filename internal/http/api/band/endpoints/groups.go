package endpoints

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/bandroom/internal/band"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api/band/packets"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

type GroupController struct {
	svc *band.Service
}

func GroupModule(svc *band.Service) api.Module {
	ctl := &GroupController{svc: svc}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/groups", ctl.listGroups)
		c.POST("/groups", ctl.createGroup)
		c.GET("/groups/:id", ctl.getGroup)
		c.PUT("/groups/:id", ctl.updateGroup)
		c.DELETE("/groups/:id", ctl.deleteGroup)
		c.POST("/groups/:id/join", ctl.joinGroup)
		c.POST("/groups/:id/leave", ctl.leaveGroup)
	})
}

// GET /api/groups
func (g *GroupController) listGroups(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	groups, err := g.svc.ListGroups(ctx.Request.Context())
	if err != nil {
		return nil, api.FromError(err)
	}
	return groups, nil
}

// POST /api/groups
func (g *GroupController) createGroup(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.GroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	group, err := g.svc.CreateGroup(ctx.Request.Context(), user.ID, req.Input())
	if err != nil {
		return nil, api.FromError(err)
	}
	log.Info().Str("group", group.ID).Str("user", user.ID).Msg("[groups] created")
	return api.Created{Body: group}, nil
}

// GET /api/groups/:id
func (g *GroupController) getGroup(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	group, err := g.svc.Group(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return group, nil
}

// PUT /api/groups/:id
func (g *GroupController) updateGroup(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.GroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	group, err := g.svc.UpdateGroup(ctx.Request.Context(), user.ID, ctx.Param("id"), req.Input())
	if err != nil {
		return nil, api.FromError(err)
	}
	return group, nil
}

// DELETE /api/groups/:id?confirm=true
func (g *GroupController) deleteGroup(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if err := g.svc.DeleteGroup(ctx.Request.Context(), user.ID, ctx.Param("id"), confirmed(ctx)); err != nil {
		return nil, api.FromError(err)
	}
	return api.NoContent{}, nil
}

// POST /api/groups/:id/join
func (g *GroupController) joinGroup(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	res, err := g.svc.JoinGroup(ctx.Request.Context(), user.ID, ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err)
	}
	return res, nil
}

// POST /api/groups/:id/leave
func (g *GroupController) leaveGroup(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if err := g.svc.LeaveGroup(ctx.Request.Context(), user.ID, ctx.Param("id")); err != nil {
		return nil, api.FromError(err)
	}
	return api.NoContent{}, nil
}
