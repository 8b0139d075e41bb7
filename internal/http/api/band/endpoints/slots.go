package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/bandroom/internal/band"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api/band/packets"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

type SlotController struct {
	svc *band.Service
}

func SlotModule(svc *band.Service) api.Module {
	ctl := &SlotController{svc: svc}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/slots", ctl.listSlots)
		c.POST("/slots", ctl.createSlot)
		c.DELETE("/slots/:id", ctl.deleteSlot)
	})
}

// GET /api/slots
func (s *SlotController) listSlots(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	slots, err := s.svc.Slots.List(ctx.Request.Context())
	if err != nil {
		return nil, api.FromError(err)
	}
	return slots, nil
}

// POST /api/slots
func (s *SlotController) createSlot(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var req packets.CreateSlotRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err)
	}
	slot, err := s.svc.AddSlot(ctx.Request.Context(), req.Name, req.Icon)
	if err != nil {
		return nil, api.FromError(err)
	}
	return api.Created{Body: slot}, nil
}

// DELETE /api/slots/:id?confirm=true
func (s *SlotController) deleteSlot(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	if err := s.svc.DeleteSlot(ctx.Request.Context(), ctx.Param("id"), confirmed(ctx)); err != nil {
		return nil, api.FromError(err)
	}
	return api.NoContent{}, nil
}
