package endpoints

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/bandroom/internal/band"
	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api/auth/packets"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
)

// AuthPublicModule mounts public auth endpoints (/auth/signup, /auth/login)
func AuthPublicModule(jwtSecret string, svc *band.Service) api.Module {
	ctl := newAccountManager(jwtSecret, svc)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/auth/signup", ctl.userSignup)
		c.PUBLIC_POST("/auth/login", ctl.userLogin)
	})
}

// AuthSessionModule mounts private session/profile endpoints (JWT required)
func AuthSessionModule(jwtSecret string, svc *band.Service) api.Module {
	ctl := newAccountManager(jwtSecret, svc)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/auth/current_profile", ctl.getCurrentProfile)
		c.PUT("/auth/current_profile", ctl.updateCurrentProfile)
	})
}

type AccountManager struct {
	jwtSecret string
	svc       *band.Service
}

func newAccountManager(secret string, svc *band.Service) *AccountManager {
	return &AccountManager{jwtSecret: secret, svc: svc}
}

func (a *AccountManager) session(user model.User) (any, *api.APIError) {
	token, err := middleware.GenerateJWT(user.ID, a.jwtSecret)
	if err != nil {
		log.Error().Err(err).Str("user", user.ID).Msg("[auth] could not generate token")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not generate token"}
	}
	return packets.TokenResponse{Token: token, User: packets.Profile(user)}, nil
}

// POST /api/auth/signup
func (a *AccountManager) userSignup(ctx *gin.Context) (any, *api.APIError) {
	var request packets.SignupRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}

	hashed, err := middleware.HashPassword(request.Password)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not hash password"}
	}

	user, err := a.svc.RegisterUser(ctx.Request.Context(), request.Username, hashed, request.Instrument)
	if errors.Is(err, db.ErrConflict) {
		log.Warn().Str("username", request.Username).Msg("[auth] signup: username already taken")
		return nil, &api.APIError{Code: http.StatusConflict, Message: "username already taken"}
	}
	if err != nil {
		return nil, api.FromError(err)
	}

	res, apiErr := a.session(user)
	if apiErr != nil {
		return nil, apiErr
	}
	return api.Created{Body: res}, nil
}

// POST /api/auth/login
func (a *AccountManager) userLogin(ctx *gin.Context) (any, *api.APIError) {
	var request packets.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}

	user, err := a.svc.UserByUsername(ctx.Request.Context(), request.Username)
	if err != nil || !middleware.CheckPassword(user.HashedPassword, request.Password) {
		log.Info().Str("username", request.Username).Msg("[auth] login failed")
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: middleware.ErrInvalidCredentials.Error()}
	}
	return a.session(user)
}

// GET /api/auth/current_profile
func (a *AccountManager) getCurrentProfile(_ *gin.Context, user *model.User) (any, *api.APIError) {
	return packets.Profile(*user), nil
}

// PUT /api/auth/current_profile
func (a *AccountManager) updateCurrentProfile(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.UpdateCurrentProfileRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}

	updated, err := a.svc.UpdateInstrument(ctx.Request.Context(), user.ID, request.Instrument)
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.Profile(updated), nil
}
