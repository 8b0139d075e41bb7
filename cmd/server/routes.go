package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nixie-Tech-LLC/bandroom/internal/band"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/api"
	authapi "github.com/Nixie-Tech-LLC/bandroom/internal/http/api/auth/endpoints"
	bandapi "github.com/Nixie-Tech-LLC/bandroom/internal/http/api/band/endpoints"
	mediaapi "github.com/Nixie-Tech-LLC/bandroom/internal/http/api/media/endpoints"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/bandroom/internal/realtime"
	"github.com/Nixie-Tech-LLC/bandroom/internal/storage"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, secret string, svc *band.Service, files storage.Storage, hub *realtime.Hub) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
		Auth:   false,
	},
		authapi.AuthPublicModule(secret, svc),
		mediaapi.MediaPublicModule(files),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api",
		Auth:      true,
		SecretKey: secret,
		Users:     svc,
	},
		// session endpoints that require auth
		authapi.AuthSessionModule(secret, svc),
		bandapi.SlotModule(svc),
		bandapi.GroupModule(svc),
		bandapi.SongModule(svc, files),
		bandapi.ParticipationModule(svc),
		bandapi.ArtistModule(svc),
		bandapi.SetlistModule(svc),
		bandapi.RehearsalModule(svc),
		mediaapi.MediaModule(svc, files),
	)

	// change stream; browsers pass the token as ?token=
	r.GET("/api/ws", middleware.JWTMiddleware(secret, svc), hub.Handler())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
