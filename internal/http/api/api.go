package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/bandroom/internal/band"
	"github.com/Nixie-Tech-LLC/bandroom/internal/db"
	"github.com/Nixie-Tech-LLC/bandroom/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/bandroom/internal/lineup"
	"github.com/Nixie-Tech-LLC/bandroom/internal/model"
	"github.com/Nixie-Tech-LLC/bandroom/internal/storage"
)

type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string { return e.Message }

type HandlerFuncWithAuth func(ctx *gin.Context, user *model.User) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := middleware.GetCurrentUser(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		result, apiErr := h(ctx, user)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}
		respond(ctx, result)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}
		respond(ctx, result)
	}
}

// Created marks a result that should be answered with 201.
type Created struct{ Body any }

// NoContent answers 204 with an empty body.
type NoContent struct{}

func respond(ctx *gin.Context, result any) {
	switch r := result.(type) {
	case Created:
		ctx.JSON(http.StatusCreated, r.Body)
	case NoContent:
		ctx.Status(http.StatusNoContent)
	default:
		ctx.JSON(http.StatusOK, result)
	}
}

// BadRequest wraps a binding or parsing error.
func BadRequest(err error) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: err.Error()}
}

// FromError maps domain errors to their HTTP status. Anything unknown is
// logged and reported as a 500 without leaking details.
func FromError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case band.IsValidation(err),
		errors.Is(err, lineup.ErrProtectedSlot),
		errors.Is(err, storage.ErrTooLarge),
		errors.Is(err, storage.ErrUnsupportedType),
		errors.Is(err, storage.ErrInvalidName):
		return &APIError{Code: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, band.ErrUnauthorized):
		return &APIError{Code: http.StatusForbidden, Message: err.Error()}
	case errors.Is(err, db.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return &APIError{Code: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, lineup.ErrDuplicateAssignment), errors.Is(err, db.ErrConflict):
		return &APIError{Code: http.StatusConflict, Message: err.Error()}
	}
	log.Error().Err(err).Msg("[api] unhandled error")
	return &APIError{Code: http.StatusInternalServerError, Message: "Something went wrong, please try again"}
}
