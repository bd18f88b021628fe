package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	identityAdapter "github.com/videv93/book-circle-sub001/internal/identity/adapter"
	"github.com/videv93/book-circle-sub001/internal/pkg/presence/application/usecase"
	"github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/adapter"
	repository "github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/port"
)

// JoinRoomController handles the join endpoint only (one controller per endpoint)
type JoinRoomController struct {
	UC *usecase.JoinRoomUseCase
}

func NewJoinRoomController(pool *pgxpool.Pool, claims repository.ClaimRepository, notifier usecase.RoomNotifier) *JoinRoomController {
	repo := adapter.NewPgPresenceRepository(pool)
	ident := identityAdapter.NewPgIdentityProvider(pool)
	return &JoinRoomController{UC: usecase.NewJoinRoomUseCase(repo, claims, ident, notifier)}
}

// joinRoomRequest is the DTO for the HTTP request body
type joinRoomRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// Handle returns a gin handler that opens an occupancy session in a room
func (h *JoinRoomController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomId")
		if roomID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
			return
		}

		var req joinRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		result, err := h.UC.Execute(ctx, usecase.JoinRoomInput{UserID: req.UserID, RoomID: roomID})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"record_id": result.RecordID,
			"member":    result.Member,
		})
	}
}

// respondUseCaseError maps use case failures onto HTTP statuses without
// leaking store internals.
func respondUseCaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrPersistence):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	case errors.Is(err, usecase.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
	case errors.Is(err, usecase.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
