package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videv93/book-circle-sub001/internal/pkg/presence/application/usecase"
	"github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/adapter"
)

// HeartbeatController handles the heartbeat endpoint only
type HeartbeatController struct {
	UC *usecase.HeartbeatUseCase
}

func NewHeartbeatController(pool *pgxpool.Pool) *HeartbeatController {
	repo := adapter.NewPgPresenceRepository(pool)
	return &HeartbeatController{UC: usecase.NewHeartbeatUseCase(repo)}
}

type heartbeatRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// Handle returns a gin handler that keeps an occupancy session alive.
// updated=false is a signal to re-join, not a failure.
func (h *HeartbeatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomId")
		if roomID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
			return
		}

		var req heartbeatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		updated, err := h.UC.Execute(ctx, usecase.HeartbeatInput{UserID: req.UserID, RoomID: roomID})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"updated": updated})
	}
}
