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

// LeaveRoomController handles the leave endpoint only
type LeaveRoomController struct {
	UC *usecase.LeaveRoomUseCase
}

func NewLeaveRoomController(pool *pgxpool.Pool, notifier usecase.RoomNotifier) *LeaveRoomController {
	repo := adapter.NewPgPresenceRepository(pool)
	return &LeaveRoomController{UC: usecase.NewLeaveRoomUseCase(repo, notifier)}
}

type leaveRoomRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// Handle returns a gin handler that closes an occupancy session. Leaving a
// room the caller already left is a success.
func (h *LeaveRoomController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomId")
		if roomID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
			return
		}

		var req leaveRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := h.UC.Execute(ctx, usecase.LeaveRoomInput{UserID: req.UserID, RoomID: roomID}); err != nil {
			respondUseCaseError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "left"})
	}
}
