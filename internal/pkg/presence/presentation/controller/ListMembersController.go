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

// ListMembersController handles the room membership read endpoint only.
// It backs both the subscription snapshot and the polling fallback.
type ListMembersController struct {
	UC *usecase.ListMembersUseCase
}

func NewListMembersController(pool *pgxpool.Pool, staleWindow time.Duration) *ListMembersController {
	repo := adapter.NewPgPresenceRepository(pool)
	return &ListMembersController{UC: usecase.NewListMembersUseCase(repo, staleWindow)}
}

// Handle returns a gin handler that lists the currently-present members of a room
func (h *ListMembersController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomId")
		if roomID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		members, err := h.UC.Execute(ctx, usecase.ListMembersInput{RoomID: roomID})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"count":   len(members),
			"members": members,
		})
	}
}
