package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videv93/book-circle-sub001/internal/pkg/presence/application/usecase"
	"github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/adapter"
	repository "github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/port"
)

// AuthorPresenceController handles the author indicator endpoint only
type AuthorPresenceController struct {
	UC *usecase.AuthorPresenceUseCase
}

func NewAuthorPresenceController(pool *pgxpool.Pool, claims repository.ClaimRepository, recentWindow time.Duration) *AuthorPresenceController {
	repo := adapter.NewPgPresenceRepository(pool)
	return &AuthorPresenceController{UC: usecase.NewAuthorPresenceUseCase(repo, claims, recentWindow)}
}

// Handle returns a gin handler answering whether the room's verified author is
// or was recently present. "No author data" is a 200 with a null author, never
// an error: the indicator is an enhancement, not a requirement for reading.
func (h *AuthorPresenceController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomId")
		if roomID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		result, err := h.UC.Execute(ctx, usecase.AuthorPresenceInput{RoomID: roomID})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		if result == nil {
			c.JSON(http.StatusOK, gin.H{"author": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"author": result})
	}
}
