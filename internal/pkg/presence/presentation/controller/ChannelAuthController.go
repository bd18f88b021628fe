package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	identityAdapter "github.com/videv93/book-circle-sub001/internal/identity/adapter"
	"github.com/videv93/book-circle-sub001/internal/pkg/presence/application/usecase"
	"github.com/videv93/book-circle-sub001/internal/pkg/presence/channeltoken"
	repository "github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/port"
)

// ChannelAuthController handles the channel authorization endpoint only.
// Clients call it with the socket id they got from the hub handshake and the
// channel they want; the response carries the opaque grant to present on
// subscribe.
type ChannelAuthController struct {
	UC *usecase.AuthorizeChannelUseCase
}

func NewChannelAuthController(pool *pgxpool.Pool, claims repository.ClaimRepository, signer *channeltoken.Signer) *ChannelAuthController {
	ident := identityAdapter.NewPgIdentityProvider(pool)
	return &ChannelAuthController{UC: usecase.NewAuthorizeChannelUseCase(claims, ident, signer)}
}

type channelAuthRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	SocketID    string `json:"socket_id" binding:"required"`
	ChannelName string `json:"channel_name" binding:"required"`
}

// Handle returns a gin handler that authorizes a socket onto a channel
func (h *ChannelAuthController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req channelAuthRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		result, err := h.UC.Execute(ctx, usecase.AuthorizeChannelInput{
			UserID:   req.UserID,
			SocketID: req.SocketID,
			Channel:  req.ChannelName,
		})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"auth":         result.Token,
			"channel_data": result.Member,
		})
	}
}
