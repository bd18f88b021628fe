package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videv93/book-circle-sub001/internal/infrastructure/realtime"
	"github.com/videv93/book-circle-sub001/internal/pkg/presence/channeltoken"
	repository "github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/port"
	httpHandler "github.com/videv93/book-circle-sub001/internal/pkg/presence/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, pool *pgxpool.Pool, claims repository.ClaimRepository, hub *realtime.Hub, signer *channeltoken.Signer, cfg httpHandler.Config) {
	v1 := r.Group("/api/v1")
	// Pass the DB connection and bridge pieces down to the HTTP layer
	httpHandler.RegisterRoutes(v1, pool, claims, hub, signer, cfg)
}
