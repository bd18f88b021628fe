package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videv93/book-circle-sub001/internal/infrastructure/realtime"
	"github.com/videv93/book-circle-sub001/internal/pkg/presence/channeltoken"
	repository "github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/port"
	"github.com/videv93/book-circle-sub001/internal/pkg/presence/presentation/controller"
)

// Policy knobs resolved in main and threaded down to the controllers.
type Config struct {
	StaleWindow  time.Duration
	RecentWindow time.Duration
}

// RegisterRoutes registers presence-related HTTP endpoints under the given router group
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, claims repository.ClaimRepository, hub *realtime.Hub, signer *channeltoken.Signer, cfg Config) {
	notifier := controller.NewHubNotifier(hub)

	joinCtl := controller.NewJoinRoomController(pool, claims, notifier)
	heartbeatCtl := controller.NewHeartbeatController(pool)
	leaveCtl := controller.NewLeaveRoomController(pool, notifier)
	membersCtl := controller.NewListMembersController(pool, cfg.StaleWindow)
	authorCtl := controller.NewAuthorPresenceController(pool, claims, cfg.RecentWindow)
	authCtl := controller.NewChannelAuthController(pool, claims, signer)
	socketCtl := controller.NewPresenceSocketController(hub, signer)

	// POST /api/v1/rooms/:roomId/presence -> join a room
	g.POST("/rooms/:roomId/presence", joinCtl.Handle())

	// PUT /api/v1/rooms/:roomId/presence -> heartbeat
	g.PUT("/rooms/:roomId/presence", heartbeatCtl.Handle())

	// DELETE /api/v1/rooms/:roomId/presence -> leave a room
	g.DELETE("/rooms/:roomId/presence", leaveCtl.Handle())

	// GET /api/v1/rooms/:roomId/members -> currently-present members
	g.GET("/rooms/:roomId/members", membersCtl.Handle())

	// GET /api/v1/rooms/:roomId/author-presence -> verified author indicator
	g.GET("/rooms/:roomId/author-presence", authorCtl.Handle())

	// Without a signing secret the bridge is "always unavailable": clients get
	// 503 from the gate and fall straight into polling.
	if signer == nil {
		g.POST("/presence/channel-auth", transportUnavailable)
		g.GET("/presence/ws", transportUnavailable)
		return
	}

	// POST /api/v1/presence/channel-auth -> channel authorization gate
	g.POST("/presence/channel-auth", authCtl.Handle())

	// GET /api/v1/presence/ws -> websocket endpoint of the push bridge
	g.GET("/presence/ws", socketCtl.Handle())
}

func transportUnavailable(c *gin.Context) {
	c.JSON(503, gin.H{"error": "push transport is not configured"})
}
