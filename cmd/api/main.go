package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	router "github.com/videv93/book-circle-sub001/cmd/api/router/v1"
	cacheAdapter "github.com/videv93/book-circle-sub001/internal/infrastructure/cache/adapter"
	cacheport "github.com/videv93/book-circle-sub001/internal/infrastructure/cache/port"
	"github.com/videv93/book-circle-sub001/internal/infrastructure/database"
	queueAdapter "github.com/videv93/book-circle-sub001/internal/infrastructure/queue/adapter"
	"github.com/videv93/book-circle-sub001/internal/infrastructure/realtime"
	"github.com/videv93/book-circle-sub001/internal/pkg/presence/application/task"
	"github.com/videv93/book-circle-sub001/internal/pkg/presence/channeltoken"
	repoAdapter "github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/adapter"
	repository "github.com/videv93/book-circle-sub001/internal/pkg/presence/persistence/repository/port"
	httpHandler "github.com/videv93/book-circle-sub001/internal/pkg/presence/presentation/http"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// Connect to the database on startup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := database.NewPoolFromEnv(ctx)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	staleWindow := time.Duration(envInt("PRESENCE_STALE_WINDOW_SECONDS", 90)) * time.Second
	recentWindow := time.Duration(envInt("AUTHOR_RECENT_WINDOW_HOURS", 24)) * time.Hour

	// Authorship-claim store, with a Redis read-through cache when available.
	var claims repository.ClaimRepository = repoAdapter.NewPgClaimRepository(pool)
	var cache cacheport.Cache
	if redisCache, err := cacheAdapter.NewRedisAdapter(); err != nil {
		log.Printf("Warning: claim cache disabled: %v", err)
	} else {
		cache = redisCache
		defer cache.Close()
		claims = repoAdapter.NewCachedClaimRepository(claims, cache)
	}

	// Push channel bridge. Without a signing secret the bridge is unavailable
	// and every client degrades to polling.
	var signer *channeltoken.Signer
	if secret := os.Getenv("CHANNEL_TOKEN_SECRET"); secret != "" {
		ttl := time.Duration(envInt("CHANNEL_TOKEN_TTL_SECONDS", 120)) * time.Second
		signer = channeltoken.NewSigner([]byte(secret), ttl)
	} else {
		log.Printf("Warning: CHANNEL_TOKEN_SECRET not set; push transport disabled")
	}
	hub := realtime.NewHub()
	defer hub.Close()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background reaper rides the queue when Redis is configured.
	if server, err := queueAdapter.NewAsynqServer(); err != nil {
		log.Printf("Warning: reaper worker disabled: %v", err)
	} else {
		task.RegisterReapStalePresenceTask(server, pool)
		go func() {
			if err := server.Run(rootCtx); err != nil {
				log.Printf("queue server stopped: %v", err)
			}
		}()
	}
	if client, err := queueAdapter.NewAsynqClientFromEnv(); err != nil {
		log.Printf("Warning: reaper scheduling disabled: %v", err)
	} else {
		defer client.Close()
		go func() {
			ticker := time.NewTicker(staleWindow)
			defer ticker.Stop()
			for {
				select {
				case <-rootCtx.Done():
					return
				case <-ticker.C:
					if err := task.EnqueueReap(rootCtx, client, staleWindow); err != nil {
						log.Printf("failed to enqueue presence reap: %v", err)
					}
				}
			}
		}()
	}

	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "OK",
		})
	})

	router.RegisterRoutes(r, pool, claims, hub, signer, httpHandler.Config{
		StaleWindow:  staleWindow,
		RecentWindow: recentWindow,
	})

	srv := &http.Server{
		Addr:    ":" + envOrDefault("PORT", "8080"),
		Handler: r,
	}

	go func() {
		log.Printf("presence API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return def
}
