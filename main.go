package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"beatsync/auth"
	"beatsync/crypto"
	"beatsync/editor"
	"beatsync/storage"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {

	// logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// ENVs
	ALLOWED_ORIGINS, exists := os.LookupEnv("ALLOWED_ORIGINS")
	if !exists {
		log.Fatal("Missing allowed origins")
	}
	allowedOrigins := strings.Split(ALLOWED_ORIGINS, ",")

	POSTGRES_URL, exists := os.LookupEnv("POSTGRES_URL")
	if !exists {
		log.Fatal("Missing postgres url")
	}

	JWT_KEY, exists := os.LookupEnv("JWT_KEY")
	if !exists {
		log.Fatal("Missing jwt signing key")
	}

	REDIS_ADDR := os.Getenv("REDIS_ADDR")

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	// Dependencies
	pgRepo, err := storage.NewPostgresRepo(context.Background(), POSTGRES_URL)
	if err != nil {
		log.Fatal(err)
	}

	var cache editor.SnapshotCache
	if REDIS_ADDR != "" {
		snapshotCache := storage.NewSnapshotCache(REDIS_ADDR)
		if err := snapshotCache.Ping(context.Background()); err != nil {
			log.Fatal(err)
		}
		cache = snapshotCache
	} else {
		slog.Warn("REDIS_ADDR not set, autosave snapshots disabled")
	}

	tokenAge := time.Hour * 24 * 7 // 7 days
	tokenManager := crypto.NewJWTManager(JWT_KEY, tokenAge)

	authService := auth.NewService(pgRepo, tokenManager)
	authHandler := auth.NewAuthHandler(authService)

	r := CreateServer(allowedOrigins)

	tickerGen := editor.NewTickerGen()
	lobby := editor.NewLobby(tickerGen, logger)

	lobbyStarted := make(chan struct{})
	go lobby.LobbyActor(lobbyStarted)
	<-lobbyStarted

	editorHandler := editor.NewEditorHandler(lobby, pgRepo, cache, logger)
	{
		editGroup := r.Group("/edit")
		editGroup.Use(authHandler.RequireAuthMiddleware(time.Second * 2))

		editGroup.GET("/:beatmapid", editorHandler.EditHandler)
	}

	r.Run(":" + port)
}
