package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"warbler/auth"
	"warbler/confs"
	"warbler/db"
	"warbler/handlers"
	httpHandler "warbler/handlers/http"
	"warbler/monitoring"
	"warbler/repositories"
	"warbler/services"
	"warbler/usecases"
	"warbler/web"
	"warbler/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	feedBacklog = 50
	feedTTL     = 24 * time.Hour
)

type Server struct {
	app      *gin.Engine
	db       db.Database
	cfg      confs.Config
	sessions *auth.Sessions
	feed     *services.FeedService
}

// NewServer wires repositories, use cases and handlers into a gin engine.
func NewServer(cfg confs.Config, database db.Database) (*Server, error) {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		app:      gin.New(),
		db:       database,
		cfg:      cfg,
		sessions: auth.NewSessions(cfg.SecretKey),
	}
	s.app.HTMLRender = renderer
	s.app.Use(gin.Recovery(), requestID(), requestLogger(), monitoring.Instrument())

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	// Initialize repositories
	userRepo := repositories.NewUserPgRepository(s.db)
	messageRepo := repositories.NewMessagePgRepository(s.db)
	followRepo := repositories.NewFollowPgRepository(s.db)
	likeRepo := repositories.NewLikePgRepository(s.db)

	// WebSocket manager and the feed backlog in front of it
	manager := ws.NewManager()
	s.feed = services.NewFeedService(manager, feedBacklog, feedTTL)

	// Initialize use cases
	userUseCase := usecases.NewUserUseCase(userRepo, followRepo, likeRepo, messageRepo)
	messageUseCase := usecases.NewMessageUseCase(messageRepo, followRepo, likeRepo, s.feed)

	// Initialize handlers
	tokens := auth.NewTokenIssuer(s.cfg.SecretKey, s.cfg.TokenValidity)
	views := httpHandler.NewViewHandler(userUseCase, messageUseCase, s.sessions)
	loginHandler := httpHandler.NewLoginHandler(userUseCase, tokens)
	userHandler := httpHandler.NewUserHandler(userUseCase)
	messageHandler := httpHandler.NewMessageHandler(messageUseCase)
	wsHandler := handlers.NewWSHandler(manager, s.feed)
	cacheHandler := handlers.NewCacheHandler(s.feed)

	// Setup CORS middleware
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	s.app.Use(cors.New(config))

	// Setup healthcheck route
	s.app.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "OK",
		})
	})
	s.app.GET("/metrics", monitoring.Handler())
	s.app.StaticFS("/static", http.FS(web.Static()))

	// Server-rendered pages
	site := s.app.Group("/", s.sessions.LoadPrincipal(userUseCase))
	requireUser := s.sessions.RequireUser()
	{
		site.GET("", views.Home)
		site.GET("/signup", views.SignupPage)
		site.POST("/signup", views.Signup)
		site.GET("/login", views.LoginPage)
		site.POST("/login", views.Login)
		site.GET("/logout", views.Logout)

		users := site.Group("/users")
		{
			users.GET("", views.ListUsers)
			users.GET("/:id", views.ShowUser)
			users.GET("/:id/following", views.ShowFollowing)
			users.GET("/:id/followers", views.ShowFollowers)
			users.GET("/:id/likes", views.ShowLikes)
			users.POST("/follow/:id", requireUser, views.Follow)
			users.POST("/stop-following/:id", requireUser, views.StopFollowing)
			users.GET("/profile", requireUser, views.EditProfilePage)
			users.POST("/profile", requireUser, views.EditProfile)
			users.POST("/delete", requireUser, views.DeleteUser)
			users.POST("/add_like/:msg_id", requireUser, views.ToggleLike)
		}

		messages := site.Group("/messages")
		{
			messages.GET("/new", requireUser, views.NewMessagePage)
			messages.POST("/new", requireUser, views.CreateMessage)
			messages.GET("/:id", views.ShowMessage)
			messages.POST("/:id/delete", requireUser, views.DeleteMessage)
		}

		// Live feed, authenticated by session cookie or ?token=
		site.GET("/ws", auth.BearerPrincipal(tokens, userUseCase), wsHandler.HandleFeed)
	}
	s.app.NoRoute(s.sessions.LoadPrincipal(userUseCase), views.NotFound)

	// Setup API routes
	api := s.app.Group("/api/v1", auth.BearerPrincipal(tokens, userUseCase))
	{
		// Auth routes
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/login", loginHandler.Login)
			authRoutes.POST("/signup", loginHandler.Signup)
		}

		users := api.Group("/users")
		{
			users.GET("/:id", userHandler.GetUser)
			users.GET("/:id/followers", userHandler.GetFollowers)
			users.GET("/:id/following", userHandler.GetFollowing)
			users.GET("/:id/likes", userHandler.GetLikes)
			users.POST("/:id/follow", auth.RequireToken(), userHandler.Follow)
			users.DELETE("/:id/follow", auth.RequireToken(), userHandler.Unfollow)
		}

		messages := api.Group("/messages")
		{
			messages.POST("", auth.RequireToken(), messageHandler.CreateMessage)
			messages.GET("/:id", messageHandler.GetMessage)
			messages.DELETE("/:id", auth.RequireToken(), messageHandler.DeleteMessage)
			messages.POST("/:id/like", auth.RequireToken(), messageHandler.ToggleLike)
		}

		api.GET("/timeline", auth.RequireToken(), messageHandler.GetTimeline)

		// Feed backlog and connection endpoints
		feed := api.Group("/feed")
		{
			feed.GET("/recent", auth.RequireToken(), cacheHandler.GetRecent)
			feed.GET("/stats", cacheHandler.GetCacheStats)
			feed.POST("/prune", auth.RequireToken(), cacheHandler.PruneCache)
			feed.GET("/connected", wsHandler.GetConnectedUsers)
		}
	}
}

// Handler exposes the engine, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.app
}

func (s *Server) Sessions() *auth.Sessions {
	return s.sessions
}

// Start runs the feed pruner and serves until the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.feed.Start(ctx)

	addr := "0.0.0.0:" + s.cfg.Port
	logrus.WithField("addr", addr).Info("starting server")
	return s.app.Run(addr)
}
