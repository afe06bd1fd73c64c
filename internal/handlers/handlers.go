package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"studentengagement/api/internal/cache"
	"studentengagement/api/internal/config"
	"studentengagement/api/internal/database"
	"studentengagement/api/internal/middleware"
	"studentengagement/api/internal/models"
	"studentengagement/api/internal/repository"
	"studentengagement/api/internal/service"
	"studentengagement/api/internal/storage"
)

type authAPI interface {
	Login(ctx context.Context, id int64, password string) (service.LoginResult, error)
	Signup(ctx context.Context, input service.SignupInput) (service.SignupResult, error)
}

type venueAPI interface {
	AddVenue(ctx context.Context, venueID int64, category string) (service.VenueResult, error)
	GetVenue(ctx context.Context, id int64) (models.VenueDetail, error)
}

type sessionAPI interface {
	ListUserSessions(ctx context.Context, userID int64) ([]service.SessionSummary, error)
	GetSession(ctx context.Context, id int64) (service.SessionView, error)
	RegisterSession(ctx context.Context, input service.RegisterInput) (service.RegisterResult, error)
	CloseSession(ctx context.Context, id int64) (models.ClosedSession, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	db       pinger
	cache    *redis.Client
	users    middleware.UserLookup
	auth     authAPI
	venues   venueAPI
	sessions sessionAPI
}

// NewHandlerSet wires repositories and services over the gateway. redisClient may be nil.
func NewHandlerSet(log zerolog.Logger, gateway *database.Gateway, redisClient *redis.Client, store storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	repos := repository.NewPostgresManager()
	venueCache := cache.NewVenueCache(redisClient, cfg.Redis.VenueTTL)

	return HandlerSet{
		log:      log,
		cfg:      cfg,
		db:       gateway,
		cache:    redisClient,
		users:    repos.Users(gateway.Querier()),
		auth:     service.NewAuthService(gateway, repos, cfg, log),
		venues:   service.NewVenueService(gateway, repos, store, venueCache, log),
		sessions: service.NewSessionService(gateway, repos, log),
	}
}

func (h HandlerSet) Register(router gin.IRouter) {
	router.GET("/", h.Index)
	router.GET("/healthz", h.Health)

	auth := router.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/signup", h.Signup)

	session := router.Group("/session")
	session.GET("/user/:uid", h.ListUserSessions)
	session.GET("/:id", h.GetSession)
	session.POST("", h.RegisterSession)
	session.PUT("", h.CloseSession)

	venue := router.Group("/venue")
	venue.GET("/:id", h.GetVenue)
	if h.cfg.Security.EnforceVenueAuth {
		venue.POST("",
			middleware.Auth(h.cfg.Security.JWTSecret, h.users),
			middleware.RequireRoles(models.UserRoleAdmin),
			h.AddVenue,
		)
	} else {
		venue.POST("", h.AddVenue)
	}
}
