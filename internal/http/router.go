package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/knockline/backend/internal/config"
	"github.com/knockline/backend/internal/db"
	"github.com/knockline/backend/internal/geocode"
	"github.com/knockline/backend/internal/http/handlers"
	"github.com/knockline/backend/internal/http/middleware"
	"github.com/knockline/backend/internal/suggest"
	"github.com/knockline/backend/internal/workflow"

	_ "github.com/knockline/backend/docs"
)

func Router(cfg config.Config, store *db.Store, geocoder geocode.Geocoder, engine *workflow.Engine, searcher *suggest.Searcher, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:          store,
		Geocoder:       geocoder,
		Engine:         engine,
		Searcher:       searcher,
		Sessions:       handlers.NewSessionRegistry(),
		Validator:      validator.New(),
		Logger:         logger,
		AdminKey:       cfg.AdminKey,
		CountryDefault: cfg.CountryDefault,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/contacts", h.ContactsList)
		api.GET("/contacts/:id", h.ContactDetails)
		api.POST("/contacts", h.ContactCreate)
		api.GET("/resolve", h.Resolve)
		api.GET("/objections", h.ObjectionsList)
		api.GET("/appointments", h.AppointmentsList)
		api.GET("/trips", h.TripsList)
		api.GET("/suggestions/next", h.SuggestionNext)

		api.POST("/sessions", h.SessionCreate)
		api.GET("/sessions/:id", h.SessionGet)
		api.PATCH("/sessions/:id/draft", h.SessionDraft)
		api.POST("/sessions/:id/advance", h.SessionAdvance)
		api.POST("/sessions/:id/skip", h.SessionSkip)
		api.POST("/sessions/:id/convert", h.SessionConvert)
		api.DELETE("/sessions/:id", h.SessionClose)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/contacts/import", h.Import)
		admin.DELETE("/contacts/:id", h.ContactDelete)
		admin.POST("/objections", h.ObjectionCreate)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
