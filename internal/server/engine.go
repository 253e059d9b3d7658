package server

import (
	"log/slog"

	"github.com/offerboard/offer-manager/internal/middleware"
	"github.com/offerboard/offer-manager/pkg/comment"
	"github.com/offerboard/offer-manager/pkg/feed"
	"github.com/offerboard/offer-manager/pkg/health"
	"github.com/offerboard/offer-manager/pkg/offer"
	"github.com/offerboard/offer-manager/pkg/plan"
	"github.com/offerboard/offer-manager/pkg/provider"
	"github.com/offerboard/offer-manager/pkg/update"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Offer    offer.Handler
	Update   update.Handler
	Comment  comment.Handler
	Provider provider.Handler
	Plan     plan.Handler
	Feed     feed.Handler
}

func GetEngine(logger *slog.Logger, basePath string, handlers Handlers, authMiddleware middleware.AuthenticationMiddleware) *gin.Engine {
	r := gin.New()
	r.Use(middleware.CorrelationID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middleware.ErrorHandler())

	router := r.Group(basePath)

	router.GET("/health", health.Health)

	// public catalog
	router.GET("/offers", handlers.Offer.FindAll)
	router.GET("/offers/:id", authMiddleware.OptionalAuthentication, handlers.Offer.FindById)
	router.GET("/offers/:id/comments", handlers.Comment.List)
	router.GET("/providers", handlers.Provider.FindAll)
	router.GET("/providers/:slug", handlers.Provider.FindBySlug)
	router.GET("/providers/:slug/locations", handlers.Provider.FindLocations)
	router.GET("/datacenters", handlers.Provider.FindAllDatacenters)
	router.GET("/plans", handlers.Plan.Find)
	router.GET("/feed.atom", handlers.Feed.Atom)
	router.GET("/feed.rss", handlers.Feed.Rss)

	authenticated := router.Group("")
	authenticated.Use(authMiddleware.Authentication)

	// any signed-in reader
	authenticated.POST("/offers/:id/comments", handlers.Comment.Post)
	authenticated.POST("/comments/:id/likes", handlers.Comment.Like)
	authenticated.DELETE("/comments/:id/likes", handlers.Comment.Unlike)
	authenticated.POST("/offers/:id/followers", handlers.Offer.Follow)
	authenticated.DELETE("/offers/:id/followers", handlers.Offer.Unfollow)

	// provider surface; ownership is enforced by the services
	authenticated.POST("/requests", handlers.Offer.CreateRequest)
	authenticated.GET("/requests", handlers.Offer.FindRequests)
	authenticated.PUT("/requests/:id", handlers.Offer.UpdateRequest)
	authenticated.DELETE("/requests/:id", handlers.Offer.DeleteRequest)
	authenticated.PUT("/requests/:id/ready", handlers.Offer.SetReady)
	authenticated.GET("/requests/:id/position", handlers.Offer.QueuePosition)
	authenticated.GET("/my/offers", handlers.Offer.FindMine)
	authenticated.PUT("/offers/:id/active", handlers.Offer.SetActive)
	authenticated.PUT("/plans/:id/active", handlers.Offer.SetPlanActive)

	authenticated.POST("/offers/:id/update", handlers.Update.Open)
	authenticated.PUT("/updates/:id", handlers.Update.Edit)
	authenticated.PUT("/updates/:id/ready", handlers.Update.MarkReady)
	authenticated.POST("/updates/:id/plans", handlers.Update.AddPlan)
	authenticated.PUT("/plan-updates/:id", handlers.Update.EditPlan)
	authenticated.DELETE("/updates/:id", handlers.Update.Discard)

	authenticated.PUT("/providers/:id", handlers.Provider.Update)
	authenticated.POST("/providers/:id/locations", handlers.Provider.CreateLocation)
	authenticated.PUT("/locations/:id", handlers.Provider.UpdateLocation)

	// admin surface
	admin := authenticated.Group("")
	admin.Use(authMiddleware.RequireAdmin)

	admin.POST("/providers", handlers.Provider.Create)
	admin.DELETE("/providers/:id", handlers.Provider.Delete)
	admin.POST("/datacenters", handlers.Provider.CreateDatacenter)
	admin.POST("/publish", handlers.Offer.PublishLatest)
	admin.POST("/offers/:id/publish", handlers.Offer.Publish)
	admin.PUT("/offers/:id/retire", handlers.Offer.Retire)
	admin.PUT("/offers/:id/republish", handlers.Offer.Republish)
	admin.DELETE("/offers/:id", handlers.Offer.Delete)
	admin.POST("/updates/:id/apply", handlers.Update.Apply)
	admin.PUT("/comments/:id/status", handlers.Comment.Moderate)

	return r
}
