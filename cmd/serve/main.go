// Package classification Offer Manager Service.
//
// Catalog and moderation backend for hosting provider offers
//
// Terms Of Service:
//
// there are no TOS at this moment, use at your own risk we take no responsibility
//
//	Version: 0.1.0
//	License: TODO
//
//	Consumes:
//	  - application/json
//
//	Produces:
//	  - application/json
//
// swagger:meta
package main

import (
	stdlog "log"
	"log/slog"
	"os"

	"github.com/offerboard/offer-manager/internal/handler"
	"github.com/offerboard/offer-manager/internal/log"
	"github.com/offerboard/offer-manager/internal/middleware"
	"github.com/offerboard/offer-manager/internal/server"
	"github.com/offerboard/offer-manager/pkg/cache"
	"github.com/offerboard/offer-manager/pkg/comment"
	"github.com/offerboard/offer-manager/pkg/config"
	"github.com/offerboard/offer-manager/pkg/feed"
	"github.com/offerboard/offer-manager/pkg/mailer"
	"github.com/offerboard/offer-manager/pkg/offer"
	"github.com/offerboard/offer-manager/pkg/plan"
	"github.com/offerboard/offer-manager/pkg/provider"
	"github.com/offerboard/offer-manager/pkg/queue"
	"github.com/offerboard/offer-manager/pkg/render"
	"github.com/offerboard/offer-manager/pkg/scheduler"
	"github.com/offerboard/offer-manager/pkg/storage"
	"github.com/offerboard/offer-manager/pkg/update"
	"github.com/offerboard/offer-manager/pkg/user"

	"github.com/go-mail/mail"
)

func main() {
	if err := run(); err != nil {
		stdlog.Fatal(err)
	}
}

func run() error {
	cfg := config.New()

	logger := slog.New(log.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := handler.RegisterValidation(); err != nil {
		return err
	}

	db, err := storage.NewDatabase(cfg.Postgresql, logger)
	if err != nil {
		return err
	}

	redisClient, err := storage.NewRedis(cfg.Redis.Host, cfg.Redis.Port)
	if err != nil {
		return err
	}
	renderCache := cache.NewRenderCache(logger, redisClient)

	publisher, err := queue.NewPublisher(logger, cfg.RabbitMq.GetUrl())
	if err != nil {
		return err
	}
	defer publisher.Close()

	consumer, err := queue.NewConsumer(logger, cfg.RabbitMq.GetUrl())
	if err != nil {
		return err
	}
	defer consumer.Close()

	renderer := render.NewRenderer()

	userService := user.NewService(user.NewRepository(db))

	providerService := provider.NewService(provider.NewRepository(db))
	providerHandler := provider.NewHandler(providerService)

	offerService := offer.NewService(logger, offer.NewRepository(db), renderCache, renderer, publisher, userService)
	offerHandler := offer.NewHandler(offerService)

	updateService := update.NewService(logger, update.NewRepository(db), renderCache, renderer)
	updateHandler := update.NewHandler(updateService)

	commentService := comment.NewService(logger, comment.NewRepository(db), renderer, publisher)
	commentHandler := comment.NewHandler(commentService)

	planHandler := plan.NewHandler(plan.NewFinder(db))

	feedHandler := feed.NewHandler(cfg.SiteUrl, offerService)

	dialer := mail.NewDialer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password)
	sender := mailer.NewMailer(logger, cfg.Smtp.From, dialer)

	if err := offer.NewPublishedConsumer(logger, consumer, offerService).Consume(); err != nil {
		return err
	}
	if err := comment.NewNotificationConsumer(logger, consumer, commentService).Consume(); err != nil {
		return err
	}
	if err := mailer.NewSendMailConsumer(logger, consumer, sender).Consume(); err != nil {
		return err
	}

	publishScheduler, err := scheduler.New(logger, cfg.PublishSchedule, offerService)
	if err != nil {
		return err
	}
	publishScheduler.Start()
	defer publishScheduler.Stop()

	authMiddleware := middleware.NewAuthentication(userService)

	handlers := server.Handlers{
		Offer:    offerHandler,
		Update:   updateHandler,
		Comment:  commentHandler,
		Provider: providerHandler,
		Plan:     planHandler,
		Feed:     feedHandler,
	}
	r := server.GetEngine(logger, cfg.BasePath, handlers, authMiddleware)
	return r.Run()
}
