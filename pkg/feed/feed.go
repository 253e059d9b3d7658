// Package feed serves the offer catalog as Atom and RSS: the latest visible
// offers, newest publication first.
package feed

import (
	"context"
	"fmt"
	"net/http"

	"github.com/offerboard/offer-manager/pkg/model"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
)

// feedSize is the number of offers a feed carries.
const feedSize = 20

type offerService interface {
	FindLatest(ctx context.Context, limit int) ([]*model.Offer, error)
	RenderedContent(ctx context.Context, offer *model.Offer) string
}

func NewHandler(baseURL string, offerService offerService) Handler {
	return Handler{
		baseURL:      baseURL,
		offerService: offerService,
	}
}

type Handler struct {
	baseURL      string
	offerService offerService
}

// Atom feed of the latest offers
func (h Handler) Atom(c *gin.Context) {
	// swagger:route GET /feed.atom atomFeed
	//
	// Atom feed
	//
	// The latest visible offers as Atom.
	//
	// responses:
	//   200:
	feed, err := h.feed(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	atom, err := feed.ToAtom()
	if err != nil {
		_ = c.Error(fmt.Errorf("failed to render atom feed: %v", err))
		return
	}
	c.Data(http.StatusOK, "application/atom+xml; charset=utf-8", []byte(atom))
}

// Rss feed of the latest offers
func (h Handler) Rss(c *gin.Context) {
	// swagger:route GET /feed.rss rssFeed
	//
	// RSS feed
	//
	// The latest visible offers as RSS 2.0.
	//
	// responses:
	//   200:
	feed, err := h.feed(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	rss, err := feed.ToRss()
	if err != nil {
		_ = c.Error(fmt.Errorf("failed to render rss feed: %v", err))
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

func (h Handler) feed(c *gin.Context) (*feeds.Feed, error) {
	offers, err := h.offerService.FindLatest(c, feedSize)
	if err != nil {
		return nil, err
	}

	feed := &feeds.Feed{
		Title:       "Latest offers",
		Link:        &feeds.Link{Href: h.baseURL + "/offers"},
		Description: "The most recently published hosting offers",
	}

	for _, offer := range offers {
		item := &feeds.Item{
			Id:          fmt.Sprintf("%s/offers/%d", h.baseURL, offer.ID),
			Title:       offer.Name,
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/offers/%d", h.baseURL, offer.ID)},
			Author:      &feeds.Author{Name: offer.Provider.Name},
			Description: h.offerService.RenderedContent(c, offer),
		}
		if offer.PublishedAt != nil {
			item.Created = *offer.PublishedAt
		}
		feed.Items = append(feed.Items, item)
		if feed.Updated.Before(item.Created) {
			feed.Updated = item.Created
		}
	}
	return feed, nil
}
