package model

import "time"

type CommentStatus string

const (
	CommentPublished   CommentStatus = "p"
	CommentUnpublished CommentStatus = "u"
	CommentDeleted     CommentStatus = "d"
)

// Comment is a remark on an offer. Replies are one level deep: only the
// direct target of a reply is surfaced, never a chain.
// swagger:model
type Comment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	CommenterID uint `json:"commenterId"`
	Commenter   User `json:"commenter"`

	OfferID uint  `gorm:"index" json:"offerId"`
	Offer   Offer `json:"-"`

	ReplyToID *uint    `json:"replyToId,omitempty"`
	ReplyTo   *Comment `json:"-"`

	// Content is the rendered HTML; BBCodeContent keeps the source.
	Content       string `gorm:"type:text" json:"content"`
	BBCodeContent string `gorm:"type:text" json:"bbcodeContent"`

	Status CommentStatus `gorm:"size:1;default:p" json:"status"`

	Likes []User `gorm:"many2many:comment_likes;constraint:OnDelete:CASCADE" json:"-"`
}

// Published reports whether the comment itself is published. Visibility to
// readers additionally requires the offer to be visible.
func (c *Comment) Published() bool {
	return c.Status == CommentPublished
}

// IsReply reports whether the comment is a reply for notification purposes:
// the target must be loaded, published and on a visible offer. A reply to a
// deleted or unpublished comment is treated as top-level.
func (c *Comment) IsReply() bool {
	if c.ReplyToID == nil || c.ReplyTo == nil {
		return false
	}
	return c.ReplyTo.Published() && c.ReplyTo.Offer.Visible()
}
