package queue

import "time"

// OfferMessage triggers the post-publication fan-out for one offer.
type OfferMessage struct {
	ID uint
}

// CommentMessage identifies a comment and its author for the notification
// tasks.
type CommentMessage struct {
	ID       uint
	AuthorID uint
}

// MailMessage is a fully prepared outbound mail. NotBefore staggers follower
// fan-out so the mailer isn't hit with one burst per comment.
type MailMessage struct {
	To        string
	Subject   string
	Plain     string
	HTML      string
	NotBefore time.Time
}
