package model

import (
	"context"
	"time"
)

// User is the minimal account record the catalog needs: an address for
// notifications, an optional provider the user manages and an admin flag.
// Credentials and sessions live in the upstream auth service.
// swagger:model
type User struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Email      string    `gorm:"index;unique" json:"email"`
	ProviderID *uint     `json:"providerId,omitempty"`
	Provider   *Provider `json:"-"`
	IsAdmin    bool      `json:"isAdmin"`
}

// IsProviderOf reports whether the user manages the given provider.
func (u *User) IsProviderOf(providerID uint) bool {
	return u.ProviderID != nil && *u.ProviderID == providerID
}

type userCtxKey int

var userKey userCtxKey

// NewContextWithUser returns a new [context.Context] that carries the user.
func NewContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUserFromContext returns the user stored in the ctx, if any.
func GetUserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userKey).(*User)
	return user, ok
}
