package middleware

import (
	"context"
	"strconv"

	"github.com/offerboard/offer-manager/internal/errdef"
	"github.com/offerboard/offer-manager/internal/handler"
	"github.com/offerboard/offer-manager/pkg/model"

	"github.com/gin-gonic/gin"
)

// The service runs behind an authenticating reverse proxy. The proxy resolves
// the session and passes the user id along; everything else about the user is
// looked up here.
const userIDHeader = "X-User-Id"

func NewAuthentication(userService userService) AuthenticationMiddleware {
	return AuthenticationMiddleware{userService: userService}
}

type userService interface {
	FindById(ctx context.Context, id uint) (*model.User, error)
}

type AuthenticationMiddleware struct {
	userService userService
}

// Authentication resolves the proxy-supplied user id into a user record and
// places it on the request context.
func (m AuthenticationMiddleware) Authentication(c *gin.Context) {
	header := c.GetHeader(userIDHeader)
	if header == "" {
		m.handleError(c, errdef.NewUnauthorized("no user id on request"))
		return
	}

	id, err := strconv.ParseUint(header, 10, 32)
	if err != nil {
		m.handleError(c, errdef.NewUnauthorized("malformed user id %q", header))
		return
	}

	user, err := m.userService.FindById(c, uint(id))
	if err != nil {
		m.handleError(c, errdef.NewUnauthorized("unknown user %d", id))
		return
	}

	c.Set("user", user)
	c.Request = c.Request.WithContext(model.NewContextWithUser(c.Request.Context(), user))
	c.Next()
}

// OptionalAuthentication resolves the user when the proxy passed one along
// and stays silent otherwise. For public routes whose response depends on who
// is asking.
func (m AuthenticationMiddleware) OptionalAuthentication(c *gin.Context) {
	header := c.GetHeader(userIDHeader)
	if header == "" {
		c.Next()
		return
	}

	id, err := strconv.ParseUint(header, 10, 32)
	if err != nil {
		c.Next()
		return
	}

	if user, err := m.userService.FindById(c, uint(id)); err == nil {
		c.Set("user", user)
		c.Request = c.Request.WithContext(model.NewContextWithUser(c.Request.Context(), user))
	}
	c.Next()
}

// RequireAdmin aborts requests from non-administrators. It must run after
// Authentication.
func (m AuthenticationMiddleware) RequireAdmin(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		m.handleError(c, errdef.NewUnauthorized("no user on context"))
		return
	}

	if !user.IsAdmin {
		// 404 via the error handler so the admin surface doesn't reveal itself
		_ = c.Error(errdef.NewForbidden("user %d is not an administrator", user.ID))
		c.Abort()
		return
	}

	c.Next()
}

func (m AuthenticationMiddleware) handleError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
