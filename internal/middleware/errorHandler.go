package middleware

import (
	"fmt"
	"net/http"

	"github.com/offerboard/offer-manager/internal/errdef"

	"github.com/gin-gonic/gin"
)

// ErrorHandler translates errdef kinds into HTTP status codes. Ownership
// failures and state conflicts both answer 404 so a caller cannot tell a
// record they may not touch from a record that does not exist.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		err := c.Errors.Last()
		if err == nil {
			return
		}
		if c.Writer.Status() != http.StatusOK {
			_, _ = c.Writer.WriteString(err.Error())
			return
		}

		// nolint:gocritic
		if errdef.IsBadRequest(err) {
			c.String(http.StatusBadRequest, err.Error())
		} else if errdef.IsUnauthorized(err) {
			c.String(http.StatusUnauthorized, err.Error())
		} else if errdef.IsDuplicated(err) {
			c.String(http.StatusConflict, err.Error())
		} else if errdef.IsUnsupportedMediaType(err) {
			c.String(http.StatusUnsupportedMediaType, err.Error())
		} else if errdef.IsNotFound(err) || errdef.IsForbidden(err) || errdef.IsConflict(err) {
			c.String(http.StatusNotFound, "not found")
		} else {
			id, _ := GetCorrelationID(c.Request.Context())
			err := fmt.Errorf("something went wrong. We'll look into it if you send us the id %q", id)
			c.String(http.StatusInternalServerError, err.Error())
		}
	}
}
