package handler

import (
	"fmt"

	"github.com/offerboard/offer-manager/internal/errdef"

	"github.com/gin-gonic/gin"
)

func DataBinder(c *gin.Context, req interface{}) error {
	if c.ContentType() != "application/json" {
		reason := fmt.Sprintf("%s only accepts content of type application/json", c.FullPath())
		return errdef.NewUnsupportedMediaType(reason)
	}

	if err := c.ShouldBind(req); err != nil {
		message := fmt.Sprintf("Error binding data: %+v\n", err)
		return errdef.NewBadRequest(message)
	}

	return nil
}
