// Package handlers contains the gin request handlers of the HTTP API.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/CatalogMatch/pkg/errors"
)

// errorBody is the uniform error response shape.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps an application error onto its HTTP status and writes the
// uniform error body.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	c.AbortWithStatusJSON(errors.HTTPStatus(code), errorBody{
		Code:    code.String(),
		Message: err.Error(),
	})
}
