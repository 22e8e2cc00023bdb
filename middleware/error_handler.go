// Package middleware holds the gin middleware shared by every route.
package middleware

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/folio-site/folio-backend/errors"
	"github.com/folio-site/folio-backend/logger"
	"github.com/folio-site/folio-backend/types"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error attached with c.Error as an
// ErrorResponse. Handlers never write error bodies themselves.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		last := c.Errors.Last()
		err := last.Err

		var appError *errors.AppError
		if stderrors.As(err, &appError) {
			statusCode := appError.GetHTTPStatus()
			logger.LogHTTPError(c, err, statusCode, fmt.Sprintf("%s error", appError.Type))

			response := types.ErrorResponse{
				Type:    string(appError.Type),
				Message: appError.Message,
				Code:    strconv.Itoa(statusCode),
			}
			if appError.Detail != "" && (gin.IsDebugging() || exposesDetail(appError.Type)) {
				response.Details = appError.Detail
			}
			c.JSON(statusCode, response)
			return
		}

		if last.Type == gin.ErrorTypeBind {
			logger.LogHTTPError(c, err, http.StatusBadRequest, "Request binding error")

			response := types.ErrorResponse{
				Type:    string(errors.ValidationError),
				Message: "Failed to bind request",
				Code:    strconv.Itoa(http.StatusBadRequest),
			}
			if gin.IsDebugging() {
				response.Details = err.Error()
			}
			c.JSON(http.StatusBadRequest, response)
			return
		}

		logger.LogHTTPError(c, err, http.StatusInternalServerError, "Unexpected server error")

		response := types.ErrorResponse{
			Type:    string(errors.ServerError),
			Message: "Internal Server Error",
			Code:    strconv.Itoa(http.StatusInternalServerError),
		}
		if gin.IsDebugging() {
			response.Details = err.Error()
		}
		c.JSON(http.StatusInternalServerError, response)
	}
}

// exposesDetail lists the error types whose Detail is shown outside debug mode.
// Store errors carry the store's own message back to the caller.
func exposesDetail(t errors.ErrorType) bool {
	switch t {
	case errors.ValidationError, errors.NotFoundError, errors.StoreError:
		return true
	default:
		return false
	}
}
