package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JairPrada/radarcol-tfm/middleware"
	"github.com/JairPrada/radarcol-tfm/service"
	"github.com/gin-gonic/gin"
)

// writeError maps pipeline errors onto HTTP statuses
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		notFound  *service.NotFoundError
		schemaErr *service.SchemaError
		httpErr   *service.HTTPError
		netErr    *service.NetworkError
	)

	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, service.ErrInvalidPage),
		errors.Is(err, service.ErrInvalidPageSize):
		middleware.AbortWithError(c, http.StatusBadRequest, middleware.CodeBadRequest, err.Error())
	case errors.As(err, &notFound):
		middleware.AbortWithError(c, http.StatusNotFound, middleware.CodeNotFound, notFound.Error())
	case errors.As(err, &schemaErr):
		middleware.AbortWithError(c, http.StatusBadGateway, middleware.CodeUpstream, "Scoring API returned an unexpected response")
	case errors.As(err, &httpErr):
		middleware.AbortWithError(c, http.StatusBadGateway, middleware.CodeUpstream,
			fmt.Sprintf("Scoring API answered HTTP %d", httpErr.StatusCode))
	case errors.As(err, &netErr):
		middleware.AbortWithError(c, http.StatusServiceUnavailable, middleware.CodeUnavailable, "Scoring API is unreachable")
	default:
		middleware.AbortWithError(c, http.StatusInternalServerError, middleware.CodeInternal, "Internal server error")
	}
}
