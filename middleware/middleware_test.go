package middleware

import (
	"net/http"
	"net/http/httptest"

	"github.com/folio-site/folio-backend/logger"
	"github.com/gin-gonic/gin"
)

func init() {
	logger.IsTest = true
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
