package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rmgen/rmgen-backend/config"
	"github.com/rmgen/rmgen-backend/controller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"
)

type panickingController struct {
	controller.APIController
}

func (panickingController) HealthCheck(*gin.Context) {
	panic("unexpected")
}

func (panickingController) GetOAuthURL(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"oauth_url": "https://github.com/login/oauth/authorize"})
}

func TestRegisterProviders(t *testing.T) {
	container := dig.New()

	require.NoError(t, RegisterProviders(container, *config.GetDefault()))

	// constructors run lazily, only the graph is checked here
	assert.NoError(t, container.Invoke(func(cfg config.Config) {
		assert.Equal(t, "5001", cfg.API.ListenPort)
	}))
}

func TestRouterRecoversFromPanic(t *testing.T) {
	router := newRouter(*config.GetDefault(), panickingController{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.JSONEq(t, `{"error":"An unexpected error occurred","code":"GENERIC_ERROR"}`, recorder.Body.String())
}

func TestRouterCORS(t *testing.T) {
	router := newRouter(*config.GetDefault(), panickingController{})

	req := httptest.NewRequest(http.MethodGet, "/api/github-oauth-url", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newRouter(*config.GetDefault(), panickingController{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
