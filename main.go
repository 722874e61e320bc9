package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rmgen/rmgen-backend/config"
	"github.com/rmgen/rmgen-backend/controller"
	"github.com/rmgen/rmgen-backend/logger"
	"github.com/rmgen/rmgen-backend/model"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFilePath string
	var listenPort string

	cmd := &cobra.Command{
		Use:           "rmgen-backend",
		Short:         "HTTP gateway generating README files for GitHub repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFilePath)
			if err != nil {
				log.WithError(err).Error("unable to load configuration")
				return err
			}

			if listenPort != "" {
				cfg.API.ListenPort = listenPort
			}

			return run(cmd.Context(), *cfg)
		},
	}

	cmd.Flags().StringVar(&configFilePath, "config", "", "path to the toml configuration file (default: config/config.toml when present)")
	cmd.Flags().StringVar(&listenPort, "port", "", "listen port, overrides PORT and the configuration file")

	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	// configure logger
	logFile, err := logger.Setup(cfg)
	if err != nil {
		log.WithError(err).Error("unable to open diagnostic log file")
		return err
	}
	defer logFile.Close()

	// setup handlers and services
	apiController, err := injectAPIController(cfg)
	if err != nil {
		log.WithError(err).Error("unable to wire application services")
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.API.ListenPort,
		Handler:           newRouter(cfg, apiController),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)

	// start with configuration
	go func() {
		log.Info("server listening on port " + cfg.API.ListenPort)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("error while starting server")
			serverErrors <- err
		}
	}()

	// wait for interrupt signal to gracefully shut down the server with a timeout of 15 seconds.
	// kill default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err
	case <-quit:
	}

	log.Info("SIGINT, SIGTERM received, will shut down server ...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
		return err
	}

	log.Info("Application stopped gracefully !")
	return nil
}

// newRouter define all routes
func newRouter(cfg config.Config, apiController controller.APIController) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			log.WithField("panic", fmt.Sprint(recovered)).Error("panic recovered while serving request")
			c.AbortWithStatusJSON(http.StatusInternalServerError, model.APIError{
				Error: "An unexpected error occurred",
				Code:  "GENERIC_ERROR",
			})
		}),
		logger.Middleware(),
		cors.New(cors.Config{
			AllowOrigins: cfg.API.AllowOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Authorization", "Content-Type", "Content-Length", "Accept-Encoding", "Accept", "Origin", "Cache-Control", "X-Requested-With"},
			MaxAge:       12 * time.Hour,
		}),
	)

	api := router.Group("/api")
	{
		api.POST("/validate-repo", apiController.ValidateRepository)
		api.POST("/generate-readme", apiController.GenerateReadme)
		api.POST("/refine-readme", apiController.RefineReadme)
		api.GET("/github-oauth-url", apiController.GetOAuthURL)
		api.POST("/github-callback", apiController.GithubCallback)
		api.GET("/github-repos", apiController.GetUserRepositories)
		api.GET("/health", apiController.HealthCheck)
	}

	return router
}
