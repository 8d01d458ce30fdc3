package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/salesdash/backend-go/internal/api/handlers"
	"github.com/andresuchdata/salesdash/backend-go/internal/api/middleware"
	"github.com/andresuchdata/salesdash/backend-go/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Datasets *service.DatasetService
	Pivots   *service.PivotService
}

type Options struct {
	AllowedOrigins []string
	MaxUploadMB    int
}

func NewRouter(services *Services, opts Options) *gin.Engine {
	router := gin.New()
	if opts.MaxUploadMB > 0 {
		router.MaxMultipartMemory = int64(opts.MaxUploadMB) << 20
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(opts.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.Datasets != nil {
			datasetHandler := handlers.NewDatasetHandler(services.Datasets)
			apiGroup.POST("/datasets/sheets", datasetHandler.Sheets)
			datasetGroup := apiGroup.Group("/datasets/:partition")
			{
				datasetGroup.POST("/upload", datasetHandler.Upload)
				datasetGroup.GET("/parts", datasetHandler.Parts)
				datasetGroup.GET("/preview", datasetHandler.Preview)
				datasetGroup.GET("/schema", datasetHandler.Schema)
				datasetGroup.GET("/summary", datasetHandler.Summary)
				datasetGroup.GET("/runs", datasetHandler.Runs)
				datasetGroup.GET("/export", datasetHandler.Export)
				datasetGroup.DELETE("", datasetHandler.Reset)
			}
		}

		if services.Pivots != nil {
			pivotHandler := handlers.NewPivotHandler(services.Pivots)
			apiGroup.GET("/pivot", pivotHandler.GetPivot)
			apiGroup.GET("/pivot/export", pivotHandler.ExportPivot)
			apiGroup.GET("/pivot/options", pivotHandler.GetOptions)
			apiGroup.GET("/calendar", pivotHandler.GetCalendar)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
