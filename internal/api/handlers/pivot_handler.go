package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/andresuchdata/salesdash/backend-go/internal/export"
	"github.com/andresuchdata/salesdash/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

type PivotHandler struct {
	service *service.PivotService
}

func NewPivotHandler(service *service.PivotService) *PivotHandler {
	return &PivotHandler{service: service}
}

// GetPivot handles GET /pivot?closing=YYYY-MM&historical=YYYY-MM&region=...
func (h *PivotHandler) GetPivot(c *gin.Context) {
	req, err := parsePivotRequest(c)
	if err != nil {
		respondError(c, "invalid pivot request", err)
		return
	}
	table, err := h.service.Aggregate(c.Request.Context(), req)
	if err != nil {
		respondError(c, "failed to build pivot", err)
		return
	}
	c.JSON(http.StatusOK, table)
}

func (h *PivotHandler) ExportPivot(c *gin.Context) {
	req, err := parsePivotRequest(c)
	if err != nil {
		respondError(c, "invalid pivot request", err)
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, "unsupported export format", err)
		return
	}
	filename := fmt.Sprintf("pivot_%s_%s%s", req.Period.Closing, req.Period.Historical, format.Extension())
	writeDownload(c, filename, format, func(w io.Writer) error {
		return h.service.Export(c.Request.Context(), req, format, w)
	})
}

func (h *PivotHandler) GetOptions(c *gin.Context) {
	options, err := h.service.FilterOptions(c.Request.Context())
	if err != nil {
		respondError(c, "failed to load filter options", err)
		return
	}
	c.JSON(http.StatusOK, options)
}

func (h *PivotHandler) GetCalendar(c *gin.Context) {
	year, err := parseYear(c)
	if err != nil {
		respondError(c, "invalid year", err)
		return
	}
	entries, err := h.service.Calendar(year)
	if err != nil {
		respondError(c, "failed to load calendar", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"year":    year,
		"range":   h.service.CalendarRange(),
		"entries": entries,
	})
}
