package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/andresuchdata/salesdash/backend-go/internal/export"
	"github.com/andresuchdata/salesdash/backend-go/internal/pipeline"
	"github.com/andresuchdata/salesdash/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

type DatasetHandler struct {
	service *service.DatasetService
}

func NewDatasetHandler(service *service.DatasetService) *DatasetHandler {
	return &DatasetHandler{service: service}
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Upload appends every uploaded file (and every selected sheet) as its own
// part. Form fields: files (repeated), sheets (optional, repeated or
// comma-separated, workbooks only), typed (optional boolean).
func (h *DatasetHandler) Upload(c *gin.Context) {
	partition, err := partitionParam(c)
	if err != nil {
		respondError(c, "unknown partition", err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "invalid form data")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		badRequest(c, "no files provided")
		return
	}

	var sheets []string
	for _, v := range form.Value["sheets"] {
		sheets = append(sheets, splitComma(v)...)
	}
	typed, err := parseBoolField(form.Value["typed"])
	if err != nil {
		badRequest(c, "typed must be a boolean")
		return
	}

	jobs := make([]pipeline.Job, 0, len(files))
	for _, fh := range files {
		data, err := readUpload(fh)
		if err != nil {
			respondError(c, "failed to read upload", err)
			return
		}
		jobs = append(jobs, pipeline.Job{
			Partition: partition,
			Filename:  fh.Filename,
			Data:      data,
			Sheets:    sheets,
			Typed:     typed,
		})
	}

	results, err := h.service.Ingest(c.Request.Context(), jobs)
	if err != nil {
		respondError(c, "ingest interrupted", err)
		return
	}

	failed := pipeline.Failed(results)
	body := gin.H{
		"partition": partition,
		"results":   results,
		"appended":  len(results) - failed,
		"failed":    failed,
	}
	if failed == len(results) {
		status := http.StatusBadRequest
		for _, r := range results {
			if s := statusFor(r.Err()); s > status {
				status = s
			}
		}
		body["error"] = "no file could be ingested"
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// Sheets lists the sheets of one uploaded workbook (form field file).
func (h *DatasetHandler) Sheets(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "no file provided")
		return
	}
	data, err := readUpload(fh)
	if err != nil {
		respondError(c, "failed to read upload", err)
		return
	}
	names, err := h.service.SheetNames(fh.Filename, data)
	if err != nil {
		respondError(c, "failed to list sheets", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"filename": fh.Filename, "sheets": names})
}

func (h *DatasetHandler) Parts(c *gin.Context) {
	partition, err := partitionParam(c)
	if err != nil {
		respondError(c, "unknown partition", err)
		return
	}
	parts, err := h.service.Parts(partition)
	if err != nil {
		respondError(c, "failed to list parts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"partition": partition, "parts": parts})
}

func (h *DatasetHandler) Preview(c *gin.Context) {
	partition, err := partitionParam(c)
	if err != nil {
		respondError(c, "unknown partition", err)
		return
	}
	limit := parsePositiveIntWithDefault(c.Query("limit"), 0)
	records, err := h.service.Preview(c.Request.Context(), partition, limit)
	if err != nil {
		respondError(c, "failed to preview dataset", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"partition": partition, "count": len(records), "records": records})
}

func (h *DatasetHandler) Schema(c *gin.Context) {
	partition, err := partitionParam(c)
	if err != nil {
		respondError(c, "unknown partition", err)
		return
	}
	cols, err := h.service.Describe(partition)
	if err != nil {
		respondError(c, "failed to describe dataset", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"partition": partition, "columns": cols})
}

func (h *DatasetHandler) Summary(c *gin.Context) {
	partition, err := partitionParam(c)
	if err != nil {
		respondError(c, "unknown partition", err)
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), partition)
	if err != nil {
		respondError(c, "failed to summarize dataset", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *DatasetHandler) Runs(c *gin.Context) {
	partition, err := partitionParam(c)
	if err != nil {
		respondError(c, "unknown partition", err)
		return
	}
	runs, err := h.service.Runs(c.Request.Context(), partition, parsePositiveIntWithDefault(c.Query("limit"), 50))
	if err != nil {
		respondError(c, "failed to list ingest runs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"partition": partition, "runs": runs})
}

func (h *DatasetHandler) Export(c *gin.Context) {
	partition, err := partitionParam(c)
	if err != nil {
		respondError(c, "unknown partition", err)
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, "unsupported export format", err)
		return
	}
	writeDownload(c, string(partition)+format.Extension(), format, func(w io.Writer) error {
		return h.service.Export(c.Request.Context(), partition, format, w)
	})
}

func (h *DatasetHandler) Reset(c *gin.Context) {
	partition, err := partitionParam(c)
	if err != nil {
		respondError(c, "unknown partition", err)
		return
	}
	if err := h.service.Reset(c.Request.Context(), partition); err != nil {
		respondError(c, "failed to reset dataset", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"partition": partition, "reset": true})
}
