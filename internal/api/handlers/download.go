package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/andresuchdata/salesdash/backend-go/internal/export"
	"github.com/gin-gonic/gin"
)

// writeDownload renders into memory first so a failure still gets a JSON
// error instead of a truncated file.
func writeDownload(c *gin.Context, filename string, format export.Format, render func(w io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		respondError(c, "export failed", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
