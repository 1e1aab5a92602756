package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/workouts/internal/exporters"
)

// ExporterFactory builds a snapshot exporter for a format.
type ExporterFactory func(format exporters.Format) exporters.Exporter

type ExportController struct {
	newExporter ExporterFactory
	now         func() time.Time
}

func NewExportController(newExporter ExporterFactory) *ExportController {
	return &ExportController{newExporter: newExporter, now: time.Now}
}

// Download renders a snapshot of the whole store as an attachment.
// GET /api/export?format=json|yaml
func (ec *ExportController) Download(c *gin.Context) {
	format, err := exporters.ParseFormat(c.Query("format"))
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	var buf bytes.Buffer
	result, err := ec.newExporter(format).Export(c.Request.Context(), &buf)
	if err != nil {
		respondInternalError(c, err, "export snapshot")
		return
	}

	contentType := "application/json"
	if format == exporters.FormatYAML {
		contentType = "application/yaml"
	}
	filename := fmt.Sprintf("workouts-%s.%s", ec.now().UTC().Format("20060102"), format.Extension())

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("X-Export-Workouts", strconv.Itoa(result.WorkoutsProcessed))
	c.Header("X-Export-Completions", strconv.Itoa(result.CompletionsProcessed))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
