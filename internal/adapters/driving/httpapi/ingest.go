package httpapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// FormFieldFiles is the multipart field holding uploaded documents.
const FormFieldFiles = "files"

// ingestResponse is the success body of the ingest route.
type ingestResponse struct {
	Success bool `json:"success"`
	*domain.IngestResult
}

func (s *Server) handleIngest(c *gin.Context) {
	if s.ports.Ingest == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorResponse{Error: "ingest service is not configured"})
		return
	}
	slug := c.Param("slug")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		if statusFor(err) == http.StatusRequestEntityTooLarge {
			abort(c, err)
			return
		}
		abort(c, fmt.Errorf("%w: expected multipart form with %q field", domain.ErrBadRequest, FormFieldFiles))
		return
	}

	headers := form.File[FormFieldFiles]
	if len(headers) == 0 {
		abort(c, fmt.Errorf("%w: no files provided", domain.ErrBadRequest))
		return
	}

	files := make([]domain.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		file, err := readUpload(fh)
		if err != nil {
			abort(c, err)
			return
		}
		files = append(files, file)
	}

	result, err := s.ports.Ingest.Ingest(c.Request.Context(), slug, files)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, ingestResponse{Success: true, IngestResult: result})
}

func readUpload(fh *multipart.FileHeader) (domain.UploadedFile, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.UploadedFile{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return domain.UploadedFile{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return domain.UploadedFile{
		Name:     fh.Filename,
		MIMEType: fh.Header.Get("Content-Type"),
		Content:  content,
	}, nil
}
