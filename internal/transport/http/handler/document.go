package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gopherai-pdfchat/internal/app"
	"gopherai-pdfchat/internal/model"
	"gopherai-pdfchat/internal/transport/http/response"
)

const (
	uploadField = "pdfs"
	// maxUploadFiles bounds the request body together with the per-file cap.
	maxUploadFiles = 20
	multipartSlack = 64 << 10
)

type DocumentHandler struct {
	documentService *app.DocumentService
	maxFileBytes    int64
	logger          *zerolog.Logger
}

type skippedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`

	cause error
}

type uploadResult struct {
	Uploaded  []model.DocumentSummary `json:"uploaded"`
	Skipped   []skippedFile           `json:"skipped"`
	Documents []model.DocumentSummary `json:"documents"`
}

func NewDocumentHandler(documentService *app.DocumentService, maxFileBytes int64, logger *zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		maxFileBytes:    maxFileBytes,
		logger:          logger,
	}
}

// Upload accepts a multipart form with one or more files under "pdfs". Files
// that are not PDFs, exceed the size cap or clash with an existing name are
// skipped. When every file was skipped for the same reason the request fails
// with that reason.
func (h *DocumentHandler) Upload(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}

	if h.maxFileBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileBytes*maxUploadFiles+multipartSlack)
	}
	form, err := c.MultipartForm()
	if err != nil {
		if isBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, "upload too large")
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid multipart form")
		return
	}
	files := form.File[uploadField]
	if len(files) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "no files uploaded")
		return
	}

	result := uploadResult{
		Uploaded: []model.DocumentSummary{},
		Skipped:  []skippedFile{},
	}
	skip := func(filename string, cause error, reason string) {
		result.Skipped = append(result.Skipped, skippedFile{Filename: filename, Reason: reason, cause: cause})
	}
	for _, fh := range files {
		if !app.IsPDF(fh.Filename) {
			skip(fh.Filename, app.ErrUnsupportedFile, app.ErrUnsupportedFile.Error())
			continue
		}
		if h.maxFileBytes > 0 && fh.Size > h.maxFileBytes {
			skip(fh.Filename, app.ErrFileTooLarge, app.ErrFileTooLarge.Error())
			continue
		}

		f, err := fh.Open()
		if err != nil {
			skip(fh.Filename, err, "failed to read file")
			continue
		}
		doc, err := h.documentService.Upload(c.Request.Context(), sess, fh.Filename, f)
		_ = f.Close()
		if err != nil {
			reason := err.Error()
			if !errors.Is(err, app.ErrDocumentExists) && !errors.Is(err, app.ErrUnsupportedFile) {
				h.logger.Error().Err(err).Str("filename", fh.Filename).Msg("store upload failed")
				reason = "failed to store file"
			}
			skip(fh.Filename, err, reason)
			continue
		}
		result.Uploaded = append(result.Uploaded, doc.Summary())
	}

	if len(result.Uploaded) == 0 {
		if status, code, ok := commonSkipCause(result.Skipped); ok {
			response.Error(c, status, code, result.Skipped[0].Reason)
			return
		}
	}

	result.Documents = h.documentService.List(sess)
	response.OK(c, result)
}

// commonSkipCause maps a batch whose files all failed for one known reason to
// its response status and code.
func commonSkipCause(skipped []skippedFile) (int, int, bool) {
	causes := []struct {
		err    error
		status int
		code   int
	}{
		{app.ErrUnsupportedFile, http.StatusUnsupportedMediaType, response.CodeUnsupportedFile},
		{app.ErrFileTooLarge, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge},
		{app.ErrDocumentExists, http.StatusConflict, response.CodeDocumentExists},
	}
	for _, cause := range causes {
		all := len(skipped) > 0
		for _, s := range skipped {
			if !errors.Is(s.cause, cause.err) {
				all = false
				break
			}
		}
		if all {
			return cause.status, cause.code, true
		}
	}
	return 0, 0, false
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

func (h *DocumentHandler) List(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	response.OK(c, gin.H{"documents": h.documentService.List(sess)})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	name := c.Param("name")
	if err := h.documentService.Remove(sess, name); err != nil {
		if errors.Is(err, app.ErrDocumentNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete document failed")
		}
		return
	}
	response.OK(c, gin.H{
		"deleted":   name,
		"documents": h.documentService.List(sess),
	})
}

func (h *DocumentHandler) DeleteAll(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	h.documentService.RemoveAll(sess)
	response.OK(c, gin.H{"documents": h.documentService.List(sess)})
}

// ServeFile streams one of the session's own uploads.
func (h *DocumentHandler) ServeFile(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	path, err := h.documentService.StoredFile(sess, c.Param("filename"))
	if err != nil {
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, "file not found")
		return
	}
	c.File(path)
}
