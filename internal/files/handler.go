package files

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"filevault-backend/internal/quota"
	"filevault-backend/internal/shared/server/middleware"
	"filevault-backend/internal/shared/server/respond"
	"filevault-backend/internal/users"
	"filevault-backend/internal/validation"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc   *Service
	Users *users.Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, usersSvc *users.Service) *Handler {
	return &Handler{Svc: svc, Users: usersSvc}
}

// RegisterRoutes attaches file routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/files", h.upload)
	rg.POST("/files/batch", h.uploadBatch)
	rg.GET("/files/:name", h.download)
	rg.DELETE("/files/:name", h.remove)
}

func (h *Handler) actor(c *gin.Context) (Actor, bool) {
	user, err := h.Users.EnsureActor(
		c.Request.Context(),
		middleware.UserIDFromContext(c),
		middleware.UsernameFromContext(c),
	)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to resolve user", nil)
		return Actor{}, false
	}
	return Actor{ID: user.ID, Role: user.Role}, true
}

func (h *Handler) upload(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	data, err := readPart(fileHeader)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	rec, err := h.Svc.Upload(c.Request.Context(), actor, fileHeader.Filename, partContentType(fileHeader), data)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, rec)
}

func (h *Handler) uploadBatch(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize*int64(maxBatchHeaders(h.Svc.MaxBatchSize)))

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid multipart form", nil)
		return
	}
	headers := form.File["files"]

	items := make([]BatchItem, 0, len(headers))
	for _, header := range headers {
		item := BatchItem{
			FileName:    header.Filename,
			ContentType: partContentType(header),
		}
		item.Data, item.ReadErr = readPart(header)
		items = append(items, item)
	}

	outcomes, err := h.Svc.UploadBatch(c.Request.Context(), actor, items)
	if err != nil {
		var berr *BatchError
		if errors.As(err, &berr) {
			respond.Error(c, http.StatusBadRequest, "batch_failed", err.Error(), berr.Outcomes)
			return
		}
		h.writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, gin.H{"results": outcomes})
}

func (h *Handler) download(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	dl, err := h.Svc.Download(c.Request.Context(), actor, c.Param("name"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	contentType := dl.Record.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	encoded := url.PathEscape(dl.Record.OriginalName)
	c.Header("Content-Disposition", `attachment; filename*=UTF-8''`+encoded)
	c.Data(http.StatusOK, contentType, dl.Data)
}

func (h *Handler) remove(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	if err := h.Svc.Delete(c.Request.Context(), actor, c.Param("name")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", verr.Reason, nil)
	case errors.Is(err, ErrEmptyBatch), errors.Is(err, ErrTooManyFiles):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, quota.ErrQuotaExceeded):
		respond.Error(c, http.StatusConflict, "quota_exceeded", "upload quota exceeded", nil)
	case errors.Is(err, ErrDuplicateFile):
		respond.Error(c, http.StatusConflict, "duplicate_file", "file already uploaded", nil)
	case errors.Is(err, ErrAccessDenied):
		respond.Error(c, http.StatusForbidden, "access_denied", "not allowed", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "operation failed", nil)
	}
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func partContentType(header *multipart.FileHeader) string {
	return header.Header.Get("Content-Type")
}

func maxBatchHeaders(limit int) int {
	if limit <= 0 {
		return 1
	}
	return limit
}
