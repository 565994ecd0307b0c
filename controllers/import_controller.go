package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"cellar-service/apperrors"
	"cellar-service/middleware"
	"cellar-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImportController exposes the spreadsheet import pipeline over HTTP.
type ImportController struct {
	service   ImportServiceAPI
	cache     *CacheManager
	validator *RequestValidator
	maxUpload int64
	timeout   time.Duration
}

func NewImportController(service ImportServiceAPI, cache *CacheManager, validator *RequestValidator, maxUpload int64) *ImportController {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadSize
	}
	return &ImportController{
		service:   service,
		cache:     cache,
		validator: validator,
		maxUpload: maxUpload,
		timeout:   DefaultContextTimeout,
	}
}

// UploadImport handles POST /imports: a multipart spreadsheet upload.
// Unknown extensions are rejected before any parsing, and the payload is
// read in bounded chunks against the upload limit.
func (h *ImportController) UploadImport(c *gin.Context) {
	owner := middleware.OwnerIDFrom(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	kind, err := h.validator.FileKindFromFilename(fileHeader.Filename)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file"})
		return
	}
	defer file.Close()

	data, err := ReadBounded(file, h.maxUpload)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	batch, suggested, err := h.service.Upload(ctx, owner, fileHeader.Filename, kind, data)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	h.cache.Invalidate(ctx, owner)
	c.JSON(http.StatusCreated, gin.H{
		"batch":             toBatchResponse(batch),
		"suggested_mapping": suggested,
	})
}

// ConfirmMapping handles PUT /imports/:id/mapping.
func (h *ImportController) ConfirmMapping(c *gin.Context) {
	owner := middleware.OwnerIDFrom(c)

	var req ConfirmMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		apperrors.Respond(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	batch, err := h.service.ConfirmMapping(ctx, owner, c.Param("id"), req.Mapping)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	h.cache.Invalidate(ctx, owner)
	c.JSON(http.StatusOK, toBatchResponse(batch))
}

// ProcessImport handles POST /imports/:id/process.
func (h *ImportController) ProcessImport(c *gin.Context) {
	owner := middleware.OwnerIDFrom(c)

	// The body is optional; an absent or empty body (including chunked
	// requests with no payload) keeps the defaults.
	req := ProcessRequest{}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		apperrors.Respond(c, err)
		return
	}

	opts := services.ProcessOptions{SkipNonWineRows: true, DefaultQuantity: 1}
	if req.SkipNonWineRows != nil {
		opts.SkipNonWineRows = *req.SkipNonWineRows
	}
	if req.DefaultQuantity != nil {
		opts.DefaultQuantity = *req.DefaultQuantity
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.service.Process(ctx, owner, c.Param("id"), opts)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	h.cache.Invalidate(ctx, owner)
	c.JSON(http.StatusOK, result)
}

// ListImports handles GET /imports.
func (h *ImportController) ListImports(c *gin.Context) {
	owner := middleware.OwnerIDFrom(c)

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if cached, ok := h.cache.GetBatchList(ctx, owner); ok {
		c.JSON(http.StatusOK, gin.H{"imports": cached})
		return
	}

	batches, err := h.service.List(ctx, owner)
	if err != nil {
		zap.L().Error("failed to list imports", zap.Error(err))
		apperrors.Respond(c, err)
		return
	}

	responses := make([]BatchResponse, 0, len(batches))
	for _, b := range batches {
		responses = append(responses, toBatchResponse(b))
	}
	h.cache.SetBatchListAsync(owner, responses)
	c.JSON(http.StatusOK, gin.H{"imports": responses})
}

// GetImport handles GET /imports/:id.
func (h *ImportController) GetImport(c *gin.Context) {
	owner := middleware.OwnerIDFrom(c)

	ctx, cancel := h.requestContext(c)
	defer cancel()

	batch, err := h.service.Get(ctx, owner, c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, toBatchResponse(batch))
}

// DeleteImport handles DELETE /imports/:id. Removes bookkeeping only;
// records created from the batch are kept.
func (h *ImportController) DeleteImport(c *gin.Context) {
	owner := middleware.OwnerIDFrom(c)

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.Delete(ctx, owner, c.Param("id")); err != nil {
		apperrors.Respond(c, err)
		return
	}

	h.cache.Invalidate(ctx, owner)
	c.JSON(http.StatusOK, gin.H{"message": "import deleted"})
}

func (h *ImportController) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}
