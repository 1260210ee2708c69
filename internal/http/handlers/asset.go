package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domain "github.com/yungbote/assets-backend/internal/domain/assets"
	"github.com/yungbote/assets-backend/internal/http/response"
	"github.com/yungbote/assets-backend/internal/modules/assets"
	"github.com/yungbote/assets-backend/internal/platform/ctxutil"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

// DefaultMaxUploadBytes caps a whole upload request, multipart overhead
// included.
const DefaultMaxUploadBytes int64 = 10 << 20

type AssetHandler struct {
	log            *logger.Logger
	assets         assets.Service
	maxUploadBytes int64
}

type AssetHandlerDeps struct {
	Log            *logger.Logger
	Assets         assets.Service
	MaxUploadBytes int64
}

func NewAssetHandler(log *logger.Logger, svc assets.Service) *AssetHandler {
	return NewAssetHandlerWithDeps(AssetHandlerDeps{Log: log, Assets: svc})
}

func NewAssetHandlerWithDeps(deps AssetHandlerDeps) *AssetHandler {
	RegisterValidators()
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	limit := deps.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	return &AssetHandler{
		log:            log.With("handler", "AssetHandler"),
		assets:         deps.Assets,
		maxUploadBytes: limit,
	}
}

type uploadForm struct {
	EntityType   string   `form:"entityType" binding:"required,entitytype"`
	EntityID     string   `form:"entityId" binding:"required"`
	Tags         []string `form:"tags"`
	Description  string   `form:"description"`
	AltText      string   `form:"altText"`
	IsPrimary    *bool    `form:"isPrimary"`
	DisplayOrder *int     `form:"displayOrder" binding:"omitempty,min=1"`
}

type listRequest struct {
	EntityType string `json:"entityType" form:"entityType" binding:"omitempty,entitytype"`
	EntityID   string `json:"entityId" form:"entityId"`
	FileType   string `json:"fileType" form:"fileType" binding:"omitempty,filetype"`
	Status     string `json:"status" form:"status" binding:"omitempty,assetstatus"`
	Page       int    `json:"page" form:"page" binding:"omitempty,min=1"`
	Limit      int    `json:"limit" form:"limit" binding:"omitempty,min=1"`
}

type idRequest struct {
	ID string `json:"id" binding:"required,uuid"`
}

type galleryRequest struct {
	EntityType string `json:"entityType" binding:"required,entitytype"`
	EntityID   string `json:"entityId" binding:"required"`
}

type setPrimaryRequest struct {
	EntityType   string `json:"entityType" binding:"required,entitytype"`
	EntityID     string `json:"entityId" binding:"required"`
	AssetID      string `json:"assetId" binding:"required,uuid"`
	DisplayOrder *int   `json:"displayOrder" binding:"omitempty,min=1"`
}

type reorderRequest struct {
	EntityType string   `json:"entityType" binding:"required,entitytype"`
	EntityID   string   `json:"entityId" binding:"required"`
	AssetIDs   []string `json:"assetIds" binding:"required,min=1,dive,uuid"`
}

// POST /api/file/v1/upload-file
func (h *AssetHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			response.RespondError(c, http.StatusBadRequest, string(assets.KindValidation),
				fmt.Errorf("File too large: request exceeds %d MiB", h.maxUploadBytes>>20))
		case errors.Is(err, http.ErrMissingFile):
			response.RespondError(c, http.StatusBadRequest, string(assets.KindValidation), errors.New("No file uploaded"))
		default:
			response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		}
		return
	}

	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		response.RespondError(c, http.StatusBadRequest, string(assets.KindValidation), errors.New(bindingMessage(err)))
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}

	rec, err := h.assets.Upload(c.Request.Context(), assets.UploadInput{
		Data:         data,
		FileName:     fh.Filename,
		MimeType:     fh.Header.Get("Content-Type"),
		EntityType:   domain.EntityType(form.EntityType),
		EntityID:     form.EntityID,
		Tags:         splitTags(form.Tags),
		Description:  form.Description,
		AltText:      form.AltText,
		IsPrimary:    form.IsPrimary,
		DisplayOrder: form.DisplayOrder,
		Audit:        auditFrom(c),
	})
	if err != nil {
		h.fail(c, "upload", err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// POST /api/file/v1/list-files
func (h *AssetHandler) ListFiles(c *gin.Context) {
	var req listRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, string(assets.KindValidation), errors.New(bindingMessage(err)))
		return
	}
	h.list(c, req)
}

// GET /api/file/v1/list-files
func (h *AssetHandler) ListFilesQuery(c *gin.Context) {
	var req listRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, string(assets.KindValidation), errors.New(bindingMessage(err)))
		return
	}
	h.list(c, req)
}

func (h *AssetHandler) list(c *gin.Context, req listRequest) {
	res, err := h.assets.FindAll(c.Request.Context(), assets.Query{
		EntityType: domain.EntityType(req.EntityType),
		EntityID:   req.EntityID,
		FileType:   domain.FileType(req.FileType),
		Status:     domain.AssetStatus(req.Status),
		Page:       req.Page,
		Limit:      req.Limit,
	})
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/file/v1/find-file
func (h *AssetHandler) FindFile(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	h.findOne(c, id)
}

// GET /api/file/v1/files/:id
func (h *AssetHandler) GetFile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.findOne(c, id)
}

func (h *AssetHandler) findOne(c *gin.Context, id uuid.UUID) {
	rec, err := h.assets.FindOne(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "find", err)
		return
	}
	response.RespondOK(c, rec)
}

// POST /api/file/v1/delete-file
func (h *AssetHandler) DeleteFile(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	h.delete(c, id)
}

// DELETE /api/file/v1/files/:id
func (h *AssetHandler) DeleteFileByPath(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.delete(c, id)
}

func (h *AssetHandler) delete(c *gin.Context, id uuid.UUID) {
	out, err := h.assets.Delete(c.Request.Context(), id, auditFrom(c))
	if err != nil {
		h.fail(c, "delete", err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/file/v1/archive-file
func (h *AssetHandler) ArchiveFile(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	rec, err := h.assets.Archive(c.Request.Context(), id, auditFrom(c))
	if err != nil {
		h.fail(c, "archive", err)
		return
	}
	response.RespondOK(c, rec)
}

// POST /api/file/v1/restore-file
func (h *AssetHandler) RestoreFile(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	rec, err := h.assets.Restore(c.Request.Context(), id, auditFrom(c))
	if err != nil {
		h.fail(c, "restore", err)
		return
	}
	response.RespondOK(c, rec)
}

// POST /api/file/v1/entity-gallery
func (h *AssetHandler) EntityGallery(c *gin.Context) {
	var req galleryRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.assets.GetEntityGallery(c.Request.Context(), domain.EntityType(req.EntityType), req.EntityID)
	if err != nil {
		h.fail(c, "gallery", err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/file/v1/set-primary-image
func (h *AssetHandler) SetPrimaryImage(c *gin.Context) {
	var req setPrimaryRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.assets.SetPrimaryImage(c.Request.Context(), assets.SetPrimaryInput{
		EntityType:   domain.EntityType(req.EntityType),
		EntityID:     req.EntityID,
		AssetID:      uuid.MustParse(req.AssetID),
		DisplayOrder: req.DisplayOrder,
		Audit:        auditFrom(c),
	})
	if err != nil {
		h.fail(c, "set_primary", err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/file/v1/reorder-images
func (h *AssetHandler) ReorderImages(c *gin.Context) {
	var req reorderRequest
	if !bindJSON(c, &req) {
		return
	}
	ids := make([]uuid.UUID, 0, len(req.AssetIDs))
	for _, raw := range req.AssetIDs {
		ids = append(ids, uuid.MustParse(raw))
	}
	out, err := h.assets.ReorderImages(c.Request.Context(), assets.ReorderInput{
		EntityType: domain.EntityType(req.EntityType),
		EntityID:   req.EntityID,
		AssetIDs:   ids,
		Audit:      auditFrom(c),
	})
	if err != nil {
		h.fail(c, "reorder", err)
		return
	}
	response.RespondOK(c, out)
}

func (h *AssetHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var req idRequest
	if !bindJSON(c, &req) {
		return uuid.Nil, false
	}
	return uuid.MustParse(req.ID), true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, string(assets.KindValidation), errors.New(bindingMessage(err)))
		return false
	}
	return true
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, string(assets.KindValidation), errors.New("id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// fail renders a service error. Server-side kinds are logged with their cause
// and answered with the bare code.
func (h *AssetHandler) fail(c *gin.Context, op string, err error) {
	var ae *assets.Error
	if !errors.As(err, &ae) {
		ae = &assets.Error{Kind: assets.KindStorage, Op: op, Cause: err}
	}
	status := ae.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.log.Error("asset request failed", "op", op, "code", ae.Code(), "route", c.FullPath(), "error", err)
	}
	_ = c.Error(err)
	msg := ae.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	response.RespondError(c, status, ae.Code(), errors.New(msg))
}

func auditFrom(c *gin.Context) assets.Audit {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		return assets.Audit{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
	}
	return assets.Audit{IPAddress: rd.ClientIP, UserAgent: rd.UserAgent}
}

// splitTags accepts repeated tags fields as well as one comma separated
// value.
func splitTags(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, t := range strings.Split(r, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}
