package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"catalog-service/internal/audit"
	"catalog-service/internal/domain"
	"catalog-service/internal/storage"
)

type changeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"lastModified,omitempty"`
}

const archiveURLExpiry = 15 * time.Minute

func (h *Handler) listUsers(c *gin.Context) {
	page, size, ok := pageQuery(c)
	if !ok {
		badRequest(c, "invalid page or size")
		return
	}

	result, err := h.admin.List(c.Request.Context(), page, size)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getUser(c *gin.Context) {
	view, err := h.admin.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) changeRole(c *gin.Context) {
	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		h.writeError(c, err)
		return
	}

	view, err := h.admin.ChangeRole(c.Request.Context(), c.Param("id"), role)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) deactivateUser(c *gin.Context) {
	view, err := h.admin.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) activateUser(c *gin.Context) {
	view, err := h.admin.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) recentAudit(c *gin.Context) {
	limit, ok := intQuery(c, "limit")
	if !ok {
		badRequest(c, "invalid limit")
		return
	}
	entries, err := h.trail.Recent(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, auditRecords(entries))
}

func (h *Handler) userAudit(c *gin.Context) {
	limit, ok := intQuery(c, "limit")
	if !ok {
		badRequest(c, "invalid limit")
		return
	}
	entries, err := h.trail.ForUser(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, auditRecords(entries))
}

func (h *Handler) archiveAudit(c *gin.Context) {
	limit, ok := intQuery(c, "limit")
	if !ok {
		badRequest(c, "invalid limit")
		return
	}
	result, err := h.archiver.Archive(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) listArchives(c *gin.Context) {
	objects, err := h.archiver.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) archiveURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		badRequest(c, "key is required")
		return
	}
	if !h.archiver.Enabled() {
		h.writeError(c, audit.ErrArchiveDisabled)
		return
	}
	url, err := h.archiver.DownloadURL(c.Request.Context(), key, archiveURLExpiry)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expiresIn": int(archiveURLExpiry.Seconds())})
}

func auditRecords(entries []domain.AuditLogEntry) []audit.Record {
	records := make([]audit.Record, len(entries))
	for i := range entries {
		records[i] = audit.NewRecord(entries[i])
	}
	return records
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
