package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	ServiceName    = "SRV_ASSETS"
	DefaultVersion = "1.0.0"
)

type StatusEndpoints struct {
	Base       string `json:"base"`
	Upload     string `json:"upload"`
	List       string `json:"list"`
	GetOne     string `json:"getOne"`
	Delete     string `json:"delete"`
	Gallery    string `json:"gallery"`
	SetPrimary string `json:"setPrimary"`
	Reorder    string `json:"reorder"`
	Archive    string `json:"archive"`
	Restore    string `json:"restore"`
	Note       string `json:"note"`
}

type StatusResponse struct {
	Name          string          `json:"name"`
	Status        string          `json:"status"`
	Version       string          `json:"version"`
	Documentation string          `json:"documentation"`
	Timestamp     string          `json:"timestamp"`
	Endpoints     StatusEndpoints `json:"endpoints"`
}

type StatusHandler struct {
	version string
	now     func() time.Time
}

func NewStatusHandler(version string) *StatusHandler {
	if version == "" {
		version = DefaultVersion
	}
	return &StatusHandler{version: version, now: time.Now}
}

// GET /api/file
func (h *StatusHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Name:          ServiceName,
		Status:        "online",
		Version:       h.version,
		Documentation: "/",
		Timestamp:     h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Endpoints: StatusEndpoints{
			Base:       "/api",
			Upload:     "/api/file/v1/upload-file",
			List:       "/api/file/v1/list-files",
			GetOne:     "/api/file/v1/find-file",
			Delete:     "/api/file/v1/delete-file",
			Gallery:    "/api/file/v1/entity-gallery",
			SetPrimary: "/api/file/v1/set-primary-image",
			Reorder:    "/api/file/v1/reorder-images",
			Archive:    "/api/file/v1/archive-file",
			Restore:    "/api/file/v1/restore-file",
			Note:       "All endpoints require x-api-key header",
		},
	})
}
