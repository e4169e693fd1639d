package api

import (
	"log/slog"
	"net/http"

	"github.com/UnknownOlympus/helios/internal/models"
	"github.com/UnknownOlympus/helios/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Sessions is the session store used by the handlers.
type Sessions interface {
	Create() *session.Session
	Get(id uuid.UUID) (*session.Session, error)
	Delete(id uuid.UUID) error
}

// Handler exposes form sessions over HTTP.
type Handler struct {
	sessions Sessions
	log      *slog.Logger
}

// NewHandler creates a Handler backed by sessions.
func NewHandler(sessions Sessions, log *slog.Logger) *Handler {
	return &Handler{sessions: sessions, log: log}
}

// RegisterRoutes mounts the session endpoints on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id/address", h.UpdateAddress)
	rg.GET("/:id/map", h.Map)
	rg.POST("/:id/score", h.Submit)
	rg.DELETE("/:id", h.Delete)
}

// Create handles POST /api/v1/sessions.
func (h *Handler) Create(c *gin.Context) {
	sess := h.sessions.Create()
	c.JSON(http.StatusCreated, newSessionResponse(sess))
}

// Get handles GET /api/v1/sessions/:id.
func (h *Handler) Get(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, newSessionResponse(sess))
}

// UpdateAddress handles PUT /api/v1/sessions/:id/address. Incomplete addresses are accepted;
// the map follows whatever prefix of country, city, street and number is filled in.
func (h *Handler) UpdateAddress(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	var fragments models.AddressFragments
	if err := c.ShouldBindJSON(&fragments); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	sess.UpdateAddress(fragments)
	c.JSON(http.StatusAccepted, newMapResponse(sess))
}

// Map handles GET /api/v1/sessions/:id/map.
func (h *Handler) Map(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, newMapResponse(sess))
}

// Submit handles POST /api/v1/sessions/:id/score.
func (h *Handler) Submit(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	result, err := sess.Submit(c.Request.Context())
	if err != nil {
		h.log.InfoContext(c.Request.Context(), "Light score submission failed",
			"session", sess.ID().String(), "error", err)
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, newScoreResponse(result))
}

// Delete handles DELETE /api/v1/sessions/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid session id", nil)
		return
	}

	if err = h.sessions.Delete(id); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) lookup(c *gin.Context) (*session.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid session id", nil)
		return nil, false
	}

	sess, err := h.sessions.Get(id)
	if err != nil {
		handleError(c, err)
		return nil, false
	}

	return sess, true
}
