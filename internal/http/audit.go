package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/logger"
)

type AuditController struct {
	audit AuditReader
	log   *logger.Logger
}

func NewAuditController(audit AuditReader, log *logger.Logger) *AuditController {
	return &AuditController{
		audit: audit,
		log:   log.With("controller", "audit"),
	}
}

// GetAuditEvents returns paginated audit events as JSON, optionally filtered
// by ?type= or narrowed to one ?entity_id=.
// GET /api/audit
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	if entityID := c.Query("entity_id"); entityID != "" {
		events, err := ac.audit.GetEventsForEntity(entityID)
		if err != nil {
			respondInternalError(c, ac.log, err, "get audit events for entity")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"events":       events,
			"total_events": len(events),
		})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}

	eventType := entities.AuditEventType(c.Query("type"))
	if eventType != "" && !isKnownEventType(eventType) {
		respondBadRequest(c, "unknown event type: "+string(eventType))
		return
	}
	offset := (page - 1) * limit

	events, total, err := ac.audit.GetEvents(eventType, limit, offset)
	if err != nil {
		respondInternalError(c, ac.log, err, "get audit events")
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       events,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages,
		"total_events": total,
	})
}

func isKnownEventType(t entities.AuditEventType) bool {
	switch t {
	case entities.AuditEventCreate, entities.AuditEventComment, entities.AuditEventDelete, entities.AuditEventReconcile:
		return true
	}
	return false
}
