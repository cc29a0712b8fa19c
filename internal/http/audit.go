package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/http/response"
)

type AuditController struct {
	log AuditLog
}

func NewAuditController(log AuditLog) *AuditController {
	return &AuditController{log: log}
}

// GetAuditEvents returns paginated audit events, most recent first.
// GET /api/audit?limit=&offset=&type=&entity_type=&entity_id=&librarian_id=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	limit, offset := parsePagination(c)

	filter, ok := parseAuditFilter(c)
	if !ok {
		return
	}

	events, total, err := ac.log.GetEvents(c.Request.Context(), filter, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, events, total, limit, offset)
}

// GetEventTypes returns the event types that can be used as a filter.
// GET /api/audit/types
func (ac *AuditController) GetEventTypes(c *gin.Context) {
	response.OK(c, gin.H{"types": entities.AuditEventTypes()})
}

func parseAuditFilter(c *gin.Context) (audit.Filter, bool) {
	filter := audit.Filter{
		EventType:  entities.AuditEventType(c.Query("type")),
		EntityType: c.Query("entity_type"),
	}

	if filter.EventType != "" && !filter.EventType.Valid() {
		response.BadRequest(c, "invalid type")
		return filter, false
	}

	if v := c.Query("entity_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			response.BadRequest(c, "invalid entity_id")
			return filter, false
		}
		entityID := uint(id)
		filter.EntityID = &entityID
	}

	if v := c.Query("librarian_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			response.BadRequest(c, "invalid librarian_id")
			return filter, false
		}
		filter.LibrarianID = uint(id)
	}

	return filter, true
}
