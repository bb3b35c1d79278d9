package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"staylane/internal/app/dto"
	availabilityapp "staylane/internal/app/handlers/availability"
	"staylane/internal/app/queries"
	"staylane/internal/domain/shared/daterange"
)

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
	Quote(c *gin.Context)
}

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	from, ok := optionalDay(c, "from")
	if !ok {
		return
	}
	to, ok := optionalDay(c, "to")
	if !ok {
		return
	}
	query := availabilityapp.GetCalendarQuery{PropertyID: c.Param("id"), From: from, To: to}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Quote prices a stay without reserving it.
func (h AvailabilityHandler) Quote(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	checkIn, ok := optionalDay(c, "check_in")
	if !ok {
		return
	}
	checkOut, ok := optionalDay(c, "check_out")
	if !ok {
		return
	}
	query := availabilityapp.QuoteStayQuery{PropertyID: c.Param("id"), CheckIn: checkIn, CheckOut: checkOut}
	result, err := queries.Ask[availabilityapp.QuoteStayQuery, dto.StayQuote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// optionalDay reads a date query parameter. Empty means unset; garbage is a 400.
func optionalDay(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	day, err := daterange.ParseDay(raw)
	if err != nil {
		badRequest(c, name+" must be a date (YYYY-MM-DD)")
		return time.Time{}, false
	}
	return day, true
}

var _ AvailabilityHTTP = AvailabilityHandler{}
