package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staylane/internal/app/dto"
	bookingapp "staylane/internal/app/handlers/booking"
	meapp "staylane/internal/app/handlers/me"
	"staylane/internal/app/queries"
)

type MeHTTP interface {
	ListBookings(c *gin.Context)
	ListReservations(c *gin.Context)
}

type MeHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h MeHandler) ListBookings(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	query := meapp.ListProfileBookingsQuery{ProfileID: string(user.ID)}
	result, err := queries.Ask[meapp.ListProfileBookingsQuery, dto.ProfileBookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListReservations shows paid bookings across the caller's properties.
func (h MeHandler) ListReservations(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	query := bookingapp.ListHostReservationsQuery{HostID: string(user.ID)}
	result, err := queries.Ask[bookingapp.ListHostReservationsQuery, dto.HostReservationCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ MeHTTP = (*MeHandler)(nil)
