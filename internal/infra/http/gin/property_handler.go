package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staylane/internal/app/commands"
	"staylane/internal/app/dto"
	propertiesapp "staylane/internal/app/handlers/properties"
	"staylane/internal/app/queries"
)

type PropertyHTTP interface {
	Catalog(c *gin.Context)
	Get(c *gin.Context)
}

type HostPropertyHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Reprice(c *gin.Context)
}

type PropertyHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h PropertyHandler) Catalog(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	query := propertiesapp.ListPropertiesQuery{
		Limit:  parsePositiveInt(c.Query("limit"), 0),
		Offset: parsePositiveInt(c.Query("offset"), 0),
	}
	result, err := queries.Ask[propertiesapp.ListPropertiesQuery, dto.PropertyCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PropertyHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	query := propertiesapp.GetPropertyQuery{PropertyID: c.Param("id")}
	result, err := queries.Ask[propertiesapp.GetPropertyQuery, dto.Property](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type HostPropertyHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type propertyRequest struct {
	Name              string   `json:"name"`
	Tagline           string   `json:"tagline"`
	Description       string   `json:"description"`
	Category          string   `json:"category"`
	Country           string   `json:"country"`
	Image             string   `json:"image"`
	Guests            int      `json:"guests"`
	Bedrooms          int      `json:"bedrooms"`
	Beds              int      `json:"beds"`
	Baths             int      `json:"baths"`
	Amenities         []string `json:"amenities"`
	NightlyPriceMinor int64    `json:"nightly_price"`
}

type repriceRequest struct {
	NightlyPriceMinor int64 `json:"nightly_price"`
}

func (h HostPropertyHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		unavailable(c, "queries")
		return
	}
	query := propertiesapp.ListPropertiesQuery{
		OwnerID: string(user.ID),
		Limit:   parsePositiveInt(c.Query("limit"), 0),
		Offset:  parsePositiveInt(c.Query("offset"), 0),
	}
	result, err := queries.Ask[propertiesapp.ListPropertiesQuery, dto.PropertyCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostPropertyHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands")
		return
	}
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	cmd := propertiesapp.CreatePropertyCommand{
		HostID: string(user.ID),
		Payload: propertiesapp.PropertyPayload{
			Name:              req.Name,
			Tagline:           req.Tagline,
			Description:       req.Description,
			Category:          req.Category,
			Country:           req.Country,
			Image:             req.Image,
			Guests:            req.Guests,
			Bedrooms:          req.Bedrooms,
			Beds:              req.Beds,
			Baths:             req.Baths,
			Amenities:         req.Amenities,
			NightlyPriceMinor: req.NightlyPriceMinor,
		},
	}
	result, err := commands.Dispatch[propertiesapp.CreatePropertyCommand, dto.Property](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h HostPropertyHandler) Reprice(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands")
		return
	}
	var req repriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	cmd := propertiesapp.RepricePropertyCommand{
		HostID:            string(user.ID),
		PropertyID:        c.Param("id"),
		NightlyPriceMinor: req.NightlyPriceMinor,
	}
	result, err := commands.Dispatch[propertiesapp.RepricePropertyCommand, dto.Property](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var (
	_ PropertyHTTP     = PropertyHandler{}
	_ HostPropertyHTTP = HostPropertyHandler{}
)
