package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
)

// Filters used by POST /flights/combined when the body is empty.
const (
	defaultCombinedCapacityAbove  = 50
	defaultCombinedAvailableBelow = 20
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type createFlightRequest struct {
	Name        string `json:"name" binding:"required"`
	Origin      string `json:"origin" binding:"required"`
	Destination string `json:"destination" binding:"required"`
	Capacity    int    `json:"capacity" binding:"required,gt=0"`
}

type updateCapacityRequest struct {
	Capacity int `json:"capacity" binding:"required,gt=0"`
}

type flightFilterRequest struct {
	CapacityAbove  *int   `json:"capacity_above" binding:"omitempty,gte=0"`
	AvailableBelow *int   `json:"available_below" binding:"omitempty,gte=0"`
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
}

func (r flightFilterRequest) toDomain() domain.FlightFilter {
	return domain.FlightFilter{
		CapacityAbove:  r.CapacityAbove,
		AvailableBelow: r.AvailableBelow,
		Origin:         r.Origin,
		Destination:    r.Destination,
	}
}

type combinedRequest struct {
	A flightFilterRequest `json:"a"`
	B flightFilterRequest `json:"b"`
}

type flightResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Capacity    int       `json:"capacity"`
	BookedCount int       `json:"booked_count"`
	Available   int       `json:"available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toFlightResponse(f domain.Flight) flightResponse {
	return flightResponse{
		ID:          f.ID,
		Name:        f.Name,
		Origin:      f.Origin,
		Destination: f.Destination,
		Capacity:    f.Capacity,
		BookedCount: f.BookedCount,
		Available:   f.Available(),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

type flightIdentityResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

type passengerContactResponse struct {
	Name     string `json:"name"`
	Passport string `json:"passport"`
	Contact  string `json:"contact"`
	Email    string `json:"email"`
}

type counterDriftResponse struct {
	FlightID    int64 `json:"flight_id"`
	BookedCount int   `json:"booked_count"`
	Passengers  int   `json:"passengers"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/audit", h.audit)
	router.POST("/combined", h.combined)
	router.GET("/:id", h.get)
	router.PATCH("/:id/capacity", h.updateCapacity)
	router.DELETE("/:id", h.delete)
	router.GET("/:id/passengers", h.passengers)
}

func (h *FlightHandler) create(c *gin.Context) {
	var req createFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	flight, err := h.service.CreateFlight(c.Request.Context(), flights.CreateFlightInput{
		Name:        req.Name,
		Origin:      req.Origin,
		Destination: req.Destination,
		Capacity:    req.Capacity,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFlightResponse(*flight))
}

func (h *FlightHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]flightResponse, 0, len(list))
	for _, f := range list {
		resp = append(resp, toFlightResponse(f))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(*flight))
}

func (h *FlightHandler) updateCapacity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	flight, err := h.service.UpdateCapacity(c.Request.Context(), id, req.Capacity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(*flight))
}

func (h *FlightHandler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	removed, err := h.service.DeleteFlight(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "passengers_removed": removed})
}

func (h *FlightHandler) passengers(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	manifest, err := h.service.ListPassengers(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]passengerContactResponse, 0, len(manifest))
	for _, p := range manifest {
		resp = append(resp, passengerContactResponse{Name: p.Name, Passport: p.Passport, Contact: p.Contact, Email: p.Email})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlightHandler) combined(c *gin.Context) {
	var req combinedRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}
	a, b := req.A.toDomain(), req.B.toDomain()
	if a == (domain.FlightFilter{}) && b == (domain.FlightFilter{}) {
		capacityAbove, availableBelow := defaultCombinedCapacityAbove, defaultCombinedAvailableBelow
		a = domain.FlightFilter{CapacityAbove: &capacityAbove}
		b = domain.FlightFilter{AvailableBelow: &availableBelow}
	}

	rows, err := h.service.CombinedIdentitySet(c.Request.Context(), a, b)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]flightIdentityResponse, 0, len(rows))
	for _, r := range rows {
		resp = append(resp, flightIdentityResponse{ID: r.ID, Name: r.Name, Origin: r.Origin, Destination: r.Destination})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlightHandler) audit(c *gin.Context) {
	drifts, err := h.service.AuditCounters(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]counterDriftResponse, 0, len(drifts))
	for _, d := range drifts {
		resp = append(resp, counterDriftResponse{FlightID: d.FlightID, BookedCount: d.BookedCount, Passengers: d.Passengers})
	}
	c.JSON(http.StatusOK, gin.H{"consistent": len(resp) == 0, "drifts": resp})
}
