package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type PassengerHandler struct {
	service booking.BookingUseCase
}

type reservePassengerRequest struct {
	Name     string `json:"name" binding:"required"`
	Passport string `json:"passport" binding:"required"`
	Contact  string `json:"contact" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	FlightID *int64 `json:"flight_id" binding:"required"`
}

type existsQuery struct {
	Field string `form:"field" binding:"required,oneof=passport contact email"`
	Value string `form:"value" binding:"required"`
}

type passengerResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Passport  string    `json:"passport"`
	Contact   string    `json:"contact"`
	Email     string    `json:"email"`
	FlightID  int64     `json:"flight_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toPassengerResponse(p domain.Passenger) passengerResponse {
	return passengerResponse{
		ID:        p.ID,
		Name:      p.Name,
		Passport:  p.Passport,
		Contact:   p.Contact,
		Email:     p.Email,
		FlightID:  p.FlightID,
		CreatedAt: p.CreatedAt,
	}
}

type passengerWithFlightResponse struct {
	passengerResponse
	Flight flightResponse `json:"flight"`
}

func NewPassengerHandler(service booking.BookingUseCase) *PassengerHandler {
	return &PassengerHandler{service: service}
}

func (h *PassengerHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.reserve)
	router.GET("", h.list)
	router.GET("/with-flights", h.listWithFlights)
	router.GET("/exists", h.exists)
	router.DELETE("/:id", h.cancel)
}

func (h *PassengerHandler) reserve(c *gin.Context) {
	var req reservePassengerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	passenger, err := h.service.ReservePassenger(c.Request.Context(), booking.ReservePassengerInput{
		Name:     req.Name,
		Passport: req.Passport,
		Contact:  req.Contact,
		Email:    req.Email,
		FlightID: *req.FlightID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPassengerResponse(*passenger))
}

func (h *PassengerHandler) cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	passenger, err := h.service.CancelPassenger(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPassengerResponse(*passenger))
}

func (h *PassengerHandler) list(c *gin.Context) {
	passengers, err := h.service.ListPassengers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]passengerResponse, 0, len(passengers))
	for _, p := range passengers {
		resp = append(resp, toPassengerResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PassengerHandler) listWithFlights(c *gin.Context) {
	rows, err := h.service.ListPassengersWithFlights(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]passengerWithFlightResponse, 0, len(rows))
	for _, r := range rows {
		resp = append(resp, passengerWithFlightResponse{
			passengerResponse: toPassengerResponse(r.Passenger),
			Flight:            toFlightResponse(r.Flight),
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PassengerHandler) exists(c *gin.Context) {
	var q existsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	field := domain.IdentityField(q.Field)
	exists, err := h.service.ExistsPassengerWith(c.Request.Context(), field, q.Value)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"field": field, "value": q.Value, "exists": exists})
}
