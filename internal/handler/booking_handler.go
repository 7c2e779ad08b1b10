package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"platform-service/internal/model"
	"platform-service/pkg/logger"
	"platform-service/prometheus"
)

// BookingHandler serves the booking engine's reservations.
type BookingHandler struct {
	db *gorm.DB
}

func NewBookingHandler(db *gorm.DB) *BookingHandler {
	return &BookingHandler{db: db}
}

// Create creates a new booking for the bound tenant
func (h *BookingHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("booking", "create")

	userID, _ := c.Get("user_id").(uint)

	var req struct {
		CustomerName  string    `json:"customer_name"`
		CustomerEmail string    `json:"customer_email"`
		ServiceName   string    `json:"service_name"`
		StartsAt      time.Time `json:"starts_at"`
		EndsAt        time.Time `json:"ends_at"`
		Notes         string    `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.CustomerName == "" || req.ServiceName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_name and service_name are required"})
	}
	if !req.EndsAt.After(req.StartsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}

	booking := model.Booking{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		ServiceName:   req.ServiceName,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
		Status:        model.BookingStatusPending,
		Notes:         req.Notes,
		CreatedBy:     userID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.db.WithContext(c.Request().Context()).Create(&booking).Error; err != nil {
		return respondDBError(c, err, "booking")
	}

	log.Info("Booking created",
		zap.Uint("id", booking.ID),
		zap.String("service", booking.ServiceName),
		zap.Uint("tenant_id", booking.TenantID))
	return c.JSON(http.StatusCreated, booking)
}

// List returns the bound tenant's bookings, optionally bounded by date
func (h *BookingHandler) List(c echo.Context) error {
	prometheus.RecordEntityOperation("booking", "list")

	query := h.db.WithContext(c.Request().Context()).Model(&model.Booking{})
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if from := c.QueryParam("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			query = query.Where("starts_at >= ?", t)
		}
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var bookings []model.Booking
	if err := query.Order("starts_at").Find(&bookings).Error; err != nil {
		return respondDBError(c, err, "booking")
	}

	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings, "count": len(bookings)})
}

// Confirm transitions a pending booking to confirmed
func (h *BookingHandler) Confirm(c echo.Context) error {
	return h.transition(c, model.BookingStatusPending, model.BookingStatusConfirmed, "confirm")
}

// Cancel cancels a booking
func (h *BookingHandler) Cancel(c echo.Context) error {
	return h.transition(c, "", model.BookingStatusCancelled, "cancel")
}

func (h *BookingHandler) transition(c echo.Context, fromStatus, toStatus, operation string) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("booking", operation)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking ID"})
	}

	query := h.db.WithContext(c.Request().Context()).
		Model(&model.Booking{}).
		Where("id = ?", uint(id))
	if fromStatus != "" {
		query = query.Where("status = ?", fromStatus)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := query.Update("status", toStatus)
	if result.Error != nil {
		return respondDBError(c, result.Error, "booking")
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}

	log.Info("Booking status changed", zap.Uint64("id", id), zap.String("status", toStatus))
	return c.JSON(http.StatusOK, echo.Map{"message": "booking " + toStatus})
}
