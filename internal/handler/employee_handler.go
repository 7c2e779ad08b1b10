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

// EmployeeHandler serves the HR engine's employee records.
type EmployeeHandler struct {
	db *gorm.DB
}

func NewEmployeeHandler(db *gorm.DB) *EmployeeHandler {
	return &EmployeeHandler{db: db}
}

// Create creates a new employee record for the bound tenant
func (h *EmployeeHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("employee", "create")

	var req struct {
		FirstName  string     `json:"first_name"`
		LastName   string     `json:"last_name"`
		Email      string     `json:"email"`
		Department string     `json:"department"`
		Position   string     `json:"position"`
		HiredAt    *time.Time `json:"hired_at"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.FirstName == "" || req.LastName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "first_name and last_name are required"})
	}

	employee := model.Employee{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Department: req.Department,
		Position:   req.Position,
		HiredAt:    req.HiredAt,
		IsActive:   true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.db.WithContext(c.Request().Context()).Create(&employee).Error; err != nil {
		return respondDBError(c, err, "employee")
	}

	log.Info("Employee created",
		zap.Uint("id", employee.ID),
		zap.Uint("tenant_id", employee.TenantID))
	return c.JSON(http.StatusCreated, employee)
}

// List returns the bound tenant's employees
func (h *EmployeeHandler) List(c echo.Context) error {
	prometheus.RecordEntityOperation("employee", "list")

	query := h.db.WithContext(c.Request().Context()).Model(&model.Employee{})
	if department := c.QueryParam("department"); department != "" {
		query = query.Where("department = ?", department)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var employees []model.Employee
	if err := query.Order("last_name, first_name").Find(&employees).Error; err != nil {
		return respondDBError(c, err, "employee")
	}

	return c.JSON(http.StatusOK, echo.Map{"employees": employees, "count": len(employees)})
}

// Get retrieves one employee record by ID
func (h *EmployeeHandler) Get(c echo.Context) error {
	prometheus.RecordEntityOperation("employee", "get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid employee ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var employee model.Employee
	if err := h.db.WithContext(c.Request().Context()).First(&employee, uint(id)).Error; err != nil {
		return respondDBError(c, err, "employee")
	}

	return c.JSON(http.StatusOK, employee)
}

// Update updates an employee record
func (h *EmployeeHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("employee", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid employee ID"})
	}

	var req struct {
		Department *string `json:"department"`
		Position   *string `json:"position"`
		IsActive   *bool   `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Department != nil {
		updates["department"] = *req.Department
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := h.db.WithContext(c.Request().Context()).
		Model(&model.Employee{}).
		Where("id = ?", uint(id)).
		Updates(updates)
	if result.Error != nil {
		return respondDBError(c, result.Error, "employee")
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "employee not found"})
	}

	log.Info("Employee updated", zap.Uint64("id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "employee updated"})
}

// Delete soft-deletes an employee record
func (h *EmployeeHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("employee", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid employee ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := h.db.WithContext(c.Request().Context()).Delete(&model.Employee{}, uint(id))
	if result.Error != nil {
		return respondDBError(c, result.Error, "employee")
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "employee not found"})
	}

	log.Info("Employee deleted", zap.Uint64("id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "employee deleted"})
}
