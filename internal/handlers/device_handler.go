package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/voxlink/ivr-dialer-backend/internal/database/repository"
	"github.com/voxlink/ivr-dialer-backend/internal/models"
	"github.com/voxlink/ivr-dialer-backend/internal/services"
)

type DeviceHandler struct {
	deviceService *services.DeviceService
	hub           *services.DeviceHub
}

func NewDeviceHandler(db *gorm.DB, hub *services.DeviceHub) *DeviceHandler {
	deviceRepo := repository.NewDeviceRepository(db)

	return &DeviceHandler{
		deviceService: services.NewDeviceService(deviceRepo),
		hub:           hub,
	}
}

// RegisterDevice godoc
// @Summary Register an Android device
// @Description Register a dialing device. The device key is returned once and must be stored by the device.
// @Tags devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.RegisterDeviceRequest true "Register device request"
// @Success 201 {object} models.DeviceResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/devices [post]
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	response, err := h.deviceService.RegisterDevice(userID, &req)
	if err != nil {
		respondServiceError(c, err, "Failed to register device")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetDevices godoc
// @Summary Get user's devices
// @Description List the user's registered devices with connection state
// @Tags devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/devices [get]
func (h *DeviceHandler) GetDevices(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	devices, err := h.deviceService.ListDevices(userID)
	if err != nil {
		respondServiceError(c, err, "Failed to get devices")
		return
	}

	// annotate with live SSE connection state
	for _, device := range devices {
		device.Connected = h.hub.IsConnected(device.ID)
	}

	c.JSON(http.StatusOK, gin.H{"data": devices})
}

// DeleteDevice godoc
// @Summary Delete device
// @Description Remove a registered device; its key stops working immediately
// @Tags devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Device ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/devices/{id} [delete]
func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	deviceID := c.Param("id")

	if err := h.deviceService.DeleteDevice(userID, deviceID); err != nil {
		respondServiceError(c, err, "Failed to delete device")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device deleted successfully"})
}
