package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/voxlink/ivr-dialer-backend/internal/database/repository"
	"github.com/voxlink/ivr-dialer-backend/internal/models"
	"github.com/voxlink/ivr-dialer-backend/internal/services"
	"github.com/voxlink/ivr-dialer-backend/internal/services/ivr"
)

// sseHeartbeatInterval keeps idle command streams from being cut by proxies
const sseHeartbeatInterval = 30 * time.Second

// DeviceCallHandler serves the device-facing API: heartbeats, the SSE command
// stream and the call execution endpoints. All routes are device-key
// authenticated.
type DeviceCallHandler struct {
	deviceService *services.DeviceService
	execService   *services.CallExecutionService
	hub           *services.DeviceHub
}

func NewDeviceCallHandler(db *gorm.DB, hub *services.DeviceHub, sessions ivr.SessionStore) *DeviceCallHandler {
	deviceRepo := repository.NewDeviceRepository(db)
	flowRepo := repository.NewIVRFlowRepository(db)
	nodeRepo := repository.NewIVRNodeRepository(db)
	scheduleRepo := repository.NewCallScheduleRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	callLogRepo := repository.NewCallLogRepository(db)

	flowService := services.NewIVRFlowService(flowRepo, nodeRepo)

	return &DeviceCallHandler{
		deviceService: services.NewDeviceService(deviceRepo),
		execService:   services.NewCallExecutionService(flowService, sessions, scheduleRepo, campaignRepo, callLogRepo),
		hub:           hub,
	}
}

// Heartbeat godoc
// @Summary Device heartbeat
// @Description Report device liveness and battery level; keeps the device marked online
// @Tags device
// @Accept json
// @Produce json
// @Param X-Device-Key header string true "Device key"
// @Param request body models.DeviceHeartbeatRequest true "Heartbeat payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /device/heartbeat [post]
func (h *DeviceCallHandler) Heartbeat(c *gin.Context) {
	deviceID := c.MustGet("device_id").(string)

	var req models.DeviceHeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	if err := h.deviceService.Heartbeat(deviceID, &req); err != nil {
		respondServiceError(c, err, "Failed to record heartbeat")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// StreamCommands godoc
// @Summary Device command stream (SSE)
// @Description Open a Server-Sent Events stream; dial commands for this device arrive as "command" events
// @Tags device
// @Produce text/event-stream
// @Param device_key query string false "Device key (devices that cannot set headers)"
// @Success 200 {string} string "SSE stream"
// @Failure 401 {object} map[string]interface{}
// @Router /device/commands [get]
func (h *DeviceCallHandler) StreamCommands(c *gin.Context) {
	deviceID := c.MustGet("device_id").(string)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	clientChan := h.hub.RegisterDevice(deviceID)
	defer h.hub.UnregisterDevice(deviceID, clientChan)

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"device_id\":%q}\n\n", deviceID)
	flusher.Flush()

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case message, open := <-clientChan:
			if !open {
				return
			}
			c.Writer.Write(message)
			flusher.Flush()
		case <-heartbeat.C:
			h.hub.SendHeartbeat(deviceID)
		case <-c.Request.Context().Done():
			return
		}
	}
}

// BeginCall godoc
// @Summary Begin executing a call
// @Description Start a dispatched call schedule; returns the first action (play the entry node prompt)
// @Tags device
// @Accept json
// @Produce json
// @Param X-Device-Key header string true "Device key"
// @Param request body models.BeginCallRequest true "Begin call request"
// @Success 200 {object} models.NextAction
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /device/calls/begin [post]
func (h *DeviceCallHandler) BeginCall(c *gin.Context) {
	deviceID := c.MustGet("device_id").(string)

	var req models.BeginCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	action, err := h.execService.BeginCall(deviceID, req.ScheduleID)
	if err != nil {
		respondServiceError(c, err, "Failed to begin call")
		return
	}

	c.JSON(http.StatusOK, action)
}

// CallEvent godoc
// @Summary Report a call event
// @Description Report a DTMF digit or input timeout (empty digit); returns the next action for the call
// @Tags device
// @Accept json
// @Produce json
// @Param X-Device-Key header string true "Device key"
// @Param call_id path string true "Call ID"
// @Param request body models.CallEventRequest true "Call event"
// @Success 200 {object} models.NextAction
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /device/calls/{call_id}/event [post]
func (h *DeviceCallHandler) CallEvent(c *gin.Context) {
	callID := c.Param("call_id")

	var req models.CallEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	action, err := h.execService.HandleEvent(callID, req.Digit)
	if err != nil {
		respondServiceError(c, err, "Failed to handle call event")
		return
	}

	c.JSON(http.StatusOK, action)
}

// AbandonCall godoc
// @Summary Abandon a call
// @Description Report that the callee hung up or the call dropped; the call is logged as abandoned
// @Tags device
// @Accept json
// @Produce json
// @Param X-Device-Key header string true "Device key"
// @Param call_id path string true "Call ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /device/calls/{call_id}/abandon [post]
func (h *DeviceCallHandler) AbandonCall(c *gin.Context) {
	callID := c.Param("call_id")

	if err := h.execService.Abandon(callID); err != nil {
		respondServiceError(c, err, "Failed to abandon call")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Call abandoned"})
}
