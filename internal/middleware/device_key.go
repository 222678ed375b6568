package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxlink/ivr-dialer-backend/internal/services"
)

// DeviceKeyMiddleware authenticates Android devices on /device routes
type DeviceKeyMiddleware struct {
	deviceService *services.DeviceService
}

// NewDeviceKeyMiddleware creates a new device key middleware
func NewDeviceKeyMiddleware(deviceService *services.DeviceService) *DeviceKeyMiddleware {
	return &DeviceKeyMiddleware{
		deviceService: deviceService,
	}
}

// DeviceKeyAuthMiddleware validates the X-Device-Key header and sets the
// device in context
func (m *DeviceKeyMiddleware) DeviceKeyAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Device-Key")
		if key == "" {
			// SSE clients cannot set headers, allow the key as a query param
			key = c.Query("device_key")
		}
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "X-Device-Key header is required",
			})
			c.Abort()
			return
		}

		device, err := m.deviceService.AuthenticateDeviceKey(key)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid device key",
			})
			c.Abort()
			return
		}

		// Set device info in context
		c.Set("device_id", device.ID)
		c.Set("device", device)
		c.Set("device_user_id", device.UserID)

		c.Next()
	}
}
