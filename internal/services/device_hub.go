package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DeviceCommand is one message pushed to a connected device
type DeviceCommand struct {
	Type    string      `json:"type"` // dial, cancel, config
	Payload interface{} `json:"payload,omitempty"`
}

// DeviceHub manages Server-Sent Events connections for devices waiting for
// call commands. A device may hold several connections (reconnects overlap),
// so each device key maps to a channel set.
type DeviceHub struct {
	clients map[string]map[chan []byte]bool
	mu      sync.RWMutex
}

// NewDeviceHub creates a new device hub
func NewDeviceHub() *DeviceHub {
	return &DeviceHub{
		clients: make(map[string]map[chan []byte]bool),
	}
}

// RegisterDevice registers a new SSE connection for a device
func (h *DeviceHub) RegisterDevice(deviceID string) chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientChan := make(chan []byte, 10) // Buffer size 10

	if h.clients[deviceID] == nil {
		h.clients[deviceID] = make(map[chan []byte]bool)
	}
	h.clients[deviceID][clientChan] = true

	logrus.Infof("Device connection registered for %s (total connections: %d)", deviceID, len(h.clients[deviceID]))
	return clientChan
}

// UnregisterDevice unregisters an SSE connection
func (h *DeviceHub) UnregisterDevice(deviceID string, clientChan chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[deviceID] != nil {
		delete(h.clients[deviceID], clientChan)
		close(clientChan)

		// Clean up empty maps
		if len(h.clients[deviceID]) == 0 {
			delete(h.clients, deviceID)
		}
	}

	logrus.Infof("Device connection unregistered for %s (remaining: %d)", deviceID, len(h.clients[deviceID]))
}

// PushCommand sends a command to every live connection of a device. Returns
// true if at least one connection accepted it.
func (h *DeviceHub) PushCommand(deviceID string, command DeviceCommand) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.clients[deviceID]
	if len(clients) == 0 {
		return false
	}

	body, err := json.Marshal(command)
	if err != nil {
		logrus.Errorf("Failed to marshal device command: %v", err)
		return false
	}

	message := fmt.Sprintf("event: command\ndata: %s\n\n", string(body))

	delivered := false
	for clientChan := range clients {
		select {
		case clientChan <- []byte(message):
			delivered = true
		default:
			// Channel is full, skip this connection
			logrus.Warnf("Device channel full, skipping: %s", deviceID)
		}
	}
	return delivered
}

// IsConnected reports whether a device has at least one live connection
func (h *DeviceHub) IsConnected(deviceID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[deviceID]) > 0
}

// ConnectionCount returns the number of live connections for a device
func (h *DeviceHub) ConnectionCount(deviceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[deviceID])
}

// SendHeartbeat sends a comment frame to keep a device's connections alive
func (h *DeviceHub) SendHeartbeat(deviceID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, exists := h.clients[deviceID]
	if !exists {
		return
	}

	heartbeat := fmt.Sprintf(": heartbeat %s\n\n", time.Now().Format(time.RFC3339))
	for clientChan := range clients {
		select {
		case clientChan <- []byte(heartbeat):
		default:
			// Skip if channel is full
		}
	}
}
