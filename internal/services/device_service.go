package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/voxlink/ivr-dialer-backend/internal/models"
)

// deviceStore is the persistence surface for devices
type deviceStore interface {
	Create(device *models.Device) error
	GetByID(id string) (*models.Device, error)
	GetByDeviceKey(key string) (*models.Device, error)
	GetByUserID(userID string) ([]*models.Device, error)
	TouchHeartbeat(deviceID string, batteryLevel int) error
	DeleteByUserIDAndID(userID, deviceID string) error
}

// DeviceService manages the Android devices that place outbound calls. Each
// device authenticates with a key minted at registration; heartbeats keep it
// marked online and eligible for dispatch.
type DeviceService struct {
	devices deviceStore
}

func NewDeviceService(devices deviceStore) *DeviceService {
	return &DeviceService{devices: devices}
}

// RegisterDevice registers a device and mints its key. The key is returned
// once and never again.
func (s *DeviceService) RegisterDevice(userID string, req *models.RegisterDeviceRequest) (*models.DeviceResponse, error) {
	key, err := generateDeviceKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate device key: %w", err)
	}

	device := &models.Device{
		UserID:         userID,
		Name:           req.Name,
		DeviceKey:      key,
		Model:          req.Model,
		AndroidVersion: req.AndroidVersion,
		PhoneNumber:    req.PhoneNumber,
	}
	if err := s.devices.Create(device); err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	response := s.toResponse(device)
	response.DeviceKey = key
	return response, nil
}

// ListDevices retrieves all devices of a user, without their keys
func (s *DeviceService) ListDevices(userID string) ([]*models.DeviceResponse, error) {
	devices, err := s.devices.GetByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}
	responses := make([]*models.DeviceResponse, len(devices))
	for i, device := range devices {
		responses[i] = s.toResponse(device)
	}
	return responses, nil
}

// DeleteDevice removes a device owned by the user
func (s *DeviceService) DeleteDevice(userID, deviceID string) error {
	device, err := s.devices.GetByID(deviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("device", deviceID)
		}
		return fmt.Errorf("failed to get device: %w", err)
	}
	if device.UserID != userID {
		return models.NewNotFoundError("device", deviceID)
	}
	if err := s.devices.DeleteByUserIDAndID(userID, deviceID); err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	return nil
}

// AuthenticateDeviceKey resolves a device key to its device
func (s *DeviceService) AuthenticateDeviceKey(key string) (*models.Device, error) {
	if key == "" {
		return nil, models.NewValidationError("device_key", "device key is required")
	}
	device, err := s.devices.GetByDeviceKey(key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("device", "")
		}
		return nil, fmt.Errorf("failed to look up device key: %w", err)
	}
	return device, nil
}

// Heartbeat marks a device online and records its battery level
func (s *DeviceService) Heartbeat(deviceID string, req *models.DeviceHeartbeatRequest) error {
	if req.BatteryLevel < 0 || req.BatteryLevel > 100 {
		return models.NewValidationError("battery_level", "battery_level must be between 0 and 100")
	}
	if err := s.devices.TouchHeartbeat(deviceID, req.BatteryLevel); err != nil {
		return fmt.Errorf("failed to record heartbeat: %w", err)
	}
	return nil
}

// generateDeviceKey mints a 64-character random hex key
func generateDeviceKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *DeviceService) toResponse(device *models.Device) *models.DeviceResponse {
	response := &models.DeviceResponse{
		ID:             device.ID,
		UserID:         device.UserID,
		Name:           device.Name,
		Model:          device.Model,
		AndroidVersion: device.AndroidVersion,
		PhoneNumber:    device.PhoneNumber,
		IsOnline:       device.IsOnline,
		BatteryLevel:   device.BatteryLevel,
		CreatedAt:      device.CreatedAt.Format(time.RFC3339),
	}
	if device.LastSeenAt != nil {
		response.LastSeenAt = device.LastSeenAt.Format(time.RFC3339)
	}
	return response
}
