package repository

import (
	"time"

	"github.com/voxlink/ivr-dialer-backend/internal/models"

	"gorm.io/gorm"
)

type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Create creates a new device
func (r *DeviceRepository) Create(device *models.Device) error {
	return r.db.Create(device).Error
}

// GetByID retrieves a device by ID
func (r *DeviceRepository) GetByID(id string) (*models.Device, error) {
	var device models.Device
	err := r.db.First(&device, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// GetByDeviceKey retrieves a device by its device key
func (r *DeviceRepository) GetByDeviceKey(key string) (*models.Device, error) {
	var device models.Device
	err := r.db.Where("device_key = ?", key).First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// GetByUserID retrieves all devices for a user
func (r *DeviceRepository) GetByUserID(userID string) ([]*models.Device, error) {
	var devices []*models.Device
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&devices).Error
	return devices, err
}

// GetOnlineByUserID retrieves the user's devices currently marked online
func (r *DeviceRepository) GetOnlineByUserID(userID string) ([]*models.Device, error) {
	var devices []*models.Device
	err := r.db.Where("user_id = ? AND is_online = ?", userID, true).Find(&devices).Error
	return devices, err
}

// GetOnline retrieves all devices currently marked online
func (r *DeviceRepository) GetOnline() ([]*models.Device, error) {
	var devices []*models.Device
	err := r.db.Where("is_online = ?", true).Find(&devices).Error
	return devices, err
}

// Update updates a device
func (r *DeviceRepository) Update(device *models.Device) error {
	return r.db.Save(device).Error
}

// TouchHeartbeat marks a device online and records the heartbeat time
func (r *DeviceRepository) TouchHeartbeat(deviceID string, batteryLevel int) error {
	now := time.Now()
	return r.db.Model(&models.Device{}).
		Where("id = ?", deviceID).
		Updates(map[string]interface{}{
			"is_online":     true,
			"battery_level": batteryLevel,
			"last_seen_at":  now,
		}).Error
}

// DeleteByUserIDAndID deletes a device owned by the given user
func (r *DeviceRepository) DeleteByUserIDAndID(userID, deviceID string) error {
	return r.db.Where("user_id = ? AND id = ?", userID, deviceID).Delete(&models.Device{}).Error
}
