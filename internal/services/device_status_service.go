package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/voxlink/ivr-dialer-backend/internal/database/repository"
)

// DeviceStatusService marks devices offline when their heartbeats stop
type DeviceStatusService struct {
	deviceRepo *repository.DeviceRepository
	interval   time.Duration
	stopChan   chan bool
}

func NewDeviceStatusService(db *gorm.DB) *DeviceStatusService {
	return &DeviceStatusService{
		deviceRepo: repository.NewDeviceRepository(db),
		interval:   1 * time.Minute, // Check every 1 minute
		stopChan:   make(chan bool),
	}
}

// Start starts the device status service
func (s *DeviceStatusService) Start() {
	go s.run()
	logrus.Info("Device status service started")
}

// Stop stops the device status service
func (s *DeviceStatusService) Stop() {
	s.stopChan <- true
	logrus.Info("Device status service stopped")
}

// run runs the update loop
func (s *DeviceStatusService) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run initial update
	s.updateOfflineDevices()

	for {
		select {
		case <-ticker.C:
			s.updateOfflineDevices()
		case <-s.stopChan:
			return
		}
	}
}

// updateOfflineDevices sets is_online = false for devices that haven't sent a
// heartbeat in > 5 minutes
func (s *DeviceStatusService) updateOfflineDevices() {
	logrus.Debug("Starting device status update...")

	onlineDevices, err := s.deviceRepo.GetOnline()
	if err != nil {
		logrus.Errorf("Failed to get online devices: %v", err)
		return
	}

	now := time.Now()
	offlineThreshold := 5 * time.Minute
	updatedCount := 0

	for _, device := range onlineDevices {
		if device.LastSeenAt == nil {
			continue
		}

		timeSinceLastSeen := now.Sub(*device.LastSeenAt)
		if timeSinceLastSeen > offlineThreshold {
			device.IsOnline = false
			if err := s.deviceRepo.Update(device); err != nil {
				logrus.Errorf("Failed to update device %s to offline: %v", device.ID, err)
				continue
			}
			updatedCount++
			logrus.Debugf("Updated device %s (%s) to offline (last heartbeat: %v ago)", device.ID, device.Model, timeSinceLastSeen)
		}
	}

	if updatedCount > 0 {
		logrus.Infof("Device status update completed: marked %d device(s) as offline", updatedCount)
	} else {
		logrus.Debug("Device status update completed: no devices to update")
	}
}

// SetInterval sets the update interval
func (s *DeviceStatusService) SetInterval(interval time.Duration) {
	s.interval = interval
}
