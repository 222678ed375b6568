package models

import (
	"time"
)

// Device represents a registered Android device that executes outbound calls
type Device struct {
	ID     string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID string `json:"user_id" gorm:"not null;index;type:uuid"`
	Name   string `json:"name" gorm:"type:varchar(255);not null"`

	// DeviceKey authenticates the device on /device routes
	DeviceKey string `json:"device_key,omitempty" gorm:"type:varchar(255);not null;unique;index"`

	Model          string `json:"model,omitempty" gorm:"type:varchar(255)"`
	AndroidVersion string `json:"android_version,omitempty" gorm:"type:varchar(50)"`
	PhoneNumber    string `json:"phone_number,omitempty" gorm:"type:varchar(20)"`

	IsOnline     bool       `json:"is_online" gorm:"default:false;index"`
	BatteryLevel int        `json:"battery_level" gorm:"default:0"`
	LastSeenAt   *time.Time `json:"last_seen_at" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Device model
func (Device) TableName() string {
	return "devices"
}

// RegisterDeviceRequest represents the request to register a device
type RegisterDeviceRequest struct {
	Name           string `json:"name" binding:"required" example:"Pixel 6 - desk 3"`
	Model          string `json:"model,omitempty" example:"Pixel 6"`
	AndroidVersion string `json:"android_version,omitempty" example:"14"`
	PhoneNumber    string `json:"phone_number,omitempty" example:"+14155550100"`
}

// DeviceHeartbeatRequest represents a device heartbeat payload
type DeviceHeartbeatRequest struct {
	BatteryLevel int `json:"battery_level" example:"82"`
}

// DeviceResponse represents the response for device operations
type DeviceResponse struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	DeviceKey      string `json:"device_key,omitempty"` // only returned on registration
	Model          string `json:"model,omitempty"`
	AndroidVersion string `json:"android_version,omitempty"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	IsOnline       bool   `json:"is_online"`
	Connected      bool   `json:"connected"` // live SSE command stream open
	BatteryLevel   int    `json:"battery_level"`
	LastSeenAt     string `json:"last_seen_at,omitempty"`
	CreatedAt      string `json:"created_at"`
}
