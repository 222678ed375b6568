package models

import (
	"time"
)

// Call schedule statuses
const (
	ScheduleStatusPending    = "pending"
	ScheduleStatusDispatched = "dispatched"
	ScheduleStatusInProgress = "in_progress"
	ScheduleStatusCompleted  = "completed"
	ScheduleStatusFailed     = "failed"
)

// CallSchedule is one planned outbound call: a (campaign, contact) pair
// waiting for a device to pick it up
type CallSchedule struct {
	ID         string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CampaignID string  `json:"campaign_id" gorm:"not null;index;type:uuid"`
	ContactID  string  `json:"contact_id" gorm:"not null;index;type:uuid"`
	DeviceID   *string `json:"device_id,omitempty" gorm:"type:uuid;index"` // set once a device claims the call

	Phone    string `json:"phone" gorm:"type:varchar(20);not null"`
	Status   string `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Attempts int    `json:"attempts" gorm:"default:0"`

	ScheduledAt  time.Time  `json:"scheduled_at" gorm:"index"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Campaign Campaign `json:"-" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE"`
	Contact  Contact  `json:"contact,omitempty" gorm:"foreignKey:ContactID;references:ID;constraint:OnDelete:CASCADE"`
	Device   *Device  `json:"-" gorm:"foreignKey:DeviceID;references:ID;constraint:OnDelete:SET NULL"`
}

// TableName specifies the table name for the CallSchedule model
func (CallSchedule) TableName() string {
	return "call_schedules"
}

// CallScheduleResponse represents the response for call schedule operations
type CallScheduleResponse struct {
	ID          string `json:"id"`
	CampaignID  string `json:"campaign_id"`
	ContactID   string `json:"contact_id"`
	DeviceID    string `json:"device_id,omitempty"`
	Phone       string `json:"phone"`
	Status      string `json:"status"`
	Attempts    int    `json:"attempts"`
	ScheduledAt string `json:"scheduled_at"`
}
