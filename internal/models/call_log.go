package models

import (
	"time"
)

// Call log statuses. no_response and completed are distinct so analytics can
// tell "caller never answered the menu" from "flow finished".
const (
	CallStatusCompleted   = "completed"
	CallStatusNoResponse  = "no_response"
	CallStatusTransferred = "transferred"
	CallStatusAbandoned   = "abandoned"
	CallStatusFailed      = "failed"
)

// CallLog records the outcome of one finished call attempt
type CallLog struct {
	ID string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`

	UserID     string  `json:"user_id" gorm:"not null;index;type:uuid"`
	CampaignID *string `json:"campaign_id,omitempty" gorm:"type:uuid;index"`
	ContactID  *string `json:"contact_id,omitempty" gorm:"type:uuid;index"`
	DeviceID   *string `json:"device_id,omitempty" gorm:"type:uuid;index"`
	FlowID     *string `json:"flow_id,omitempty" gorm:"type:uuid;index"`

	Phone  string `json:"phone" gorm:"type:varchar(20);index"`
	Status string `json:"status" gorm:"type:varchar(20);not null;index"`

	// DTMFResponse is the last digit the callee pressed; the full node history
	// lives in Metadata under "history".
	DTMFResponse    string  `json:"dtmf_response,omitempty" gorm:"type:varchar(5)"`
	TransferNumber  string  `json:"transfer_number,omitempty" gorm:"type:varchar(20)"`
	DurationSeconds float64 `json:"duration_seconds" gorm:"default:0"`

	Metadata JSON `json:"metadata,omitempty" gorm:"type:jsonb"` // {history: [...], digits: [...], fault: "..."}

	CreatedAt time.Time `json:"created_at" gorm:"index"`

	// Relationships
	User     User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Campaign *Campaign `json:"-" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:SET NULL"`
}

// TableName specifies the table name for the CallLog model
func (CallLog) TableName() string {
	return "call_logs"
}

// CallLogResponse represents the response for call log operations
type CallLogResponse struct {
	ID              string  `json:"id"`
	CampaignID      string  `json:"campaign_id,omitempty"`
	ContactID       string  `json:"contact_id,omitempty"`
	DeviceID        string  `json:"device_id,omitempty"`
	FlowID          string  `json:"flow_id,omitempty"`
	Phone           string  `json:"phone"`
	Status          string  `json:"status"`
	DTMFResponse    string  `json:"dtmf_response,omitempty"`
	TransferNumber  string  `json:"transfer_number,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	Metadata        JSON    `json:"metadata,omitempty"`
	CreatedAt       string  `json:"created_at"`
}
