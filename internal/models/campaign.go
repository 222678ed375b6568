package models

import (
	"time"
)

// Campaign statuses
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusRunning   = "running"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
)

// Campaign represents an outbound calling campaign that belongs to a user
type Campaign struct {
	ID     string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID string `json:"user_id" gorm:"not null;index;type:uuid"`
	Name   string `json:"name" gorm:"type:varchar(255);not null"`

	FlowID         string `json:"flow_id" gorm:"not null;index;type:uuid"`
	ContactGroupID string `json:"contact_group_id" gorm:"not null;index;type:uuid"`

	Status string `json:"status" gorm:"type:varchar(20);default:'draft';index"` // draft, running, paused, completed

	// Dispatch progress
	TotalCalls     int `json:"total_calls" gorm:"default:0"`
	CompletedCalls int `json:"completed_calls" gorm:"default:0"`
	FailedCalls    int `json:"failed_calls" gorm:"default:0"`

	// Scheduling window
	StartDate *time.Time `json:"start_date" gorm:"index"`
	EndDate   *time.Time `json:"end_date" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User         User         `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Flow         IVRFlow      `json:"flow,omitempty" gorm:"foreignKey:FlowID;references:ID;constraint:OnDelete:CASCADE"`
	ContactGroup ContactGroup `json:"contact_group,omitempty" gorm:"foreignKey:ContactGroupID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Campaign model
func (Campaign) TableName() string {
	return "campaigns"
}

// CreateCampaignRequest represents the request to create a new campaign
type CreateCampaignRequest struct {
	Name           string     `json:"name" binding:"required" example:"May outreach"`
	FlowID         string     `json:"flow_id" binding:"required,uuid"`
	ContactGroupID string     `json:"contact_group_id" binding:"required,uuid"`
	StartDate      *time.Time `json:"start_date" example:"2025-08-14T00:00:00Z"`
	EndDate        *time.Time `json:"end_date" example:"2025-08-14T23:59:59Z"`
}

// UpdateCampaignRequest represents the request to update a campaign
type UpdateCampaignRequest struct {
	Name           *string    `json:"name,omitempty"`
	FlowID         *string    `json:"flow_id,omitempty" binding:"omitempty,uuid"`
	ContactGroupID *string    `json:"contact_group_id,omitempty" binding:"omitempty,uuid"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
}

// CampaignResponse represents the response for campaign operations
type CampaignResponse struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Name           string     `json:"name"`
	FlowID         string     `json:"flow_id"`
	ContactGroupID string     `json:"contact_group_id"`
	Status         string     `json:"status" example:"running"`
	TotalCalls     int        `json:"total_calls"`
	CompletedCalls int        `json:"completed_calls"`
	FailedCalls    int        `json:"failed_calls"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
}

// CampaignSummary aggregates call outcomes for one campaign
type CampaignSummary struct {
	CampaignID         string         `json:"campaign_id"`
	TotalCalls         int            `json:"total_calls"`
	ByStatus           map[string]int `json:"by_status"`
	AvgDurationSeconds float64        `json:"avg_duration_seconds"`
}
