package models

import (
	"time"
)

// ContactGroup represents a named contact list owned by a user
type ContactGroup struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID      string `json:"user_id" gorm:"not null;index;type:uuid"`
	Name        string `json:"name" gorm:"type:varchar(255);not null"`
	Description string `json:"description" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User     User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Contacts []Contact `json:"contacts,omitempty" gorm:"foreignKey:GroupID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the ContactGroup model
func (ContactGroup) TableName() string {
	return "contact_groups"
}

// Contact represents a single phone contact inside a group
type Contact struct {
	ID      string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	GroupID string `json:"group_id" gorm:"not null;index;type:uuid"`
	Name    string `json:"name" gorm:"type:varchar(255)"`
	Phone   string `json:"phone" gorm:"type:varchar(20);not null;index"`
	Notes   string `json:"notes,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Group ContactGroup `json:"-" gorm:"foreignKey:GroupID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Contact model
func (Contact) TableName() string {
	return "contacts"
}

// CreateContactGroupRequest represents the request to create a contact group
type CreateContactGroupRequest struct {
	Name        string `json:"name" binding:"required" example:"Leads May"`
	Description string `json:"description" example:"Imported from CRM"`
}

// UpdateContactGroupRequest represents the request to update a contact group
type UpdateContactGroupRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// CreateContactRequest represents the request to add a contact to a group
type CreateContactRequest struct {
	Name  string `json:"name" example:"Jane Roe"`
	Phone string `json:"phone" binding:"required" example:"+919876543210"`
	Notes string `json:"notes,omitempty"`
}

// ContactGroupResponse represents the response for contact group operations
type ContactGroupResponse struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	ContactCount int    `json:"contact_count"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// ContactResponse represents the response for contact operations
type ContactResponse struct {
	ID        string `json:"id"`
	GroupID   string `json:"group_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ContactImportResult summarizes an Excel import
type ContactImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
