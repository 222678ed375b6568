package models

import (
	"time"
)

// AudioFile represents an uploaded audio prompt
type AudioFile struct {
	ID string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`

	UserID       string `json:"user_id" gorm:"not null;index;type:uuid"`
	FileName     string `json:"file_name" gorm:"type:varchar(255);not null"`
	OriginalName string `json:"original_name" gorm:"type:varchar(255);not null"`
	MimeType     string `json:"mime_type" gorm:"type:varchar(100)"`
	FileSize     int64  `json:"file_size" gorm:"type:bigint"` // Size in bytes
	FilePath     string `json:"file_path" gorm:"type:varchar(500);not null"`

	// Audio metadata
	DurationSeconds float64 `json:"duration_seconds" gorm:"default:0"`
	Language        string  `json:"language" gorm:"type:varchar(10);default:'en'"`
	Category        string  `json:"category" gorm:"type:varchar(50);index"` // greeting, menu, retry, goodbye

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the AudioFile model
func (AudioFile) TableName() string {
	return "audio_files"
}

// AudioFileUploadRequest represents the metadata sent with an audio upload
type AudioFileUploadRequest struct {
	Language string `json:"language,omitempty" form:"language" example:"en"`
	Category string `json:"category,omitempty" form:"category" example:"greeting"`
}

// AudioFileResponse represents the response for audio file operations
type AudioFileResponse struct {
	ID              string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID          string  `json:"user_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	FileName        string  `json:"file_name" example:"abc123.mp3"`
	OriginalName    string  `json:"original_name" example:"welcome.mp3"`
	MimeType        string  `json:"mime_type" example:"audio/mpeg"`
	FileSize        int64   `json:"file_size" example:"204800"`
	DurationSeconds float64 `json:"duration_seconds" example:"12.4"`
	Language        string  `json:"language" example:"en"`
	Category        string  `json:"category" example:"greeting"`
	StreamURL       string  `json:"stream_url,omitempty" example:"/api/v1/audio-files/stream/abc"`
	CreatedAt       string  `json:"created_at" example:"2025-01-21T10:00:00Z"`
	UpdatedAt       string  `json:"updated_at" example:"2025-01-21T10:00:00Z"`
}
