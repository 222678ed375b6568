package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Node types supported by the execution engine
const (
	NodeTypeMenu     = "menu"
	NodeTypeMessage  = "message"
	NodeTypeInput    = "input"
	NodeTypeTransfer = "transfer"
	NodeTypeEnd      = "end"
)

// Action types for DTMF-keyed node actions
const (
	ActionGoto     = "goto"
	ActionEnd      = "end"
	ActionTransfer = "transfer"
)

// IVRFlow represents an IVR call flow owned by a user
type IVRFlow struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID      string `json:"user_id" gorm:"not null;index;type:uuid"`
	Name        string `json:"name" gorm:"type:varchar(255);not null"`
	Description string `json:"description" gorm:"type:text"`
	IsActive    bool   `json:"is_active" gorm:"default:true;index"`

	// Execution defaults
	EntryNodeKey    string `json:"entry_node_key,omitempty" gorm:"type:varchar(255)"` // empty = earliest created node
	DefaultLanguage string `json:"default_language" gorm:"type:varchar(10);default:'en'"`
	MaxRetries      int    `json:"max_retries" gorm:"default:3"`
	TimeoutSeconds  int    `json:"timeout_seconds" gorm:"default:10"`

	// Aggregate stats - derived from finished calls, never authoritative for in-flight execution
	TotalCalls         int     `json:"total_calls" gorm:"default:0"`
	CompletedCalls     int     `json:"completed_calls" gorm:"default:0"`
	AvgDurationSeconds float64 `json:"avg_duration_seconds" gorm:"default:0"`
	ChoiceStats        JSON    `json:"choice_stats,omitempty" gorm:"type:jsonb"` // digit -> times pressed

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User  User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Nodes []IVRNode `json:"nodes,omitempty" gorm:"foreignKey:FlowID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the IVRFlow model
func (IVRFlow) TableName() string {
	return "ivr_flows"
}

// IVRNode represents a single node in a flow's graph.
// NodeKey is the human-chosen slug referenced by goto actions and is unique
// within its flow.
type IVRNode struct {
	ID      string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	FlowID  string `json:"flow_id" gorm:"not null;type:uuid;uniqueIndex:idx_ivr_nodes_flow_key"`
	NodeKey string `json:"node_key" gorm:"type:varchar(255);not null;uniqueIndex:idx_ivr_nodes_flow_key"`
	Name    string `json:"name" gorm:"type:varchar(255);not null"`

	NodeType         string  `json:"node_type" gorm:"type:varchar(20);not null;default:'menu';index"`
	AudioFileID      *string `json:"audio_file_id,omitempty" gorm:"type:uuid;index"`
	RetryAudioFileID *string `json:"retry_audio_file_id,omitempty" gorm:"type:uuid"`
	PromptText       string  `json:"prompt_text,omitempty" gorm:"type:text"` // authoring reference only, not executed

	TimeoutSeconds int `json:"timeout_seconds" gorm:"default:10"`
	RetryCount     int `json:"retry_count" gorm:"default:3"`

	ParentNodeID *string   `json:"parent_node_id,omitempty" gorm:"type:uuid"` // hierarchy bookkeeping, not used by execution
	Actions      ActionMap `json:"actions" gorm:"type:jsonb"`
	Metadata     JSON      `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Flow       IVRFlow    `json:"-" gorm:"foreignKey:FlowID;references:ID;constraint:OnDelete:CASCADE"`
	AudioFile  *AudioFile `json:"audio_file,omitempty" gorm:"foreignKey:AudioFileID;references:ID;constraint:OnDelete:SET NULL"`
}

// TableName specifies the table name for the IVRNode model
func (IVRNode) TableName() string {
	return "ivr_nodes"
}

// NodeAction is one variant of the tagged action union:
// goto(target) | end | transfer(number)
type NodeAction struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
	Number string `json:"number,omitempty"`
}

// Validate checks the action shape. Dangling goto targets are a graph-level
// concern and deliberately not checked here.
func (a NodeAction) Validate() error {
	switch a.Type {
	case ActionGoto:
		if a.Target == "" {
			return NewValidationError("target", "goto action requires a target node key")
		}
	case ActionEnd:
		// no fields required
	case ActionTransfer:
		if a.Number == "" {
			return NewValidationError("number", "transfer action requires a phone number")
		}
	default:
		return NewValidationError("type", "unknown action type "+a.Type)
	}
	return nil
}

// ActionMap maps a DTMF digit to its action, stored as a jsonb column
type ActionMap map[string]NodeAction

// ValidDigit reports whether s is a single DTMF key (0-9, * or #)
func ValidDigit(s string) bool {
	if len(s) != 1 {
		return false
	}
	c := s[0]
	return (c >= '0' && c <= '9') || c == '*' || c == '#'
}

// Validate checks every digit key and action variant in the map
func (m ActionMap) Validate() error {
	for digit, action := range m {
		if !ValidDigit(digit) {
			return NewValidationError("actions", "invalid DTMF key "+digit)
		}
		if err := action.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Value implements driver.Valuer for GORM
func (m ActionMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(ActionMap{})
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for GORM
func (m *ActionMap) Scan(value interface{}) error {
	if value == nil {
		*m = ActionMap{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for ActionMap column")
	}

	return json.Unmarshal(data, m)
}

// CreateFlowRequest represents the request to create a new IVR flow
type CreateFlowRequest struct {
	Name            string `json:"name" binding:"required" example:"Support hotline"`
	Description     string `json:"description" example:"Main support IVR"`
	EntryNodeKey    string `json:"entry_node_key" example:"main_menu"`
	DefaultLanguage string `json:"default_language" example:"en"`
	MaxRetries      int    `json:"max_retries" example:"3"`
	TimeoutSeconds  int    `json:"timeout_seconds" example:"10"`
}

// UpdateFlowRequest represents a partial update to a flow; only provided
// fields are applied
type UpdateFlowRequest struct {
	Name            *string `json:"name,omitempty" example:"Support hotline v2"`
	Description     *string `json:"description,omitempty"`
	IsActive        *bool   `json:"is_active,omitempty"`
	EntryNodeKey    *string `json:"entry_node_key,omitempty"`
	DefaultLanguage *string `json:"default_language,omitempty"`
	MaxRetries      *int    `json:"max_retries,omitempty"`
	TimeoutSeconds  *int    `json:"timeout_seconds,omitempty"`
}

// CreateNodeRequest represents the request to add a node to a flow
type CreateNodeRequest struct {
	NodeKey          string    `json:"node_key" binding:"required" example:"main_menu"`
	Name             string    `json:"name" binding:"required" example:"Main menu"`
	NodeType         string    `json:"node_type" example:"menu"`
	AudioFileID      *string   `json:"audio_file_id,omitempty"`
	RetryAudioFileID *string   `json:"retry_audio_file_id,omitempty"`
	PromptText       string    `json:"prompt_text,omitempty"`
	TimeoutSeconds   int       `json:"timeout_seconds" example:"10"`
	RetryCount       int       `json:"retry_count" example:"3"`
	ParentNodeID     *string   `json:"parent_node_id,omitempty"`
	Actions          ActionMap `json:"actions"`
	Metadata         JSON      `json:"metadata,omitempty"`
}

// UpdateNodeRequest represents a partial update to a node
type UpdateNodeRequest struct {
	Name             *string    `json:"name,omitempty"`
	NodeType         *string    `json:"node_type,omitempty"`
	AudioFileID      *string    `json:"audio_file_id,omitempty"`
	RetryAudioFileID *string    `json:"retry_audio_file_id,omitempty"`
	PromptText       *string    `json:"prompt_text,omitempty"`
	TimeoutSeconds   *int       `json:"timeout_seconds,omitempty"`
	RetryCount       *int       `json:"retry_count,omitempty"`
	Actions          *ActionMap `json:"actions,omitempty"`
	Metadata         *JSON      `json:"metadata,omitempty"`
}

// FlowResponse represents the response for flow operations
type FlowResponse struct {
	ID                 string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID             string  `json:"user_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Name               string  `json:"name" example:"Support hotline"`
	Description        string  `json:"description,omitempty"`
	IsActive           bool    `json:"is_active" example:"true"`
	EntryNodeKey       string  `json:"entry_node_key,omitempty" example:"main_menu"`
	DefaultLanguage    string  `json:"default_language" example:"en"`
	MaxRetries         int     `json:"max_retries" example:"3"`
	TimeoutSeconds     int     `json:"timeout_seconds" example:"10"`
	TotalCalls         int     `json:"total_calls" example:"120"`
	CompletedCalls     int     `json:"completed_calls" example:"87"`
	AvgDurationSeconds float64 `json:"avg_duration_seconds" example:"42.5"`
	ChoiceStats        JSON    `json:"choice_stats,omitempty"`
	NodeCount          int     `json:"node_count" example:"5"`
	CreatedAt          string  `json:"created_at" example:"2025-01-09T10:30:00Z"`
	UpdatedAt          string  `json:"updated_at" example:"2025-01-09T10:30:00Z"`
}

// NodeResponse represents the response for node operations
type NodeResponse struct {
	ID               string    `json:"id"`
	FlowID           string    `json:"flow_id"`
	NodeKey          string    `json:"node_key"`
	Name             string    `json:"name"`
	NodeType         string    `json:"node_type"`
	AudioFileID      *string   `json:"audio_file_id,omitempty"`
	RetryAudioFileID *string   `json:"retry_audio_file_id,omitempty"`
	PromptText       string    `json:"prompt_text,omitempty"`
	TimeoutSeconds   int       `json:"timeout_seconds"`
	RetryCount       int       `json:"retry_count"`
	ParentNodeID     *string   `json:"parent_node_id,omitempty"`
	Actions          ActionMap `json:"actions"`
	Metadata         JSON      `json:"metadata,omitempty"`
	AudioFile        *AudioFileResponse `json:"audio_file,omitempty"`
	CreatedAt        string    `json:"created_at"`
	UpdatedAt        string    `json:"updated_at"`
}

// FlowWithNodesResponse bundles a flow with all its nodes
type FlowWithNodesResponse struct {
	Flow  FlowResponse   `json:"flow"`
	Nodes []NodeResponse `json:"nodes"`
}
