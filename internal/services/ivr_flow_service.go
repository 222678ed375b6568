package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/voxlink/ivr-dialer-backend/internal/models"
	"github.com/voxlink/ivr-dialer-backend/internal/services/ivr"
)

var supportedLanguages = map[string]bool{
	"en": true,
	"hi": true,
	"es": true,
	"fr": true,
}

var validNodeTypes = map[string]bool{
	models.NodeTypeMenu:     true,
	models.NodeTypeMessage:  true,
	models.NodeTypeInput:    true,
	models.NodeTypeTransfer: true,
	models.NodeTypeEnd:      true,
}

// flowStore is the persistence surface IVRFlowService needs for flows
type flowStore interface {
	Create(flow *models.IVRFlow) error
	GetByID(id string) (*models.IVRFlow, error)
	GetByUserIDAndID(userID, flowID string) (*models.IVRFlow, error)
	GetByUserIDPaginated(userID string, page, pageSize int) ([]*models.IVRFlow, int, error)
	Update(flow *models.IVRFlow) error
	Delete(id string) error
}

// nodeStore is the persistence surface IVRFlowService needs for nodes
type nodeStore interface {
	Create(node *models.IVRNode) error
	GetByFlowIDAndID(flowID, nodeID string) (*models.IVRNode, error)
	GetByFlowID(flowID string) ([]models.IVRNode, error)
	KeyExists(flowID, nodeKey string) (bool, error)
	Update(node *models.IVRNode) error
	Delete(flowID, nodeID string) error
	DeleteByFlowID(flowID string) error
	CountByFlowID(flowID string) (int, error)
}

// IVRFlowService owns flow and node authoring: durable storage, scoped by
// owning user, with validation at the write boundary
type IVRFlowService struct {
	flows flowStore
	nodes nodeStore
}

func NewIVRFlowService(flows flowStore, nodes nodeStore) *IVRFlowService {
	return &IVRFlowService{flows: flows, nodes: nodes}
}

// CreateFlow creates a new flow with execution defaults filled in
func (s *IVRFlowService) CreateFlow(userID string, req *models.CreateFlowRequest) (*models.FlowResponse, error) {
	flow := &models.IVRFlow{
		UserID:          userID,
		Name:            req.Name,
		Description:     req.Description,
		IsActive:        true,
		EntryNodeKey:    req.EntryNodeKey,
		DefaultLanguage: req.DefaultLanguage,
		MaxRetries:      req.MaxRetries,
		TimeoutSeconds:  req.TimeoutSeconds,
		ChoiceStats:     models.JSON{},
	}
	if flow.DefaultLanguage == "" {
		flow.DefaultLanguage = "en"
	}
	if flow.MaxRetries == 0 {
		flow.MaxRetries = 3
	}
	if flow.TimeoutSeconds == 0 {
		flow.TimeoutSeconds = 10
	}

	if err := validateFlowConfig(flow); err != nil {
		return nil, err
	}

	if err := s.flows.Create(flow); err != nil {
		return nil, fmt.Errorf("failed to create flow: %w", err)
	}

	return s.toFlowResponse(flow, 0), nil
}

// ListFlows retrieves paginated flows for a user
func (s *IVRFlowService) ListFlows(userID string, page, pageSize int) ([]*models.FlowResponse, int, error) {
	flows, total, err := s.flows.GetByUserIDPaginated(userID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get flows: %w", err)
	}

	responses := make([]*models.FlowResponse, len(flows))
	for i, flow := range flows {
		count, err := s.nodes.CountByFlowID(flow.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to count nodes: %w", err)
		}
		responses[i] = s.toFlowResponse(flow, count)
	}

	return responses, total, nil
}

// GetFlow retrieves a flow owned by the user
func (s *IVRFlowService) GetFlow(userID, flowID string) (*models.FlowResponse, error) {
	flow, err := s.ownedFlow(userID, flowID)
	if err != nil {
		return nil, err
	}
	count, err := s.nodes.CountByFlowID(flow.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count nodes: %w", err)
	}
	return s.toFlowResponse(flow, count), nil
}

// UpdateFlow applies a partial update to a flow owned by the user
func (s *IVRFlowService) UpdateFlow(userID, flowID string, req *models.UpdateFlowRequest) (*models.FlowResponse, error) {
	flow, err := s.ownedFlow(userID, flowID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		flow.Name = *req.Name
	}
	if req.Description != nil {
		flow.Description = *req.Description
	}
	if req.IsActive != nil {
		flow.IsActive = *req.IsActive
	}
	if req.EntryNodeKey != nil {
		flow.EntryNodeKey = *req.EntryNodeKey
	}
	if req.DefaultLanguage != nil {
		flow.DefaultLanguage = *req.DefaultLanguage
	}
	if req.MaxRetries != nil {
		flow.MaxRetries = *req.MaxRetries
	}
	if req.TimeoutSeconds != nil {
		flow.TimeoutSeconds = *req.TimeoutSeconds
	}

	if err := validateFlowConfig(flow); err != nil {
		return nil, err
	}

	if err := s.flows.Update(flow); err != nil {
		return nil, fmt.Errorf("failed to update flow: %w", err)
	}

	count, err := s.nodes.CountByFlowID(flow.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count nodes: %w", err)
	}
	return s.toFlowResponse(flow, count), nil
}

// DeleteFlow deletes a flow and all its nodes
func (s *IVRFlowService) DeleteFlow(userID, flowID string) error {
	if _, err := s.ownedFlow(userID, flowID); err != nil {
		return err
	}
	if err := s.nodes.DeleteByFlowID(flowID); err != nil {
		return fmt.Errorf("failed to delete flow nodes: %w", err)
	}
	if err := s.flows.Delete(flowID); err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}
	return nil
}

// AddNode creates a node under a flow owned by the user. The node key must
// be unique within the flow.
func (s *IVRFlowService) AddNode(userID, flowID string, req *models.CreateNodeRequest) (*models.NodeResponse, error) {
	if _, err := s.ownedFlow(userID, flowID); err != nil {
		return nil, err
	}

	node := &models.IVRNode{
		FlowID:           flowID,
		NodeKey:          req.NodeKey,
		Name:             req.Name,
		NodeType:         req.NodeType,
		AudioFileID:      req.AudioFileID,
		RetryAudioFileID: req.RetryAudioFileID,
		PromptText:       req.PromptText,
		TimeoutSeconds:   req.TimeoutSeconds,
		RetryCount:       req.RetryCount,
		ParentNodeID:     req.ParentNodeID,
		Actions:          req.Actions,
		Metadata:         req.Metadata,
	}
	if node.NodeType == "" {
		node.NodeType = models.NodeTypeMenu
	}
	if node.TimeoutSeconds == 0 {
		node.TimeoutSeconds = 10
	}
	if node.RetryCount == 0 {
		node.RetryCount = 3
	}
	if node.Actions == nil {
		node.Actions = models.ActionMap{}
	}

	if err := validateNodeConfig(node); err != nil {
		return nil, err
	}

	taken, err := s.nodes.KeyExists(flowID, node.NodeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check node key: %w", err)
	}
	if taken {
		return nil, models.NewValidationError("node_key", fmt.Sprintf("node key %q already exists in this flow", node.NodeKey))
	}

	if err := s.nodes.Create(node); err != nil {
		return nil, fmt.Errorf("failed to create node: %w", err)
	}

	return s.toNodeResponse(node), nil
}

// UpdateNode applies a partial update to a node of a flow owned by the user.
// The node key itself is immutable; goto actions reference it.
func (s *IVRFlowService) UpdateNode(userID, flowID, nodeID string, req *models.UpdateNodeRequest) (*models.NodeResponse, error) {
	if _, err := s.ownedFlow(userID, flowID); err != nil {
		return nil, err
	}

	node, err := s.nodes.GetByFlowIDAndID(flowID, nodeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("node", nodeID)
		}
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	if req.Name != nil {
		node.Name = *req.Name
	}
	if req.NodeType != nil {
		node.NodeType = *req.NodeType
	}
	if req.AudioFileID != nil {
		node.AudioFileID = req.AudioFileID
	}
	if req.RetryAudioFileID != nil {
		node.RetryAudioFileID = req.RetryAudioFileID
	}
	if req.PromptText != nil {
		node.PromptText = *req.PromptText
	}
	if req.TimeoutSeconds != nil {
		node.TimeoutSeconds = *req.TimeoutSeconds
	}
	if req.RetryCount != nil {
		node.RetryCount = *req.RetryCount
	}
	if req.Actions != nil {
		node.Actions = *req.Actions
	}
	if req.Metadata != nil {
		node.Metadata = *req.Metadata
	}

	if err := validateNodeConfig(node); err != nil {
		return nil, err
	}

	if err := s.nodes.Update(node); err != nil {
		return nil, fmt.Errorf("failed to update node: %w", err)
	}

	return s.toNodeResponse(node), nil
}

// DeleteNode deletes a node. Actions elsewhere that target its key stay as
// they are and show up in validation as dangling.
func (s *IVRFlowService) DeleteNode(userID, flowID, nodeID string) error {
	if _, err := s.ownedFlow(userID, flowID); err != nil {
		return err
	}

	if _, err := s.nodes.GetByFlowIDAndID(flowID, nodeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("node", nodeID)
		}
		return fmt.Errorf("failed to get node: %w", err)
	}

	if err := s.nodes.Delete(flowID, nodeID); err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}
	return nil
}

// GetFlowWithNodes retrieves a flow and all its nodes with resolved audio
// references
func (s *IVRFlowService) GetFlowWithNodes(userID, flowID string) (*models.FlowWithNodesResponse, error) {
	flow, err := s.ownedFlow(userID, flowID)
	if err != nil {
		return nil, err
	}

	nodes, err := s.nodes.GetByFlowID(flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get nodes: %w", err)
	}

	response := &models.FlowWithNodesResponse{
		Flow:  *s.toFlowResponse(flow, len(nodes)),
		Nodes: make([]models.NodeResponse, len(nodes)),
	}
	for i := range nodes {
		response.Nodes[i] = *s.toNodeResponse(&nodes[i])
	}
	return response, nil
}

// ValidateFlow runs the static graph validator against the flow's nodes
func (s *IVRFlowService) ValidateFlow(userID, flowID string) ([]ivr.Finding, error) {
	flow, err := s.ownedFlow(userID, flowID)
	if err != nil {
		return nil, err
	}
	nodes, err := s.nodes.GetByFlowID(flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get nodes: %w", err)
	}
	return ivr.Validate(flow, nodes), nil
}

// LoadGraph builds the in-memory execution graph for a flow without ownership
// scoping; the call-execution layer resolves flows through campaigns
func (s *IVRFlowService) LoadGraph(flowID string) (*ivr.Graph, error) {
	flow, err := s.flows.GetByID(flowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("flow", flowID)
		}
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}
	nodes, err := s.nodes.GetByFlowID(flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get nodes: %w", err)
	}
	return ivr.BuildGraph(flow, nodes), nil
}

// RecordCallStats folds one finished call into the flow's aggregate stats
func (s *IVRFlowService) RecordCallStats(flowID string, completed bool, durationSeconds float64, digits []string) error {
	flow, err := s.flows.GetByID(flowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("flow", flowID)
		}
		return fmt.Errorf("failed to get flow: %w", err)
	}

	prevTotal := float64(flow.TotalCalls)
	flow.TotalCalls++
	if completed {
		flow.CompletedCalls++
	}
	flow.AvgDurationSeconds = (flow.AvgDurationSeconds*prevTotal + durationSeconds) / float64(flow.TotalCalls)

	if flow.ChoiceStats == nil {
		flow.ChoiceStats = models.JSON{}
	}
	for _, digit := range digits {
		count, _ := flow.ChoiceStats[digit].(float64)
		flow.ChoiceStats[digit] = count + 1
	}

	if err := s.flows.Update(flow); err != nil {
		return fmt.Errorf("failed to update flow stats: %w", err)
	}
	return nil
}

func (s *IVRFlowService) ownedFlow(userID, flowID string) (*models.IVRFlow, error) {
	flow, err := s.flows.GetByUserIDAndID(userID, flowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("flow", flowID)
		}
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}
	return flow, nil
}

func validateFlowConfig(flow *models.IVRFlow) error {
	if flow.Name == "" {
		return models.NewValidationError("name", "name is required")
	}
	if len(flow.Name) > 255 {
		return models.NewValidationError("name", "name must be at most 255 characters")
	}
	if !supportedLanguages[flow.DefaultLanguage] {
		return models.NewValidationError("default_language", "unsupported language "+flow.DefaultLanguage)
	}
	if flow.MaxRetries < 1 || flow.MaxRetries > 10 {
		return models.NewValidationError("max_retries", "max_retries must be between 1 and 10")
	}
	if flow.TimeoutSeconds < 5 || flow.TimeoutSeconds > 60 {
		return models.NewValidationError("timeout_seconds", "timeout_seconds must be between 5 and 60")
	}
	return nil
}

func validateNodeConfig(node *models.IVRNode) error {
	if node.NodeKey == "" {
		return models.NewValidationError("node_key", "node_key is required")
	}
	if len(node.NodeKey) > 255 {
		return models.NewValidationError("node_key", "node_key must be at most 255 characters")
	}
	if node.Name == "" {
		return models.NewValidationError("name", "name is required")
	}
	if !validNodeTypes[node.NodeType] {
		return models.NewValidationError("node_type", "unknown node type "+node.NodeType)
	}
	if node.TimeoutSeconds < 5 || node.TimeoutSeconds > 60 {
		return models.NewValidationError("timeout_seconds", "timeout_seconds must be between 5 and 60")
	}
	if node.RetryCount < 1 || node.RetryCount > 10 {
		return models.NewValidationError("retry_count", "retry_count must be between 1 and 10")
	}
	return node.Actions.Validate()
}

func (s *IVRFlowService) toFlowResponse(flow *models.IVRFlow, nodeCount int) *models.FlowResponse {
	return &models.FlowResponse{
		ID:                 flow.ID,
		UserID:             flow.UserID,
		Name:               flow.Name,
		Description:        flow.Description,
		IsActive:           flow.IsActive,
		EntryNodeKey:       flow.EntryNodeKey,
		DefaultLanguage:    flow.DefaultLanguage,
		MaxRetries:         flow.MaxRetries,
		TimeoutSeconds:     flow.TimeoutSeconds,
		TotalCalls:         flow.TotalCalls,
		CompletedCalls:     flow.CompletedCalls,
		AvgDurationSeconds: flow.AvgDurationSeconds,
		ChoiceStats:        flow.ChoiceStats,
		NodeCount:          nodeCount,
		CreatedAt:          flow.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          flow.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *IVRFlowService) toNodeResponse(node *models.IVRNode) *models.NodeResponse {
	response := &models.NodeResponse{
		ID:               node.ID,
		FlowID:           node.FlowID,
		NodeKey:          node.NodeKey,
		Name:             node.Name,
		NodeType:         node.NodeType,
		AudioFileID:      node.AudioFileID,
		RetryAudioFileID: node.RetryAudioFileID,
		PromptText:       node.PromptText,
		TimeoutSeconds:   node.TimeoutSeconds,
		RetryCount:       node.RetryCount,
		ParentNodeID:     node.ParentNodeID,
		Actions:          node.Actions,
		Metadata:         node.Metadata,
		CreatedAt:        node.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        node.UpdatedAt.Format(time.RFC3339),
	}
	if node.AudioFile != nil {
		response.AudioFile = &models.AudioFileResponse{
			ID:              node.AudioFile.ID,
			UserID:          node.AudioFile.UserID,
			FileName:        node.AudioFile.FileName,
			OriginalName:    node.AudioFile.OriginalName,
			MimeType:        node.AudioFile.MimeType,
			FileSize:        node.AudioFile.FileSize,
			DurationSeconds: node.AudioFile.DurationSeconds,
			Language:        node.AudioFile.Language,
			Category:        node.AudioFile.Category,
			CreatedAt:       node.AudioFile.CreatedAt.Format(time.RFC3339),
			UpdatedAt:       node.AudioFile.UpdatedAt.Format(time.RFC3339),
		}
	}
	return response
}
