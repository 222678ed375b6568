package repository

import (
	"github.com/voxlink/ivr-dialer-backend/internal/models"

	"gorm.io/gorm"
)

type IVRNodeRepository struct {
	db *gorm.DB
}

func NewIVRNodeRepository(db *gorm.DB) *IVRNodeRepository {
	return &IVRNodeRepository{db: db}
}

// Create creates a new node
func (r *IVRNodeRepository) Create(node *models.IVRNode) error {
	return r.db.Create(node).Error
}

// GetByFlowIDAndID retrieves a node belonging to the given flow
func (r *IVRNodeRepository) GetByFlowIDAndID(flowID, nodeID string) (*models.IVRNode, error) {
	var node models.IVRNode
	err := r.db.Where("flow_id = ? AND id = ?", flowID, nodeID).First(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// GetByFlowID retrieves all nodes of a flow with resolved audio references,
// oldest first so the entry-node fallback is stable
func (r *IVRNodeRepository) GetByFlowID(flowID string) ([]models.IVRNode, error) {
	var nodes []models.IVRNode
	err := r.db.Where("flow_id = ?", flowID).
		Preload("AudioFile").
		Order("created_at ASC").
		Find(&nodes).Error
	return nodes, err
}

// KeyExists checks whether a node key is already taken within a flow
func (r *IVRNodeRepository) KeyExists(flowID, nodeKey string) (bool, error) {
	var count int64
	err := r.db.Model(&models.IVRNode{}).
		Where("flow_id = ? AND node_key = ?", flowID, nodeKey).
		Count(&count).Error
	return count > 0, err
}

// Update updates a node
func (r *IVRNodeRepository) Update(node *models.IVRNode) error {
	return r.db.Save(node).Error
}

// Delete deletes a node. Actions in other nodes that point at its key are
// left untouched; the graph validator reports them as dangling.
func (r *IVRNodeRepository) Delete(flowID, nodeID string) error {
	return r.db.Where("flow_id = ? AND id = ?", flowID, nodeID).Delete(&models.IVRNode{}).Error
}

// DeleteByFlowID removes every node of a flow
func (r *IVRNodeRepository) DeleteByFlowID(flowID string) error {
	return r.db.Where("flow_id = ?", flowID).Delete(&models.IVRNode{}).Error
}

// CountByFlowID counts the nodes of a flow
func (r *IVRNodeRepository) CountByFlowID(flowID string) (int, error) {
	var count int64
	err := r.db.Model(&models.IVRNode{}).Where("flow_id = ?", flowID).Count(&count).Error
	return int(count), err
}
