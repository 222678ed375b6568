package repository

import (
	"github.com/voxlink/ivr-dialer-backend/internal/models"
	"github.com/voxlink/ivr-dialer-backend/internal/utils"

	"gorm.io/gorm"
)

type IVRFlowRepository struct {
	db *gorm.DB
}

func NewIVRFlowRepository(db *gorm.DB) *IVRFlowRepository {
	return &IVRFlowRepository{db: db}
}

// Create creates a new flow
func (r *IVRFlowRepository) Create(flow *models.IVRFlow) error {
	return r.db.Create(flow).Error
}

// GetByID retrieves a flow by ID
func (r *IVRFlowRepository) GetByID(id string) (*models.IVRFlow, error) {
	var flow models.IVRFlow
	err := r.db.First(&flow, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &flow, nil
}

// GetByUserIDAndID retrieves a flow owned by the given user
func (r *IVRFlowRepository) GetByUserIDAndID(userID, flowID string) (*models.IVRFlow, error) {
	var flow models.IVRFlow
	err := r.db.Where("user_id = ? AND id = ?", userID, flowID).First(&flow).Error
	if err != nil {
		return nil, err
	}
	return &flow, nil
}

// GetByUserIDPaginated retrieves paginated flows for a specific user
func (r *IVRFlowRepository) GetByUserIDPaginated(userID string, page, pageSize int) ([]*models.IVRFlow, int, error) {
	var flows []*models.IVRFlow
	var total int64

	err := r.db.Where("user_id = ?", userID).
		Model(&models.IVRFlow{}).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	offset := utils.CalculateOffset(page, pageSize)

	err = r.db.Where("user_id = ?", userID).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&flows).Error

	return flows, int(total), err
}

// Update updates a flow
func (r *IVRFlowRepository) Update(flow *models.IVRFlow) error {
	return r.db.Save(flow).Error
}

// Delete deletes a flow. Node cleanup is driven by the service so the
// cascade holds against any node store.
func (r *IVRFlowRepository) Delete(id string) error {
	return r.db.Delete(&models.IVRFlow{}, "id = ?", id).Error
}
