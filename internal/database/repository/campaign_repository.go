package repository

import (
	"github.com/voxlink/ivr-dialer-backend/internal/models"
	"github.com/voxlink/ivr-dialer-backend/internal/utils"

	"gorm.io/gorm"
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create creates a new campaign
func (r *CampaignRepository) Create(campaign *models.Campaign) error {
	return r.db.Create(campaign).Error
}

// GetByID retrieves a campaign by ID without ownership scoping
func (r *CampaignRepository) GetByID(id string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.First(&campaign, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetByUserIDAndID retrieves a campaign by user ID and campaign ID
func (r *CampaignRepository) GetByUserIDAndID(userID, campaignID string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.Where("user_id = ? AND id = ?", userID, campaignID).
		Preload("Flow").
		Preload("ContactGroup").
		First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetByUserIDPaginated retrieves paginated campaigns for a specific user
func (r *CampaignRepository) GetByUserIDPaginated(userID string, page, pageSize int) ([]*models.Campaign, int, error) {
	var campaigns []*models.Campaign
	var total int64

	err := r.db.Where("user_id = ?", userID).
		Model(&models.Campaign{}).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	offset := utils.CalculateOffset(page, pageSize)

	err = r.db.Where("user_id = ?", userID).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&campaigns).Error

	return campaigns, int(total), err
}

// GetByStatus retrieves all campaigns in the given status
func (r *CampaignRepository) GetByStatus(status string) ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	err := r.db.Where("status = ?", status).Find(&campaigns).Error
	return campaigns, err
}

// Update updates a campaign
func (r *CampaignRepository) Update(campaign *models.Campaign) error {
	return r.db.Save(campaign).Error
}

// IncrementCounter atomically bumps one of the campaign progress counters
func (r *CampaignRepository) IncrementCounter(campaignID, column string) error {
	return r.db.Model(&models.Campaign{}).
		Where("id = ?", campaignID).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}

// Delete deletes a campaign and its schedules
func (r *CampaignRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("campaign_id = ?", id).Delete(&models.CallSchedule{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Campaign{}, "id = ?", id).Error
	})
}
