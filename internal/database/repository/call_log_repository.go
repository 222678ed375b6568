package repository

import (
	"github.com/voxlink/ivr-dialer-backend/internal/models"
	"github.com/voxlink/ivr-dialer-backend/internal/utils"

	"gorm.io/gorm"
)

type CallLogRepository struct {
	db *gorm.DB
}

func NewCallLogRepository(db *gorm.DB) *CallLogRepository {
	return &CallLogRepository{db: db}
}

// Create creates a new call log
func (r *CallLogRepository) Create(log *models.CallLog) error {
	return r.db.Create(log).Error
}

// GetByUserIDPaginated retrieves paginated call logs for a user
func (r *CallLogRepository) GetByUserIDPaginated(userID string, page, pageSize int) ([]*models.CallLog, int, error) {
	var logs []*models.CallLog
	var total int64

	err := r.db.Where("user_id = ?", userID).
		Model(&models.CallLog{}).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	offset := utils.CalculateOffset(page, pageSize)

	err = r.db.Where("user_id = ?", userID).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&logs).Error

	return logs, int(total), err
}

// GetByCampaignIDPaginated retrieves paginated call logs for a campaign
func (r *CallLogRepository) GetByCampaignIDPaginated(campaignID string, page, pageSize int) ([]*models.CallLog, int, error) {
	var logs []*models.CallLog
	var total int64

	err := r.db.Where("campaign_id = ?", campaignID).
		Model(&models.CallLog{}).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	offset := utils.CalculateOffset(page, pageSize)

	err = r.db.Where("campaign_id = ?", campaignID).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&logs).Error

	return logs, int(total), err
}

// statusCount is a scan target for the summary aggregation
type statusCount struct {
	Status string
	Count  int
}

// SummarizeByCampaignID aggregates call outcomes for one campaign
func (r *CallLogRepository) SummarizeByCampaignID(campaignID string) (*models.CampaignSummary, error) {
	var rows []statusCount
	err := r.db.Model(&models.CallLog{}).
		Select("status, count(*) as count").
		Where("campaign_id = ?", campaignID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summary := &models.CampaignSummary{
		CampaignID: campaignID,
		ByStatus:   make(map[string]int),
	}
	for _, row := range rows {
		summary.ByStatus[row.Status] = row.Count
		summary.TotalCalls += row.Count
	}

	var avg *float64
	err = r.db.Model(&models.CallLog{}).
		Select("avg(duration_seconds)").
		Where("campaign_id = ?", campaignID).
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	if avg != nil {
		summary.AvgDurationSeconds = *avg
	}

	return summary, nil
}
