package repository

import (
	"time"

	"github.com/voxlink/ivr-dialer-backend/internal/models"

	"gorm.io/gorm"
)

type CallScheduleRepository struct {
	db *gorm.DB
}

func NewCallScheduleRepository(db *gorm.DB) *CallScheduleRepository {
	return &CallScheduleRepository{db: db}
}

// Create creates a new call schedule
func (r *CallScheduleRepository) Create(schedule *models.CallSchedule) error {
	return r.db.Create(schedule).Error
}

// CreateBatch inserts multiple schedules in one statement
func (r *CallScheduleRepository) CreateBatch(schedules []models.CallSchedule) error {
	if len(schedules) == 0 {
		return nil
	}
	return r.db.Create(&schedules).Error
}

// GetByID retrieves a schedule by ID
func (r *CallScheduleRepository) GetByID(id string) (*models.CallSchedule, error) {
	var schedule models.CallSchedule
	err := r.db.Preload("Contact").First(&schedule, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// GetPendingByCampaignID retrieves pending schedules of a campaign
func (r *CallScheduleRepository) GetPendingByCampaignID(campaignID string, limit int) ([]*models.CallSchedule, error) {
	var schedules []*models.CallSchedule
	err := r.db.Where("campaign_id = ? AND status = ?", campaignID, models.ScheduleStatusPending).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&schedules).Error
	return schedules, err
}

// MarkDispatched moves a schedule to dispatched and pins it to a device
func (r *CallScheduleRepository) MarkDispatched(scheduleID, deviceID string) error {
	now := time.Now()
	return r.db.Model(&models.CallSchedule{}).
		Where("id = ?", scheduleID).
		Updates(map[string]interface{}{
			"status":        models.ScheduleStatusDispatched,
			"device_id":     deviceID,
			"dispatched_at": now,
			"attempts":      gorm.Expr("attempts + 1"),
		}).Error
}

// MarkStatus updates a schedule's status; terminal statuses also stamp
// completed_at
func (r *CallScheduleRepository) MarkStatus(scheduleID, status string) error {
	updates := map[string]interface{}{"status": status}
	if status == models.ScheduleStatusCompleted || status == models.ScheduleStatusFailed {
		now := time.Now()
		updates["completed_at"] = now
	}
	return r.db.Model(&models.CallSchedule{}).Where("id = ?", scheduleID).Updates(updates).Error
}

// CountByCampaignIDAndStatus counts schedules of a campaign in a status
func (r *CallScheduleRepository) CountByCampaignIDAndStatus(campaignID, status string) (int, error) {
	var count int64
	err := r.db.Model(&models.CallSchedule{}).
		Where("campaign_id = ? AND status = ?", campaignID, status).
		Count(&count).Error
	return int(count), err
}
