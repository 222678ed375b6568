package repository

import (
	"github.com/voxlink/ivr-dialer-backend/internal/models"
	"github.com/voxlink/ivr-dialer-backend/internal/utils"

	"gorm.io/gorm"
)

type AudioFileRepository struct {
	db *gorm.DB
}

func NewAudioFileRepository(db *gorm.DB) *AudioFileRepository {
	return &AudioFileRepository{db: db}
}

// Create creates a new audio file record
func (r *AudioFileRepository) Create(file *models.AudioFile) error {
	return r.db.Create(file).Error
}

// GetByID retrieves an audio file by ID
func (r *AudioFileRepository) GetByID(id string) (*models.AudioFile, error) {
	var file models.AudioFile
	err := r.db.First(&file, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// GetByUserIDAndID retrieves an audio file owned by the given user
func (r *AudioFileRepository) GetByUserIDAndID(userID, fileID string) (*models.AudioFile, error) {
	var file models.AudioFile
	err := r.db.Where("user_id = ? AND id = ?", userID, fileID).First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// GetByUserIDPaginated retrieves paginated audio files for a user
func (r *AudioFileRepository) GetByUserIDPaginated(userID string, page, pageSize int) ([]*models.AudioFile, int, error) {
	var files []*models.AudioFile
	var total int64

	err := r.db.Where("user_id = ?", userID).
		Model(&models.AudioFile{}).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	offset := utils.CalculateOffset(page, pageSize)

	err = r.db.Where("user_id = ?", userID).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&files).Error

	return files, int(total), err
}

// Delete deletes an audio file record
func (r *AudioFileRepository) Delete(id string) error {
	return r.db.Delete(&models.AudioFile{}, "id = ?", id).Error
}
