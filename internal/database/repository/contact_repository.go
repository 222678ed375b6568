package repository

import (
	"github.com/voxlink/ivr-dialer-backend/internal/models"
	"github.com/voxlink/ivr-dialer-backend/internal/utils"

	"gorm.io/gorm"
)

type ContactGroupRepository struct {
	db *gorm.DB
}

func NewContactGroupRepository(db *gorm.DB) *ContactGroupRepository {
	return &ContactGroupRepository{db: db}
}

// Create creates a new contact group
func (r *ContactGroupRepository) Create(group *models.ContactGroup) error {
	return r.db.Create(group).Error
}

// GetByUserIDAndID retrieves a contact group owned by the given user
func (r *ContactGroupRepository) GetByUserIDAndID(userID, groupID string) (*models.ContactGroup, error) {
	var group models.ContactGroup
	err := r.db.Where("user_id = ? AND id = ?", userID, groupID).First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// GetByUserIDPaginated retrieves paginated contact groups for a user
func (r *ContactGroupRepository) GetByUserIDPaginated(userID string, page, pageSize int) ([]*models.ContactGroup, int, error) {
	var groups []*models.ContactGroup
	var total int64

	err := r.db.Where("user_id = ?", userID).
		Model(&models.ContactGroup{}).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	offset := utils.CalculateOffset(page, pageSize)

	err = r.db.Where("user_id = ?", userID).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&groups).Error

	return groups, int(total), err
}

// Update updates a contact group
func (r *ContactGroupRepository) Update(group *models.ContactGroup) error {
	return r.db.Save(group).Error
}

// Delete deletes a contact group and cascades to its contacts
func (r *ContactGroupRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&models.Contact{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ContactGroup{}, "id = ?", id).Error
	})
}

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create creates a new contact
func (r *ContactRepository) Create(contact *models.Contact) error {
	return r.db.Create(contact).Error
}

// CreateBatch inserts multiple contacts in one statement
func (r *ContactRepository) CreateBatch(contacts []models.Contact) error {
	if len(contacts) == 0 {
		return nil
	}
	return r.db.Create(&contacts).Error
}

// GetByGroupID retrieves all contacts of a group
func (r *ContactRepository) GetByGroupID(groupID string) ([]models.Contact, error) {
	var contacts []models.Contact
	err := r.db.Where("group_id = ?", groupID).Order("created_at ASC").Find(&contacts).Error
	return contacts, err
}

// GetByGroupIDAndID retrieves a contact belonging to the given group
func (r *ContactRepository) GetByGroupIDAndID(groupID, contactID string) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.Where("group_id = ? AND id = ?", groupID, contactID).First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// PhoneExistsInGroup checks whether a phone number is already in the group
func (r *ContactRepository) PhoneExistsInGroup(groupID, phone string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Contact{}).
		Where("group_id = ? AND phone = ?", groupID, phone).
		Count(&count).Error
	return count > 0, err
}

// CountByGroupID counts the contacts of a group
func (r *ContactRepository) CountByGroupID(groupID string) (int, error) {
	var count int64
	err := r.db.Model(&models.Contact{}).Where("group_id = ?", groupID).Count(&count).Error
	return int(count), err
}

// Delete deletes a contact from a group
func (r *ContactRepository) Delete(groupID, contactID string) error {
	return r.db.Where("group_id = ? AND id = ?", groupID, contactID).Delete(&models.Contact{}).Error
}
