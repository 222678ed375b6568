package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/voxlink/ivr-dialer-backend/internal/models"
	"github.com/voxlink/ivr-dialer-backend/internal/utils"
)

// contactGroupStore is the persistence surface for contact groups
type contactGroupStore interface {
	Create(group *models.ContactGroup) error
	GetByUserIDAndID(userID, groupID string) (*models.ContactGroup, error)
	GetByUserIDPaginated(userID string, page, pageSize int) ([]*models.ContactGroup, int, error)
	Update(group *models.ContactGroup) error
	Delete(id string) error
}

// contactStore is the persistence surface for contacts
type contactStore interface {
	Create(contact *models.Contact) error
	CreateBatch(contacts []models.Contact) error
	GetByGroupID(groupID string) ([]models.Contact, error)
	GetByGroupIDAndID(groupID, contactID string) (*models.Contact, error)
	PhoneExistsInGroup(groupID, phone string) (bool, error)
	CountByGroupID(groupID string) (int, error)
	Delete(groupID, contactID string) error
}

// ContactService manages contact groups and their phone contacts. Phone
// numbers are normalized on the way in and unique within a group.
type ContactService struct {
	groups   contactGroupStore
	contacts contactStore
}

func NewContactService(groups contactGroupStore, contacts contactStore) *ContactService {
	return &ContactService{groups: groups, contacts: contacts}
}

// CreateGroup creates a contact group
func (s *ContactService) CreateGroup(userID string, req *models.CreateContactGroupRequest) (*models.ContactGroupResponse, error) {
	group := &models.ContactGroup{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.groups.Create(group); err != nil {
		return nil, fmt.Errorf("failed to create contact group: %w", err)
	}
	return s.toGroupResponse(group, 0), nil
}

// ListGroups retrieves paginated contact groups for a user
func (s *ContactService) ListGroups(userID string, page, pageSize int) ([]*models.ContactGroupResponse, int, error) {
	groups, total, err := s.groups.GetByUserIDPaginated(userID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get contact groups: %w", err)
	}
	responses := make([]*models.ContactGroupResponse, len(groups))
	for i, group := range groups {
		count, err := s.contacts.CountByGroupID(group.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to count contacts: %w", err)
		}
		responses[i] = s.toGroupResponse(group, count)
	}
	return responses, total, nil
}

// GetGroup retrieves a contact group owned by the user
func (s *ContactService) GetGroup(userID, groupID string) (*models.ContactGroupResponse, error) {
	group, err := s.ownedGroup(userID, groupID)
	if err != nil {
		return nil, err
	}
	count, err := s.contacts.CountByGroupID(group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}
	return s.toGroupResponse(group, count), nil
}

// UpdateGroup applies a partial update to a contact group
func (s *ContactService) UpdateGroup(userID, groupID string, req *models.UpdateContactGroupRequest) (*models.ContactGroupResponse, error) {
	group, err := s.ownedGroup(userID, groupID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	if group.Name == "" {
		return nil, models.NewValidationError("name", "name is required")
	}
	if err := s.groups.Update(group); err != nil {
		return nil, fmt.Errorf("failed to update contact group: %w", err)
	}
	count, err := s.contacts.CountByGroupID(group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}
	return s.toGroupResponse(group, count), nil
}

// DeleteGroup deletes a contact group and its contacts
func (s *ContactService) DeleteGroup(userID, groupID string) error {
	if _, err := s.ownedGroup(userID, groupID); err != nil {
		return err
	}
	if err := s.groups.Delete(groupID); err != nil {
		return fmt.Errorf("failed to delete contact group: %w", err)
	}
	return nil
}

// AddContact adds a single contact to a group. The phone number is normalized
// and must not already exist in the group.
func (s *ContactService) AddContact(userID, groupID string, req *models.CreateContactRequest) (*models.ContactResponse, error) {
	if _, err := s.ownedGroup(userID, groupID); err != nil {
		return nil, err
	}

	phone, err := utils.NormalizePhone(req.Phone)
	if err != nil {
		return nil, models.NewValidationError("phone", err.Error())
	}

	exists, err := s.contacts.PhoneExistsInGroup(groupID, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check phone: %w", err)
	}
	if exists {
		return nil, models.NewValidationError("phone", fmt.Sprintf("phone %s already exists in this group", phone))
	}

	contact := &models.Contact{
		GroupID: groupID,
		Name:    req.Name,
		Phone:   phone,
		Notes:   req.Notes,
	}
	if err := s.contacts.Create(contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return s.toContactResponse(contact), nil
}

// ListContacts retrieves all contacts of a group
func (s *ContactService) ListContacts(userID, groupID string) ([]*models.ContactResponse, error) {
	if _, err := s.ownedGroup(userID, groupID); err != nil {
		return nil, err
	}
	contacts, err := s.contacts.GetByGroupID(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}
	responses := make([]*models.ContactResponse, len(contacts))
	for i := range contacts {
		responses[i] = s.toContactResponse(&contacts[i])
	}
	return responses, nil
}

// DeleteContact removes a contact from a group
func (s *ContactService) DeleteContact(userID, groupID, contactID string) error {
	if _, err := s.ownedGroup(userID, groupID); err != nil {
		return err
	}
	if _, err := s.contacts.GetByGroupIDAndID(groupID, contactID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("contact", contactID)
		}
		return fmt.Errorf("failed to get contact: %w", err)
	}
	if err := s.contacts.Delete(groupID, contactID); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

// ImportContacts bulk-adds rows parsed from an uploaded sheet. Bad numbers
// and duplicates are skipped and reported, never fatal.
func (s *ContactService) ImportContacts(userID, groupID string, rows []models.CreateContactRequest) (*models.ContactImportResult, error) {
	if _, err := s.ownedGroup(userID, groupID); err != nil {
		return nil, err
	}

	result := &models.ContactImportResult{}
	seen := make(map[string]bool)
	var batch []models.Contact

	for i, row := range rows {
		phone, err := utils.NormalizePhone(row.Phone)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		if seen[phone] {
			result.Skipped++
			continue
		}
		exists, err := s.contacts.PhoneExistsInGroup(groupID, phone)
		if err != nil {
			return nil, fmt.Errorf("failed to check phone: %w", err)
		}
		if exists {
			result.Skipped++
			continue
		}
		seen[phone] = true
		batch = append(batch, models.Contact{
			GroupID: groupID,
			Name:    row.Name,
			Phone:   phone,
			Notes:   row.Notes,
		})
	}

	if err := s.contacts.CreateBatch(batch); err != nil {
		return nil, fmt.Errorf("failed to import contacts: %w", err)
	}
	result.Imported = len(batch)
	return result, nil
}

func (s *ContactService) ownedGroup(userID, groupID string) (*models.ContactGroup, error) {
	group, err := s.groups.GetByUserIDAndID(userID, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("contact group", groupID)
		}
		return nil, fmt.Errorf("failed to get contact group: %w", err)
	}
	return group, nil
}

func (s *ContactService) toGroupResponse(group *models.ContactGroup, contactCount int) *models.ContactGroupResponse {
	return &models.ContactGroupResponse{
		ID:           group.ID,
		UserID:       group.UserID,
		Name:         group.Name,
		Description:  group.Description,
		ContactCount: contactCount,
		CreatedAt:    group.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    group.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *ContactService) toContactResponse(contact *models.Contact) *models.ContactResponse {
	return &models.ContactResponse{
		ID:        contact.ID,
		GroupID:   contact.GroupID,
		Name:      contact.Name,
		Phone:     contact.Phone,
		Notes:     contact.Notes,
		CreatedAt: contact.CreatedAt.Format(time.RFC3339),
	}
}
