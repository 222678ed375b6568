package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/voxlink/ivr-dialer-backend/internal/models"
)

type fakeGroupStore struct {
	groups map[string]*models.ContactGroup
	nextID int
}

func newFakeGroupStore() *fakeGroupStore {
	return &fakeGroupStore{groups: make(map[string]*models.ContactGroup)}
}

func (f *fakeGroupStore) Create(group *models.ContactGroup) error {
	f.nextID++
	group.ID = fmt.Sprintf("group-%d", f.nextID)
	group.CreatedAt = time.Now()
	group.UpdatedAt = group.CreatedAt
	f.groups[group.ID] = group
	return nil
}

func (f *fakeGroupStore) GetByUserIDAndID(userID, groupID string) (*models.ContactGroup, error) {
	group, ok := f.groups[groupID]
	if !ok || group.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return group, nil
}

func (f *fakeGroupStore) GetByUserIDPaginated(userID string, page, pageSize int) ([]*models.ContactGroup, int, error) {
	var out []*models.ContactGroup
	for _, group := range f.groups {
		if group.UserID == userID {
			out = append(out, group)
		}
	}
	return out, len(out), nil
}

func (f *fakeGroupStore) Update(group *models.ContactGroup) error {
	f.groups[group.ID] = group
	return nil
}

func (f *fakeGroupStore) Delete(id string) error {
	delete(f.groups, id)
	return nil
}

type fakeContactStore struct {
	contacts map[string]*models.Contact
	nextID   int
}

func newFakeContactStore() *fakeContactStore {
	return &fakeContactStore{contacts: make(map[string]*models.Contact)}
}

func (f *fakeContactStore) Create(contact *models.Contact) error {
	f.nextID++
	contact.ID = fmt.Sprintf("contact-%d", f.nextID)
	contact.CreatedAt = time.Now()
	f.contacts[contact.ID] = contact
	return nil
}

func (f *fakeContactStore) CreateBatch(contacts []models.Contact) error {
	for i := range contacts {
		c := contacts[i]
		if err := f.Create(&c); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeContactStore) GetByGroupID(groupID string) ([]models.Contact, error) {
	var out []models.Contact
	for _, contact := range f.contacts {
		if contact.GroupID == groupID {
			out = append(out, *contact)
		}
	}
	return out, nil
}

func (f *fakeContactStore) GetByGroupIDAndID(groupID, contactID string) (*models.Contact, error) {
	contact, ok := f.contacts[contactID]
	if !ok || contact.GroupID != groupID {
		return nil, gorm.ErrRecordNotFound
	}
	return contact, nil
}

func (f *fakeContactStore) PhoneExistsInGroup(groupID, phone string) (bool, error) {
	for _, contact := range f.contacts {
		if contact.GroupID == groupID && contact.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeContactStore) CountByGroupID(groupID string) (int, error) {
	count := 0
	for _, contact := range f.contacts {
		if contact.GroupID == groupID {
			count++
		}
	}
	return count, nil
}

func (f *fakeContactStore) Delete(groupID, contactID string) error {
	delete(f.contacts, contactID)
	return nil
}

func newContactServiceForTest(t *testing.T) (*ContactService, string) {
	t.Helper()
	svc := NewContactService(newFakeGroupStore(), newFakeContactStore())
	group, err := svc.CreateGroup("user-1", &models.CreateContactGroupRequest{Name: "Leads"})
	require.NoError(t, err)
	return svc, group.ID
}

func TestAddContactNormalizesPhone(t *testing.T) {
	svc, groupID := newContactServiceForTest(t)

	contact, err := svc.AddContact("user-1", groupID, &models.CreateContactRequest{
		Name:  "Dana",
		Phone: "+1 (555) 010-0199",
	})
	require.NoError(t, err)
	assert.Equal(t, "+15550100199", contact.Phone)
}

func TestAddContactRejectsDuplicateAfterNormalization(t *testing.T) {
	svc, groupID := newContactServiceForTest(t)

	_, err := svc.AddContact("user-1", groupID, &models.CreateContactRequest{Name: "A", Phone: "+15550100199"})
	require.NoError(t, err)

	// same number, different formatting
	_, err = svc.AddContact("user-1", groupID, &models.CreateContactRequest{Name: "B", Phone: "+1 555-010-0199"})
	require.Error(t, err)

	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestImportContactsSkipsBadAndDuplicateRows(t *testing.T) {
	svc, groupID := newContactServiceForTest(t)

	_, err := svc.AddContact("user-1", groupID, &models.CreateContactRequest{Name: "Existing", Phone: "+15550100001"})
	require.NoError(t, err)

	rows := []models.CreateContactRequest{
		{Name: "Fresh", Phone: "+15550100002"},
		{Name: "Already in group", Phone: "+1 555 010 0001"},
		{Name: "Bad number", Phone: "555-CALL"},
		{Name: "Dup within sheet", Phone: "+15550100002"},
		{Name: "Also fresh", Phone: "+15550100003"},
	}

	result, err := svc.ImportContacts("user-1", groupID, rows)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 3, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "row 3")

	contacts, err := svc.ListContacts("user-1", groupID)
	require.NoError(t, err)
	assert.Len(t, contacts, 3)
}

func TestImportContactsRequiresGroupOwnership(t *testing.T) {
	svc, groupID := newContactServiceForTest(t)

	_, err := svc.ImportContacts("user-2", groupID, []models.CreateContactRequest{
		{Name: "X", Phone: "+15550100002"},
	})
	require.Error(t, err)

	var nferr *models.NotFoundError
	assert.ErrorAs(t, err, &nferr)
}

func TestDeleteContactUnknownID(t *testing.T) {
	svc, groupID := newContactServiceForTest(t)

	err := svc.DeleteContact("user-1", groupID, "missing")
	require.Error(t, err)

	var nferr *models.NotFoundError
	assert.ErrorAs(t, err, &nferr)
}
