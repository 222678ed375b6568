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

type fakeCampaignRepo struct {
	campaigns map[string]*models.Campaign
	nextID    int
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: make(map[string]*models.Campaign)}
}

func (f *fakeCampaignRepo) Create(campaign *models.Campaign) error {
	f.nextID++
	campaign.ID = fmt.Sprintf("camp-%d", f.nextID)
	campaign.CreatedAt = time.Now()
	campaign.UpdatedAt = campaign.CreatedAt
	f.campaigns[campaign.ID] = campaign
	return nil
}

func (f *fakeCampaignRepo) GetByID(id string) (*models.Campaign, error) {
	campaign, ok := f.campaigns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *campaign
	return &copied, nil
}

func (f *fakeCampaignRepo) GetByUserIDAndID(userID, campaignID string) (*models.Campaign, error) {
	campaign, ok := f.campaigns[campaignID]
	if !ok || campaign.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *campaign
	return &copied, nil
}

func (f *fakeCampaignRepo) GetByUserIDPaginated(userID string, page, pageSize int) ([]*models.Campaign, int, error) {
	var out []*models.Campaign
	for _, campaign := range f.campaigns {
		if campaign.UserID == userID {
			copied := *campaign
			out = append(out, &copied)
		}
	}
	return out, len(out), nil
}

func (f *fakeCampaignRepo) GetByStatus(status string) ([]*models.Campaign, error) {
	var out []*models.Campaign
	for _, campaign := range f.campaigns {
		if campaign.Status == status {
			copied := *campaign
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeCampaignRepo) Update(campaign *models.Campaign) error {
	if _, ok := f.campaigns[campaign.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	campaign.UpdatedAt = time.Now()
	copied := *campaign
	f.campaigns[campaign.ID] = &copied
	return nil
}

func (f *fakeCampaignRepo) Delete(id string) error {
	delete(f.campaigns, id)
	return nil
}

type fakeScheduleFanout struct {
	schedules map[string]*models.CallSchedule
	nextID    int
}

func newFakeScheduleFanout() *fakeScheduleFanout {
	return &fakeScheduleFanout{schedules: make(map[string]*models.CallSchedule)}
}

func (f *fakeScheduleFanout) CreateBatch(schedules []models.CallSchedule) error {
	for i := range schedules {
		f.nextID++
		s := schedules[i]
		s.ID = fmt.Sprintf("sched-%d", f.nextID)
		f.schedules[s.ID] = &s
	}
	return nil
}

func (f *fakeScheduleFanout) GetPendingByCampaignID(campaignID string, limit int) ([]*models.CallSchedule, error) {
	var out []*models.CallSchedule
	for _, s := range f.schedules {
		if s.CampaignID == campaignID && s.Status == models.ScheduleStatusPending {
			out = append(out, s)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeScheduleFanout) MarkDispatched(scheduleID, deviceID string) error {
	s, ok := f.schedules[scheduleID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = models.ScheduleStatusDispatched
	s.DeviceID = &deviceID
	return nil
}

func (f *fakeScheduleFanout) CountByCampaignIDAndStatus(campaignID, status string) (int, error) {
	count := 0
	for _, s := range f.schedules {
		if s.CampaignID == campaignID && s.Status == status {
			count++
		}
	}
	return count, nil
}

type fakeDeviceSource struct {
	online []*models.Device
}

func (f *fakeDeviceSource) GetOnlineByUserID(userID string) ([]*models.Device, error) {
	var out []*models.Device
	for _, d := range f.online {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeCommandPusher struct {
	pushed map[string][]DeviceCommand
	// disconnected simulates a device that heartbeats but holds no SSE stream
	disconnected bool
}

func newFakeCommandPusher() *fakeCommandPusher {
	return &fakeCommandPusher{pushed: make(map[string][]DeviceCommand)}
}

func (f *fakeCommandPusher) PushCommand(deviceID string, command DeviceCommand) bool {
	if f.disconnected {
		return false
	}
	f.pushed[deviceID] = append(f.pushed[deviceID], command)
	return true
}

type fakeCallLogView struct{}

func (f *fakeCallLogView) GetByCampaignIDPaginated(campaignID string, page, pageSize int) ([]*models.CallLog, int, error) {
	return nil, 0, nil
}

func (f *fakeCallLogView) SummarizeByCampaignID(campaignID string) (*models.CampaignSummary, error) {
	return &models.CampaignSummary{}, nil
}

type campaignFixture struct {
	svc       *CampaignService
	campaigns *fakeCampaignRepo
	schedules *fakeScheduleFanout
	devices   *fakeDeviceSource
	hub       *fakeCommandPusher
}

func newCampaignFixture(t *testing.T, contactCount, deviceCount int) (*campaignFixture, string) {
	t.Helper()

	flows := newFakeFlowStore()
	flow := &models.IVRFlow{UserID: "user-1", Name: "Support"}
	require.NoError(t, flows.Create(flow))

	groups := newFakeGroupStore()
	group := &models.ContactGroup{UserID: "user-1", Name: "Leads"}
	require.NoError(t, groups.Create(group))

	contacts := newFakeContactStore()
	for i := 0; i < contactCount; i++ {
		require.NoError(t, contacts.Create(&models.Contact{
			GroupID: group.ID,
			Name:    fmt.Sprintf("Contact %d", i+1),
			Phone:   fmt.Sprintf("+1555010%04d", i+1),
		}))
	}

	devices := &fakeDeviceSource{}
	for i := 0; i < deviceCount; i++ {
		devices.online = append(devices.online, &models.Device{
			ID:     fmt.Sprintf("dev-%d", i+1),
			UserID: "user-1",
		})
	}

	fixture := &campaignFixture{
		campaigns: newFakeCampaignRepo(),
		schedules: newFakeScheduleFanout(),
		devices:   devices,
		hub:       newFakeCommandPusher(),
	}
	fixture.svc = NewCampaignService(
		fixture.campaigns, flows, groups, contacts,
		fixture.schedules, devices, fixture.hub, nil, &fakeCallLogView{},
	)

	created, err := fixture.svc.CreateCampaign("user-1", &models.CreateCampaignRequest{
		Name:           "Q3 outreach",
		FlowID:         flow.ID,
		ContactGroupID: group.ID,
	})
	require.NoError(t, err)
	return fixture, created.ID
}

func TestStartCampaignMaterializesSchedules(t *testing.T) {
	fixture, campaignID := newCampaignFixture(t, 3, 1)

	response, err := fixture.svc.StartCampaign("user-1", campaignID)
	require.NoError(t, err)

	assert.Equal(t, models.CampaignStatusRunning, response.Status)
	assert.Equal(t, 3, response.TotalCalls)
	assert.Len(t, fixture.schedules.schedules, 3)

	// all three went out to the single online device
	dispatched, err := fixture.schedules.CountByCampaignIDAndStatus(campaignID, models.ScheduleStatusDispatched)
	require.NoError(t, err)
	assert.Equal(t, 3, dispatched)
	assert.Len(t, fixture.hub.pushed["dev-1"], 3)
}

func TestStartCampaignRejectsEmptyGroup(t *testing.T) {
	fixture, campaignID := newCampaignFixture(t, 0, 1)

	_, err := fixture.svc.StartCampaign("user-1", campaignID)
	require.Error(t, err)

	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDispatchRoundRobinsAcrossDevices(t *testing.T) {
	fixture, campaignID := newCampaignFixture(t, 4, 2)

	_, err := fixture.svc.StartCampaign("user-1", campaignID)
	require.NoError(t, err)

	assert.Len(t, fixture.hub.pushed["dev-1"], 2)
	assert.Len(t, fixture.hub.pushed["dev-2"], 2)

	for _, commands := range fixture.hub.pushed {
		for _, command := range commands {
			assert.Equal(t, "dial", command.Type)
		}
	}
}

func TestDispatchWaitsWhenNoDeviceOnline(t *testing.T) {
	fixture, campaignID := newCampaignFixture(t, 2, 0)

	_, err := fixture.svc.StartCampaign("user-1", campaignID)
	require.NoError(t, err)

	// schedules stay pending until a device shows up
	pending, err := fixture.schedules.CountByCampaignIDAndStatus(campaignID, models.ScheduleStatusPending)
	require.NoError(t, err)
	assert.Equal(t, 2, pending)

	fixture.devices.online = append(fixture.devices.online, &models.Device{ID: "dev-late", UserID: "user-1"})
	campaign, err := fixture.campaigns.GetByID(campaignID)
	require.NoError(t, err)

	dispatched, err := fixture.svc.DispatchPending(campaign)
	require.NoError(t, err)
	assert.Equal(t, 2, dispatched)
}

func TestDispatchKeepsSchedulePendingWhenPushRejected(t *testing.T) {
	fixture, campaignID := newCampaignFixture(t, 2, 1)
	fixture.hub.disconnected = true

	// the device heartbeats as online but its command stream is gone
	_, err := fixture.svc.StartCampaign("user-1", campaignID)
	require.NoError(t, err)

	dispatched, err := fixture.schedules.CountByCampaignIDAndStatus(campaignID, models.ScheduleStatusDispatched)
	require.NoError(t, err)
	assert.Zero(t, dispatched)

	pending, err := fixture.schedules.CountByCampaignIDAndStatus(campaignID, models.ScheduleStatusPending)
	require.NoError(t, err)
	assert.Equal(t, 2, pending)

	// once the device reconnects, the next sweep delivers them
	fixture.hub.disconnected = false
	campaign, err := fixture.campaigns.GetByID(campaignID)
	require.NoError(t, err)

	count, err := fixture.svc.DispatchPending(campaign)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, fixture.hub.pushed["dev-1"], 2)
}

func TestPauseBlocksDispatchAndResumeKeepsSchedules(t *testing.T) {
	fixture, campaignID := newCampaignFixture(t, 2, 0)

	_, err := fixture.svc.StartCampaign("user-1", campaignID)
	require.NoError(t, err)

	_, err = fixture.svc.PauseCampaign("user-1", campaignID)
	require.NoError(t, err)

	campaign, err := fixture.campaigns.GetByID(campaignID)
	require.NoError(t, err)
	dispatched, err := fixture.svc.DispatchPending(campaign)
	require.NoError(t, err)
	assert.Zero(t, dispatched)

	// resuming keeps the materialized schedules instead of duplicating them
	response, err := fixture.svc.StartCampaign("user-1", campaignID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusRunning, response.Status)
	assert.Len(t, fixture.schedules.schedules, 2)
}

func TestUpdateRunningCampaignRejected(t *testing.T) {
	fixture, campaignID := newCampaignFixture(t, 1, 1)

	_, err := fixture.svc.StartCampaign("user-1", campaignID)
	require.NoError(t, err)

	name := "renamed"
	_, err = fixture.svc.UpdateCampaign("user-1", campaignID, &models.UpdateCampaignRequest{Name: &name})
	require.Error(t, err)

	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCompleteIfDone(t *testing.T) {
	fixture, campaignID := newCampaignFixture(t, 1, 1)

	_, err := fixture.svc.StartCampaign("user-1", campaignID)
	require.NoError(t, err)

	campaign, err := fixture.campaigns.GetByID(campaignID)
	require.NoError(t, err)

	// schedule still dispatched, campaign must stay running
	done, err := fixture.svc.CompleteIfDone(campaign)
	require.NoError(t, err)
	assert.False(t, done)

	for _, s := range fixture.schedules.schedules {
		s.Status = models.ScheduleStatusCompleted
	}

	done, err = fixture.svc.CompleteIfDone(campaign)
	require.NoError(t, err)
	assert.True(t, done)

	stored, err := fixture.campaigns.GetByID(campaignID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusCompleted, stored.Status)
}
