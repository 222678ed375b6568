package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/voxlink/ivr-dialer-backend/internal/models"
	"github.com/voxlink/ivr-dialer-backend/internal/services/ivr"
)

type fakeScheduleStore struct {
	schedules map[string]*models.CallSchedule
	statuses  map[string]string
}

func newFakeScheduleStore() *fakeScheduleStore {
	return &fakeScheduleStore{
		schedules: make(map[string]*models.CallSchedule),
		statuses:  make(map[string]string),
	}
}

func (f *fakeScheduleStore) GetByID(id string) (*models.CallSchedule, error) {
	schedule, ok := f.schedules[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *schedule
	return &copied, nil
}

func (f *fakeScheduleStore) MarkStatus(scheduleID, status string) error {
	f.statuses[scheduleID] = status
	if schedule, ok := f.schedules[scheduleID]; ok {
		schedule.Status = status
	}
	return nil
}

type fakeCampaignLookup struct {
	campaigns map[string]*models.Campaign
	counters  map[string]int
}

func newFakeCampaignLookup() *fakeCampaignLookup {
	return &fakeCampaignLookup{
		campaigns: make(map[string]*models.Campaign),
		counters:  make(map[string]int),
	}
}

func (f *fakeCampaignLookup) GetByID(id string) (*models.Campaign, error) {
	campaign, ok := f.campaigns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *campaign
	return &copied, nil
}

func (f *fakeCampaignLookup) IncrementCounter(campaignID, column string) error {
	f.counters[campaignID+"/"+column]++
	return nil
}

type fakeCallLogStore struct {
	logs []*models.CallLog
}

func (f *fakeCallLogStore) Create(log *models.CallLog) error {
	f.logs = append(f.logs, log)
	return nil
}

type executionFixture struct {
	execution *CallExecutionService
	flows     *IVRFlowService
	schedules *fakeScheduleStore
	campaigns *fakeCampaignLookup
	callLogs  *fakeCallLogStore
	flowID    string
}

// newExecutionFixture wires a three-node flow (main menu with goto/transfer,
// sales end node, support end node) behind one campaign and one pending
// schedule named "sched-1".
func newExecutionFixture(t *testing.T) *executionFixture {
	t.Helper()

	flows, _, _ := newFlowServiceForTest()

	flow, err := flows.CreateFlow("user-1", &models.CreateFlowRequest{Name: "Support hotline", EntryNodeKey: "main"})
	require.NoError(t, err)

	_, err = flows.AddNode("user-1", flow.ID, &models.CreateNodeRequest{
		NodeKey:    "main",
		Name:       "Main menu",
		RetryCount: 2,
		Actions: models.ActionMap{
			"1": {Type: models.ActionGoto, Target: "sales"},
			"2": {Type: models.ActionTransfer, Number: "+15550100"},
		},
	})
	require.NoError(t, err)
	_, err = flows.AddNode("user-1", flow.ID, &models.CreateNodeRequest{
		NodeKey:  "sales",
		Name:     "Sales",
		NodeType: models.NodeTypeEnd,
	})
	require.NoError(t, err)
	_, err = flows.AddNode("user-1", flow.ID, &models.CreateNodeRequest{
		NodeKey:  "support",
		Name:     "Support",
		NodeType: models.NodeTypeEnd,
	})
	require.NoError(t, err)

	schedules := newFakeScheduleStore()
	campaigns := newFakeCampaignLookup()
	callLogs := &fakeCallLogStore{}

	campaigns.campaigns["camp-1"] = &models.Campaign{
		ID:     "camp-1",
		UserID: "user-1",
		FlowID: flow.ID,
		Status: models.CampaignStatusRunning,
	}
	schedules.schedules["sched-1"] = &models.CallSchedule{
		ID:         "sched-1",
		CampaignID: "camp-1",
		ContactID:  "contact-1",
		Phone:      "+15550123",
		Status:     models.ScheduleStatusDispatched,
	}

	execution := NewCallExecutionService(
		flows,
		ivr.NewMemorySessionStore(time.Hour),
		schedules,
		campaigns,
		callLogs,
	)

	return &executionFixture{
		execution: execution,
		flows:     flows,
		schedules: schedules,
		campaigns: campaigns,
		callLogs:  callLogs,
		flowID:    flow.ID,
	}
}

func TestBeginCallStartsAtEntryNode(t *testing.T) {
	fx := newExecutionFixture(t)

	action, err := fx.execution.BeginCall("device-1", "sched-1")
	require.NoError(t, err)

	assert.Equal(t, models.CallCommandPlay, action.Command)
	assert.Equal(t, "main", action.NodeKey)
	assert.True(t, action.AwaitInput)
	assert.NotEmpty(t, action.CallID)
	assert.Equal(t, models.ScheduleStatusInProgress, fx.schedules.statuses["sched-1"])
}

func TestBeginCallUnknownSchedule(t *testing.T) {
	fx := newExecutionFixture(t)

	_, err := fx.execution.BeginCall("device-1", "missing")
	var nferr *models.NotFoundError
	assert.ErrorAs(t, err, &nferr)
}

// Pressing 1 at the menu walks to the sales end node; the next event ends the
// call, logs it completed and settles the schedule.
func TestHappyPathMenuToEnd(t *testing.T) {
	fx := newExecutionFixture(t)

	action, err := fx.execution.BeginCall("device-1", "sched-1")
	require.NoError(t, err)

	action, err = fx.execution.HandleEvent(action.CallID, "1")
	require.NoError(t, err)
	assert.Equal(t, models.CallCommandPlay, action.Command)
	assert.Equal(t, "sales", action.NodeKey)
	assert.False(t, action.AwaitInput, "end nodes play and hang up")

	action, err = fx.execution.HandleEvent(action.CallID, "")
	require.NoError(t, err)
	assert.Equal(t, models.CallCommandHangup, action.Command)
	assert.Equal(t, string(ivr.OutcomeEnded), action.Outcome)

	require.Len(t, fx.callLogs.logs, 1)
	log := fx.callLogs.logs[0]
	assert.Equal(t, models.CallStatusCompleted, log.Status)
	assert.Equal(t, "1", log.DTMFResponse)
	assert.Equal(t, []string{"main", "sales"}, log.Metadata["history"])
	assert.Equal(t, models.ScheduleStatusCompleted, fx.schedules.statuses["sched-1"])
	assert.Equal(t, 1, fx.campaigns.counters["camp-1/completed_calls"])

	_, err = fx.execution.HandleEvent(action.CallID, "")
	var nferr *models.NotFoundError
	assert.ErrorAs(t, err, &nferr, "finished calls are gone from the session store")
}

func TestTransferAction(t *testing.T) {
	fx := newExecutionFixture(t)

	action, err := fx.execution.BeginCall("device-1", "sched-1")
	require.NoError(t, err)

	action, err = fx.execution.HandleEvent(action.CallID, "2")
	require.NoError(t, err)
	assert.Equal(t, models.CallCommandTransfer, action.Command)
	assert.Equal(t, "+15550100", action.TransferNumber)
	assert.Equal(t, string(ivr.OutcomeTransferred), action.Outcome)

	require.Len(t, fx.callLogs.logs, 1)
	assert.Equal(t, models.CallStatusTransferred, fx.callLogs.logs[0].Status)
	assert.Equal(t, "+15550100", fx.callLogs.logs[0].TransferNumber)
}

// Three consecutive timeouts on a retryCount=2 menu exhaust it: two replays,
// then a hangup logged as no_response.
func TestTimeoutsExhaustRetries(t *testing.T) {
	fx := newExecutionFixture(t)

	action, err := fx.execution.BeginCall("device-1", "sched-1")
	require.NoError(t, err)
	callID := action.CallID

	for i := 0; i < 2; i++ {
		action, err = fx.execution.HandleEvent(callID, "")
		require.NoError(t, err)
		assert.Equal(t, models.CallCommandPlay, action.Command)
		assert.Equal(t, "main", action.NodeKey)
	}

	action, err = fx.execution.HandleEvent(callID, "")
	require.NoError(t, err)
	assert.Equal(t, models.CallCommandHangup, action.Command)
	assert.Equal(t, string(ivr.OutcomeExhausted), action.Outcome)

	require.Len(t, fx.callLogs.logs, 1)
	assert.Equal(t, models.CallStatusNoResponse, fx.callLogs.logs[0].Status)
	assert.Equal(t, 1, fx.campaigns.counters["camp-1/failed_calls"])
}

// An unmapped digit burns a retry just like a timeout
func TestUnrecognizedDigitConsumesRetry(t *testing.T) {
	fx := newExecutionFixture(t)

	action, err := fx.execution.BeginCall("device-1", "sched-1")
	require.NoError(t, err)
	callID := action.CallID

	action, err = fx.execution.HandleEvent(callID, "9")
	require.NoError(t, err)
	assert.Equal(t, models.CallCommandPlay, action.Command)
	assert.Equal(t, "main", action.NodeKey)

	// a valid press afterwards still works
	action, err = fx.execution.HandleEvent(callID, "1")
	require.NoError(t, err)
	assert.Equal(t, "sales", action.NodeKey)
}

func TestHandleEventRejectsBadDigit(t *testing.T) {
	fx := newExecutionFixture(t)

	action, err := fx.execution.BeginCall("device-1", "sched-1")
	require.NoError(t, err)

	_, err = fx.execution.HandleEvent(action.CallID, "12")
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestAbandonLogsAndFailsSchedule(t *testing.T) {
	fx := newExecutionFixture(t)

	action, err := fx.execution.BeginCall("device-1", "sched-1")
	require.NoError(t, err)

	require.NoError(t, fx.execution.Abandon(action.CallID))

	require.Len(t, fx.callLogs.logs, 1)
	assert.Equal(t, models.CallStatusAbandoned, fx.callLogs.logs[0].Status)
	assert.Equal(t, models.ScheduleStatusFailed, fx.schedules.statuses["sched-1"])

	err = fx.execution.Abandon(action.CallID)
	var nferr *models.NotFoundError
	assert.ErrorAs(t, err, &nferr)
}

// Deleting the flow under a live call faults the session instead of wedging it
func TestFlowVanishingMidCallFaults(t *testing.T) {
	fx := newExecutionFixture(t)

	action, err := fx.execution.BeginCall("device-1", "sched-1")
	require.NoError(t, err)

	require.NoError(t, fx.flows.DeleteFlow("user-1", fx.flowID))

	_, err = fx.execution.HandleEvent(action.CallID, "1")
	var fault *models.ExecutionFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, action.CallID, fault.CallID)

	require.Len(t, fx.callLogs.logs, 1)
	assert.Equal(t, models.CallStatusFailed, fx.callLogs.logs[0].Status)
	assert.Contains(t, fmt.Sprint(fx.callLogs.logs[0].Metadata["fault"]), "no longer loadable")
	assert.Equal(t, models.ScheduleStatusFailed, fx.schedules.statuses["sched-1"])
}

// Flow stats roll up the finished call
func TestTerminalStepRecordsFlowStats(t *testing.T) {
	fx := newExecutionFixture(t)

	action, err := fx.execution.BeginCall("device-1", "sched-1")
	require.NoError(t, err)
	_, err = fx.execution.HandleEvent(action.CallID, "1")
	require.NoError(t, err)
	_, err = fx.execution.HandleEvent(action.CallID, "")
	require.NoError(t, err)

	flow, err := fx.flows.GetFlow("user-1", fx.flowID)
	require.NoError(t, err)
	assert.Equal(t, 1, flow.TotalCalls)
	assert.Equal(t, 1, flow.CompletedCalls)
	assert.Equal(t, float64(1), flow.ChoiceStats["1"])
}
