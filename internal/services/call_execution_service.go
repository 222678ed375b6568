package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/voxlink/ivr-dialer-backend/internal/models"
	"github.com/voxlink/ivr-dialer-backend/internal/services/ivr"
)

// graphLoader builds execution graphs; satisfied by IVRFlowService
type graphLoader interface {
	LoadGraph(flowID string) (*ivr.Graph, error)
	RecordCallStats(flowID string, completed bool, durationSeconds float64, digits []string) error
}

// scheduleStore is the persistence surface for call schedules during execution
type scheduleStore interface {
	GetByID(id string) (*models.CallSchedule, error)
	MarkStatus(scheduleID, status string) error
}

// campaignLookup resolves the flow behind a schedule
type campaignLookup interface {
	GetByID(id string) (*models.Campaign, error)
	IncrementCounter(campaignID, column string) error
}

// callLogStore persists finished call records
type callLogStore interface {
	Create(log *models.CallLog) error
}

// CallExecutionService bridges device call events to the execution engine.
// Each event steps the session and yields the device's next action. Terminal
// steps write the call log and fold the result into flow and campaign stats.
type CallExecutionService struct {
	graphs    graphLoader
	sessions  ivr.SessionStore
	schedules scheduleStore
	campaigns campaignLookup
	callLogs  callLogStore
}

func NewCallExecutionService(
	graphs graphLoader,
	sessions ivr.SessionStore,
	schedules scheduleStore,
	campaigns campaignLookup,
	callLogs callLogStore,
) *CallExecutionService {
	return &CallExecutionService{
		graphs:    graphs,
		sessions:  sessions,
		schedules: schedules,
		campaigns: campaigns,
		callLogs:  callLogs,
	}
}

// BeginCall starts executing a dispatched schedule on a device. It creates a
// session positioned at the flow's entry node and returns the first action.
func (s *CallExecutionService) BeginCall(deviceID, scheduleID string) (*models.NextAction, error) {
	schedule, err := s.schedules.GetByID(scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("schedule", scheduleID)
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	if schedule.Status == models.ScheduleStatusCompleted || schedule.Status == models.ScheduleStatusFailed {
		return nil, models.NewValidationError("schedule_id", "schedule already finished")
	}

	campaign, err := s.campaigns.GetByID(schedule.CampaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("campaign", schedule.CampaignID)
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	graph, err := s.graphs.LoadGraph(campaign.FlowID)
	if err != nil {
		return nil, err
	}
	if graph.EntryKey == "" {
		return nil, models.NewValidationError("flow_id", "flow has no nodes to execute")
	}

	session := ivr.NewSession(uuid.New().String(), campaign.FlowID, graph.EntryKey)
	session.CampaignID = schedule.CampaignID
	session.ContactID = schedule.ContactID
	session.DeviceID = deviceID
	session.ScheduleID = schedule.ID
	session.Phone = schedule.Phone
	s.sessions.Put(session)

	if err := s.schedules.MarkStatus(schedule.ID, models.ScheduleStatusInProgress); err != nil {
		logrus.Warnf("Failed to mark schedule %s in progress: %v", schedule.ID, err)
	}

	entry, _ := graph.Node(graph.EntryKey)
	return s.playAction(session, entry, false), nil
}

// HandleEvent steps a live call with one callee event. digit is the DTMF key
// pressed, or "" for an input timeout.
func (s *CallExecutionService) HandleEvent(callID, digit string) (*models.NextAction, error) {
	if digit != "" && !models.ValidDigit(digit) {
		return nil, models.NewValidationError("digit", "digit must be 0-9, * or #")
	}

	session, ok := s.sessions.Get(callID)
	if !ok {
		return nil, models.NewNotFoundError("call", callID)
	}

	graph, err := s.graphs.LoadGraph(session.FlowID)
	if err != nil {
		return s.faultOut(session, fmt.Sprintf("flow %s no longer loadable: %v", session.FlowID, err))
	}

	if digit != "" {
		session.RecordDigit(digit)
	}

	result, err := ivr.Step(graph, session.CurrentKey, digit, session.Retries(session.CurrentKey))
	if err != nil {
		return s.faultOut(session, err.Error())
	}

	switch result.Type {
	case ivr.StepTransition:
		session.RecordTransition(result.NextKey)
		s.sessions.Put(session)
		next, _ := graph.Node(result.NextKey)
		return s.playAction(session, next, false), nil

	case ivr.StepAwaitInput:
		session.RecordRetry(session.CurrentKey)
		s.sessions.Put(session)
		node, _ := graph.Node(session.CurrentKey)
		return s.playAction(session, node, result.ReplayRetryAudio), nil

	case ivr.StepTerminal:
		return s.finish(session, result)
	}

	return nil, fmt.Errorf("unhandled step type %d", result.Type)
}

// Abandon records that the callee hung up mid-flow. The call logs as
// abandoned and the schedule as failed.
func (s *CallExecutionService) Abandon(callID string) error {
	session, ok := s.sessions.Get(callID)
	if !ok {
		return models.NewNotFoundError("call", callID)
	}
	session.Finalize("")
	s.sessions.Delete(session.ID)

	s.writeLog(session, models.CallStatusAbandoned, "", "")
	s.settleSchedule(session, false)

	if err := s.graphs.RecordCallStats(session.FlowID, false, session.Duration().Seconds(), session.Digits); err != nil {
		logrus.Warnf("Failed to record flow stats for call %s: %v", session.ID, err)
	}
	return nil
}

// finish closes out a session that reached a terminal step
func (s *CallExecutionService) finish(session *ivr.Session, result ivr.StepResult) (*models.NextAction, error) {
	session.TransferNumber = result.TransferNumber
	session.Finalize(result.Outcome)
	s.sessions.Delete(session.ID)

	var status string
	completed := false
	switch result.Outcome {
	case ivr.OutcomeEnded:
		status = models.CallStatusCompleted
		completed = true
	case ivr.OutcomeTransferred:
		status = models.CallStatusTransferred
		completed = true
	case ivr.OutcomeExhausted:
		status = models.CallStatusNoResponse
	}

	s.writeLog(session, status, result.TransferNumber, "")
	s.settleSchedule(session, true)

	if err := s.graphs.RecordCallStats(session.FlowID, result.Outcome == ivr.OutcomeEnded, session.Duration().Seconds(), session.Digits); err != nil {
		logrus.Warnf("Failed to record flow stats for call %s: %v", session.ID, err)
	}
	if session.CampaignID != "" {
		column := "failed_calls"
		if completed {
			column = "completed_calls"
		}
		if err := s.campaigns.IncrementCounter(session.CampaignID, column); err != nil {
			logrus.Warnf("Failed to bump campaign counter for call %s: %v", session.ID, err)
		}
	}

	action := &models.NextAction{
		CallID:  session.ID,
		Command: models.CallCommandHangup,
		NodeKey: result.NodeKey,
		Outcome: string(result.Outcome),
	}
	if result.Outcome == ivr.OutcomeTransferred {
		action.Command = models.CallCommandTransfer
		action.TransferNumber = result.TransferNumber
	}
	return action, nil
}

// faultOut finalizes a session whose flow or node vanished mid-call. The
// device is told to hang up and the fault is surfaced as an ExecutionFault.
func (s *CallExecutionService) faultOut(session *ivr.Session, reason string) (*models.NextAction, error) {
	session.Finalize(ivr.OutcomeExhausted)
	s.sessions.Delete(session.ID)

	s.writeLog(session, models.CallStatusFailed, "", reason)
	s.settleSchedule(session, false)

	logrus.Errorf("Call %s faulted: %s", session.ID, reason)
	return nil, &models.ExecutionFault{CallID: session.ID, Reason: reason}
}

func (s *CallExecutionService) writeLog(session *ivr.Session, status, transferNumber, fault string) {
	campaign, err := s.campaigns.GetByID(session.CampaignID)
	if err != nil {
		logrus.Warnf("Failed to resolve campaign for call %s: %v", session.ID, err)
		return
	}

	metadata := models.JSON{
		"history": session.History,
		"digits":  session.Digits,
	}
	if fault != "" {
		metadata["fault"] = fault
	}

	log := &models.CallLog{
		UserID:          campaign.UserID,
		CampaignID:      strPtr(session.CampaignID),
		ContactID:       strPtr(session.ContactID),
		DeviceID:        strPtr(session.DeviceID),
		FlowID:          strPtr(session.FlowID),
		Phone:           session.Phone,
		Status:          status,
		DTMFResponse:    session.LastDigit(),
		TransferNumber:  transferNumber,
		DurationSeconds: session.Duration().Seconds(),
		Metadata:        metadata,
	}
	if err := s.callLogs.Create(log); err != nil {
		logrus.Errorf("Failed to write call log for call %s: %v", session.ID, err)
	}
}

func (s *CallExecutionService) settleSchedule(session *ivr.Session, completed bool) {
	if session.ScheduleID == "" {
		return
	}
	status := models.ScheduleStatusFailed
	if completed {
		status = models.ScheduleStatusCompleted
	}
	if err := s.schedules.MarkStatus(session.ScheduleID, status); err != nil {
		logrus.Warnf("Failed to settle schedule %s: %v", session.ScheduleID, err)
	}
}

func (s *CallExecutionService) playAction(session *ivr.Session, node *models.IVRNode, replayRetry bool) *models.NextAction {
	action := &models.NextAction{
		CallID:           session.ID,
		Command:          models.CallCommandPlay,
		NodeKey:          node.NodeKey,
		AudioFileID:      node.AudioFileID,
		PromptText:       node.PromptText,
		AwaitInput:       node.NodeType != models.NodeTypeEnd,
		TimeoutSeconds:   node.TimeoutSeconds,
		ReplayRetryAudio: replayRetry,
	}
	if replayRetry && node.RetryAudioFileID != nil {
		action.AudioFileID = node.RetryAudioFileID
	}
	return action
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
