package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/voxlink/ivr-dialer-backend/internal/models"
)

// dispatchBatchSize caps how many pending schedules one dispatch pass hands out
const dispatchBatchSize = 50

// campaignStore is the persistence surface for campaigns
type campaignStore interface {
	Create(campaign *models.Campaign) error
	GetByID(id string) (*models.Campaign, error)
	GetByUserIDAndID(userID, campaignID string) (*models.Campaign, error)
	GetByUserIDPaginated(userID string, page, pageSize int) ([]*models.Campaign, int, error)
	GetByStatus(status string) ([]*models.Campaign, error)
	Update(campaign *models.Campaign) error
	Delete(id string) error
}

// flowChecker verifies the referenced flow exists and is owned by the user
type flowChecker interface {
	GetByUserIDAndID(userID, flowID string) (*models.IVRFlow, error)
}

// groupChecker verifies the referenced contact group
type groupChecker interface {
	GetByUserIDAndID(userID, groupID string) (*models.ContactGroup, error)
}

// contactSource lists the contacts a campaign fans out to
type contactSource interface {
	GetByGroupID(groupID string) ([]models.Contact, error)
}

// scheduleFanout is the schedule surface the dispatcher drives
type scheduleFanout interface {
	CreateBatch(schedules []models.CallSchedule) error
	GetPendingByCampaignID(campaignID string, limit int) ([]*models.CallSchedule, error)
	MarkDispatched(scheduleID, deviceID string) error
	CountByCampaignIDAndStatus(campaignID, status string) (int, error)
}

// deviceSource lists devices available for dialing
type deviceSource interface {
	GetOnlineByUserID(userID string) ([]*models.Device, error)
}

// commandPusher delivers commands to connected devices
type commandPusher interface {
	PushCommand(deviceID string, command DeviceCommand) bool
}

// dispatchPublisher mirrors dispatch events to the message queue
type dispatchPublisher interface {
	PublishMessage(queueName string, message map[string]interface{}) error
}

// callLogView serves per-campaign log listings and the outcome summary
type callLogView interface {
	GetByCampaignIDPaginated(campaignID string, page, pageSize int) ([]*models.CallLog, int, error)
	SummarizeByCampaignID(campaignID string) (*models.CampaignSummary, error)
}

// CampaignService owns campaign lifecycle and call fan-out: draft campaigns
// hold a flow and a contact group; starting one materializes a schedule per
// contact and hands pending schedules to online devices.
type CampaignService struct {
	campaigns campaignStore
	flows     flowChecker
	groups    groupChecker
	contacts  contactSource
	schedules scheduleFanout
	devices   deviceSource
	hub       commandPusher
	publisher dispatchPublisher // nil when RabbitMQ is not configured
	callLogs  callLogView
}

func NewCampaignService(
	campaigns campaignStore,
	flows flowChecker,
	groups groupChecker,
	contacts contactSource,
	schedules scheduleFanout,
	devices deviceSource,
	hub commandPusher,
	publisher dispatchPublisher,
	callLogs callLogView,
) *CampaignService {
	return &CampaignService{
		campaigns: campaigns,
		flows:     flows,
		groups:    groups,
		contacts:  contacts,
		schedules: schedules,
		devices:   devices,
		hub:       hub,
		publisher: publisher,
		callLogs:  callLogs,
	}
}

// CreateCampaign creates a draft campaign referencing a flow and contact group
// owned by the same user
func (s *CampaignService) CreateCampaign(userID string, req *models.CreateCampaignRequest) (*models.CampaignResponse, error) {
	if _, err := s.flows.GetByUserIDAndID(userID, req.FlowID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("flow", req.FlowID)
		}
		return nil, fmt.Errorf("failed to check flow: %w", err)
	}
	if _, err := s.groups.GetByUserIDAndID(userID, req.ContactGroupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("contact group", req.ContactGroupID)
		}
		return nil, fmt.Errorf("failed to check contact group: %w", err)
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, models.NewValidationError("end_date", "end_date must not be before start_date")
	}

	campaign := &models.Campaign{
		UserID:         userID,
		Name:           req.Name,
		FlowID:         req.FlowID,
		ContactGroupID: req.ContactGroupID,
		Status:         models.CampaignStatusDraft,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
	}
	if err := s.campaigns.Create(campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return s.toResponse(campaign), nil
}

// ListCampaigns retrieves paginated campaigns for a user
func (s *CampaignService) ListCampaigns(userID string, page, pageSize int) ([]*models.CampaignResponse, int, error) {
	campaigns, total, err := s.campaigns.GetByUserIDPaginated(userID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get campaigns: %w", err)
	}
	responses := make([]*models.CampaignResponse, len(campaigns))
	for i, campaign := range campaigns {
		responses[i] = s.toResponse(campaign)
	}
	return responses, total, nil
}

// GetCampaign retrieves a campaign owned by the user
func (s *CampaignService) GetCampaign(userID, campaignID string) (*models.CampaignResponse, error) {
	campaign, err := s.ownedCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(campaign), nil
}

// UpdateCampaign applies a partial update. Running campaigns must be paused
// before editing.
func (s *CampaignService) UpdateCampaign(userID, campaignID string, req *models.UpdateCampaignRequest) (*models.CampaignResponse, error) {
	campaign, err := s.ownedCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status == models.CampaignStatusRunning {
		return nil, models.NewValidationError("status", "pause the campaign before editing it")
	}

	if req.Name != nil {
		campaign.Name = *req.Name
	}
	if req.FlowID != nil {
		if _, err := s.flows.GetByUserIDAndID(userID, *req.FlowID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("flow", *req.FlowID)
			}
			return nil, fmt.Errorf("failed to check flow: %w", err)
		}
		campaign.FlowID = *req.FlowID
	}
	if req.ContactGroupID != nil {
		if _, err := s.groups.GetByUserIDAndID(userID, *req.ContactGroupID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("contact group", *req.ContactGroupID)
			}
			return nil, fmt.Errorf("failed to check contact group: %w", err)
		}
		campaign.ContactGroupID = *req.ContactGroupID
	}
	if req.StartDate != nil {
		campaign.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		campaign.EndDate = req.EndDate
	}

	if err := s.campaigns.Update(campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	return s.toResponse(campaign), nil
}

// DeleteCampaign deletes a campaign and its schedules. Running campaigns must
// be paused first.
func (s *CampaignService) DeleteCampaign(userID, campaignID string) error {
	campaign, err := s.ownedCampaign(userID, campaignID)
	if err != nil {
		return err
	}
	if campaign.Status == models.CampaignStatusRunning {
		return models.NewValidationError("status", "pause the campaign before deleting it")
	}
	if err := s.campaigns.Delete(campaignID); err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return nil
}

// StartCampaign moves a campaign to running. Starting a draft materializes
// one pending schedule per contact in the group; resuming a paused campaign
// keeps its existing schedules. Either way a dispatch pass runs immediately.
func (s *CampaignService) StartCampaign(userID, campaignID string) (*models.CampaignResponse, error) {
	campaign, err := s.ownedCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}

	switch campaign.Status {
	case models.CampaignStatusDraft:
		contacts, err := s.contacts.GetByGroupID(campaign.ContactGroupID)
		if err != nil {
			return nil, fmt.Errorf("failed to get contacts: %w", err)
		}
		if len(contacts) == 0 {
			return nil, models.NewValidationError("contact_group_id", "contact group has no contacts")
		}

		now := time.Now()
		schedules := make([]models.CallSchedule, len(contacts))
		for i, contact := range contacts {
			schedules[i] = models.CallSchedule{
				CampaignID:  campaign.ID,
				ContactID:   contact.ID,
				Phone:       contact.Phone,
				Status:      models.ScheduleStatusPending,
				ScheduledAt: now,
			}
		}
		if err := s.schedules.CreateBatch(schedules); err != nil {
			return nil, fmt.Errorf("failed to create schedules: %w", err)
		}
		campaign.TotalCalls = len(schedules)

	case models.CampaignStatusPaused:
		// resume with whatever schedules remain

	case models.CampaignStatusRunning:
		return nil, models.NewValidationError("status", "campaign is already running")
	default:
		return nil, models.NewValidationError("status", "completed campaigns cannot be restarted")
	}

	campaign.Status = models.CampaignStatusRunning
	if err := s.campaigns.Update(campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}

	if _, err := s.DispatchPending(campaign); err != nil {
		logrus.Warnf("Initial dispatch for campaign %s failed: %v", campaign.ID, err)
	}
	return s.toResponse(campaign), nil
}

// PauseCampaign stops handing out new schedules. In-flight calls finish on
// their own.
func (s *CampaignService) PauseCampaign(userID, campaignID string) (*models.CampaignResponse, error) {
	campaign, err := s.ownedCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignStatusRunning {
		return nil, models.NewValidationError("status", "only running campaigns can be paused")
	}
	campaign.Status = models.CampaignStatusPaused
	if err := s.campaigns.Update(campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	return s.toResponse(campaign), nil
}

// DispatchPending hands pending schedules of a running campaign to the
// owner's online devices, round robin. Returns how many were dispatched.
func (s *CampaignService) DispatchPending(campaign *models.Campaign) (int, error) {
	if campaign.Status != models.CampaignStatusRunning {
		return 0, nil
	}

	devices, err := s.devices.GetOnlineByUserID(campaign.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to get online devices: %w", err)
	}
	if len(devices) == 0 {
		return 0, nil
	}

	pending, err := s.schedules.GetPendingByCampaignID(campaign.ID, dispatchBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending schedules: %w", err)
	}

	dispatched := 0
	for i, schedule := range pending {
		device := devices[i%len(devices)]

		// A device can be heartbeat-online without a live command stream.
		// Only burn the schedule once a connection actually took the command;
		// otherwise it stays pending for the next pass.
		delivered := s.hub.PushCommand(device.ID, DeviceCommand{
			Type: "dial",
			Payload: map[string]interface{}{
				"schedule_id": schedule.ID,
				"campaign_id": campaign.ID,
				"flow_id":     campaign.FlowID,
				"phone":       schedule.Phone,
			},
		})
		if !delivered {
			logrus.Warnf("Device %s has no command stream, schedule %s stays pending", device.ID, schedule.ID)
			continue
		}

		if err := s.schedules.MarkDispatched(schedule.ID, device.ID); err != nil {
			logrus.Warnf("Failed to mark schedule %s dispatched: %v", schedule.ID, err)
			continue
		}

		if s.publisher != nil {
			err := s.publisher.PublishMessage(CallDispatchQueue, map[string]interface{}{
				"schedule_id": schedule.ID,
				"campaign_id": campaign.ID,
				"device_id":   device.ID,
				"phone":       schedule.Phone,
			})
			if err != nil {
				logrus.Warnf("Failed to publish dispatch event for schedule %s: %v", schedule.ID, err)
			}
		}
		dispatched++
	}
	return dispatched, nil
}

// CompleteIfDone marks a running campaign completed once no schedule is still
// pending or in flight. Returns true when the transition happened.
func (s *CampaignService) CompleteIfDone(campaign *models.Campaign) (bool, error) {
	if campaign.Status != models.CampaignStatusRunning {
		return false, nil
	}
	for _, status := range []string{
		models.ScheduleStatusPending,
		models.ScheduleStatusDispatched,
		models.ScheduleStatusInProgress,
	} {
		count, err := s.schedules.CountByCampaignIDAndStatus(campaign.ID, status)
		if err != nil {
			return false, fmt.Errorf("failed to count schedules: %w", err)
		}
		if count > 0 {
			return false, nil
		}
	}

	campaign.Status = models.CampaignStatusCompleted
	if err := s.campaigns.Update(campaign); err != nil {
		return false, fmt.Errorf("failed to update campaign: %w", err)
	}
	logrus.Infof("Campaign %s completed", campaign.ID)
	return true, nil
}

// RunningCampaigns lists campaigns the dispatcher should service
func (s *CampaignService) RunningCampaigns() ([]*models.Campaign, error) {
	return s.campaigns.GetByStatus(models.CampaignStatusRunning)
}

// GetCampaignCallLogs retrieves paginated call logs of a campaign
func (s *CampaignService) GetCampaignCallLogs(userID, campaignID string, page, pageSize int) ([]*models.CallLogResponse, int, error) {
	if _, err := s.ownedCampaign(userID, campaignID); err != nil {
		return nil, 0, err
	}
	logs, total, err := s.callLogs.GetByCampaignIDPaginated(campaignID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get call logs: %w", err)
	}
	responses := make([]*models.CallLogResponse, len(logs))
	for i, log := range logs {
		responses[i] = toCallLogResponse(log)
	}
	return responses, total, nil
}

// GetCampaignSummary aggregates call outcomes for a campaign
func (s *CampaignService) GetCampaignSummary(userID, campaignID string) (*models.CampaignSummary, error) {
	if _, err := s.ownedCampaign(userID, campaignID); err != nil {
		return nil, err
	}
	summary, err := s.callLogs.SummarizeByCampaignID(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize campaign: %w", err)
	}
	return summary, nil
}

func (s *CampaignService) ownedCampaign(userID, campaignID string) (*models.Campaign, error) {
	campaign, err := s.campaigns.GetByUserIDAndID(userID, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("campaign", campaignID)
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return campaign, nil
}

func (s *CampaignService) toResponse(campaign *models.Campaign) *models.CampaignResponse {
	return &models.CampaignResponse{
		ID:             campaign.ID,
		UserID:         campaign.UserID,
		Name:           campaign.Name,
		FlowID:         campaign.FlowID,
		ContactGroupID: campaign.ContactGroupID,
		Status:         campaign.Status,
		TotalCalls:     campaign.TotalCalls,
		CompletedCalls: campaign.CompletedCalls,
		FailedCalls:    campaign.FailedCalls,
		StartDate:      campaign.StartDate,
		EndDate:        campaign.EndDate,
		CreatedAt:      campaign.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      campaign.UpdatedAt.Format(time.RFC3339),
	}
}

func toCallLogResponse(log *models.CallLog) *models.CallLogResponse {
	response := &models.CallLogResponse{
		ID:              log.ID,
		Phone:           log.Phone,
		Status:          log.Status,
		DTMFResponse:    log.DTMFResponse,
		TransferNumber:  log.TransferNumber,
		DurationSeconds: log.DurationSeconds,
		Metadata:        log.Metadata,
		CreatedAt:       log.CreatedAt.Format(time.RFC3339),
	}
	if log.CampaignID != nil {
		response.CampaignID = *log.CampaignID
	}
	if log.ContactID != nil {
		response.ContactID = *log.ContactID
	}
	if log.DeviceID != nil {
		response.DeviceID = *log.DeviceID
	}
	if log.FlowID != nil {
		response.FlowID = *log.FlowID
	}
	return response
}
