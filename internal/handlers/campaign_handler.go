package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/voxlink/ivr-dialer-backend/internal/database/repository"
	"github.com/voxlink/ivr-dialer-backend/internal/models"
	"github.com/voxlink/ivr-dialer-backend/internal/services"
	"github.com/voxlink/ivr-dialer-backend/internal/services/excel"
	"github.com/voxlink/ivr-dialer-backend/internal/utils"
)

// exportPageSize caps how many call logs one Excel export reads
const exportPageSize = 10000

type CampaignHandler struct {
	campaignService *services.CampaignService
	excelService    *excel.Service
}

func NewCampaignHandler(db *gorm.DB, hub *services.DeviceHub, publisher *services.RabbitMQService, excelService *excel.Service) *CampaignHandler {
	campaignRepo := repository.NewCampaignRepository(db)
	flowRepo := repository.NewIVRFlowRepository(db)
	groupRepo := repository.NewContactGroupRepository(db)
	contactRepo := repository.NewContactRepository(db)
	scheduleRepo := repository.NewCallScheduleRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	callLogRepo := repository.NewCallLogRepository(db)

	var campaignService *services.CampaignService
	if publisher != nil {
		campaignService = services.NewCampaignService(
			campaignRepo, flowRepo, groupRepo, contactRepo,
			scheduleRepo, deviceRepo, hub, publisher, callLogRepo,
		)
	} else {
		// a typed nil pointer must not end up inside the publisher interface
		campaignService = services.NewCampaignService(
			campaignRepo, flowRepo, groupRepo, contactRepo,
			scheduleRepo, deviceRepo, hub, nil, callLogRepo,
		)
	}

	return &CampaignHandler{
		campaignService: campaignService,
		excelService:    excelService,
	}
}

// CreateCampaign godoc
// @Summary Create a campaign
// @Description Create a draft campaign referencing one of the user's flows and contact groups
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateCampaignRequest true "Create campaign request"
// @Success 201 {object} models.CampaignResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	response, err := h.campaignService.CreateCampaign(userID, &req)
	if err != nil {
		respondServiceError(c, err, "Failed to create campaign")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetCampaigns godoc
// @Summary Get user's campaigns
// @Description Get paginated campaigns belonging to the authenticated user
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))

	campaigns, total, err := h.campaignService.ListCampaigns(userID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "Failed to get campaigns")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       campaigns,
		"pagination": utils.CalculatePaginationInfo(total, page, pageSize),
	})
}

// GetCampaign godoc
// @Summary Get campaign by ID
// @Description Get a specific campaign (user must own it)
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.CampaignResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	response, err := h.campaignService.GetCampaign(userID, campaignID)
	if err != nil {
		respondServiceError(c, err, "Failed to get campaign")
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateCampaign godoc
// @Summary Update campaign
// @Description Apply a partial update to a campaign; running campaigns must be paused first
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param request body models.UpdateCampaignRequest true "Update campaign request"
// @Success 200 {object} models.CampaignResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [put]
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	var req models.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	response, err := h.campaignService.UpdateCampaign(userID, campaignID, &req)
	if err != nil {
		respondServiceError(c, err, "Failed to update campaign")
		return
	}

	c.JSON(http.StatusOK, response)
}

// DeleteCampaign godoc
// @Summary Delete campaign
// @Description Delete a campaign; running campaigns must be paused first
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [delete]
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	if err := h.campaignService.DeleteCampaign(userID, campaignID); err != nil {
		respondServiceError(c, err, "Failed to delete campaign")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Campaign deleted successfully"})
}

// StartCampaign godoc
// @Summary Start or resume a campaign
// @Description Start a draft campaign (materializes a call schedule per contact) or resume a paused one, then dispatch to online devices
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.CampaignResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/start [post]
func (h *CampaignHandler) StartCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	response, err := h.campaignService.StartCampaign(userID, campaignID)
	if err != nil {
		respondServiceError(c, err, "Failed to start campaign")
		return
	}

	c.JSON(http.StatusOK, response)
}

// PauseCampaign godoc
// @Summary Pause a running campaign
// @Description Stop dispatching new calls; calls already in progress run to completion
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.CampaignResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/pause [post]
func (h *CampaignHandler) PauseCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	response, err := h.campaignService.PauseCampaign(userID, campaignID)
	if err != nil {
		respondServiceError(c, err, "Failed to pause campaign")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetCampaignCallLogs godoc
// @Summary Get campaign call logs
// @Description Get paginated call logs for a campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/call-logs [get]
func (h *CampaignHandler) GetCampaignCallLogs(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")
	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))

	logs, total, err := h.campaignService.GetCampaignCallLogs(userID, campaignID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "Failed to get call logs")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       logs,
		"pagination": utils.CalculatePaginationInfo(total, page, pageSize),
	})
}

// ExportCampaignCallLogs godoc
// @Summary Export campaign call logs to Excel
// @Description Generate an Excel report of the campaign's call logs and download it
// @Tags campaigns
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {file} binary
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/call-logs/export [get]
func (h *CampaignHandler) ExportCampaignCallLogs(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	logs, _, err := h.campaignService.GetCampaignCallLogs(userID, campaignID, 1, exportPageSize)
	if err != nil {
		respondServiceError(c, err, "Failed to get call logs")
		return
	}

	result, err := h.excelService.ExportCallLogs(campaignID, logs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export call logs", "details": err.Error()})
		return
	}

	c.FileAttachment(result.FilePath, result.Filename)
}

// GetCampaignSummary godoc
// @Summary Get campaign outcome summary
// @Description Get per-outcome call counts and average duration for a campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Success 200 {object} models.CampaignSummary
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/summary [get]
func (h *CampaignHandler) GetCampaignSummary(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID := c.Param("id")

	summary, err := h.campaignService.GetCampaignSummary(userID, campaignID)
	if err != nil {
		respondServiceError(c, err, "Failed to get campaign summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}
