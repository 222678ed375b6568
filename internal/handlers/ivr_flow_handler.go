package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/voxlink/ivr-dialer-backend/internal/database/repository"
	"github.com/voxlink/ivr-dialer-backend/internal/models"
	"github.com/voxlink/ivr-dialer-backend/internal/services"
	"github.com/voxlink/ivr-dialer-backend/internal/utils"
)

type IVRFlowHandler struct {
	flowService *services.IVRFlowService
}

func NewIVRFlowHandler(db *gorm.DB) *IVRFlowHandler {
	flowRepo := repository.NewIVRFlowRepository(db)
	nodeRepo := repository.NewIVRNodeRepository(db)

	return &IVRFlowHandler{
		flowService: services.NewIVRFlowService(flowRepo, nodeRepo),
	}
}

// CreateFlow godoc
// @Summary Create a new IVR flow
// @Description Create a new IVR flow for the authenticated user
// @Tags flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateFlowRequest true "Create flow request"
// @Success 201 {object} models.FlowResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/flows [post]
func (h *IVRFlowHandler) CreateFlow(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.CreateFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	response, err := h.flowService.CreateFlow(userID, &req)
	if err != nil {
		respondServiceError(c, err, "Failed to create flow")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetFlows godoc
// @Summary Get user's IVR flows
// @Description Get paginated IVR flows belonging to the authenticated user
// @Tags flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/flows [get]
func (h *IVRFlowHandler) GetFlows(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))

	flows, total, err := h.flowService.ListFlows(userID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "Failed to get flows")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       flows,
		"pagination": utils.CalculatePaginationInfo(total, page, pageSize),
	})
}

// GetFlow godoc
// @Summary Get IVR flow by ID
// @Description Get a specific IVR flow (user must own it)
// @Tags flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flow ID"
// @Success 200 {object} models.FlowResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/flows/{id} [get]
func (h *IVRFlowHandler) GetFlow(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	flowID := c.Param("id")

	response, err := h.flowService.GetFlow(userID, flowID)
	if err != nil {
		respondServiceError(c, err, "Failed to get flow")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetFlowWithNodes godoc
// @Summary Get IVR flow with all nodes
// @Description Get a flow and its full node graph with resolved audio references
// @Tags flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flow ID"
// @Success 200 {object} models.FlowWithNodesResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/flows/{id}/full [get]
func (h *IVRFlowHandler) GetFlowWithNodes(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	flowID := c.Param("id")

	response, err := h.flowService.GetFlowWithNodes(userID, flowID)
	if err != nil {
		respondServiceError(c, err, "Failed to get flow")
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateFlow godoc
// @Summary Update IVR flow
// @Description Apply a partial update to a flow (user must own it)
// @Tags flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flow ID"
// @Param request body models.UpdateFlowRequest true "Update flow request"
// @Success 200 {object} models.FlowResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/flows/{id} [put]
func (h *IVRFlowHandler) UpdateFlow(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	flowID := c.Param("id")

	var req models.UpdateFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	response, err := h.flowService.UpdateFlow(userID, flowID, &req)
	if err != nil {
		respondServiceError(c, err, "Failed to update flow")
		return
	}

	c.JSON(http.StatusOK, response)
}

// DeleteFlow godoc
// @Summary Delete IVR flow
// @Description Delete a flow and all its nodes (user must own it)
// @Tags flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flow ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/flows/{id} [delete]
func (h *IVRFlowHandler) DeleteFlow(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	flowID := c.Param("id")

	if err := h.flowService.DeleteFlow(userID, flowID); err != nil {
		respondServiceError(c, err, "Failed to delete flow")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Flow deleted successfully"})
}

// ValidateFlow godoc
// @Summary Validate IVR flow graph
// @Description Run static validation over the flow graph: dangling goto targets, unreachable nodes, transfers without numbers
// @Tags flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flow ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/flows/{id}/validate [post]
func (h *IVRFlowHandler) ValidateFlow(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	flowID := c.Param("id")

	findings, err := h.flowService.ValidateFlow(userID, flowID)
	if err != nil {
		respondServiceError(c, err, "Failed to validate flow")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":    len(findings) == 0,
		"findings": findings,
	})
}

// AddNode godoc
// @Summary Add node to IVR flow
// @Description Add a node to a flow; the node key must be unique within the flow
// @Tags flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flow ID"
// @Param request body models.CreateNodeRequest true "Create node request"
// @Success 201 {object} models.NodeResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/flows/{id}/nodes [post]
func (h *IVRFlowHandler) AddNode(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	flowID := c.Param("id")

	var req models.CreateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	response, err := h.flowService.AddNode(userID, flowID, &req)
	if err != nil {
		respondServiceError(c, err, "Failed to add node")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// UpdateNode godoc
// @Summary Update flow node
// @Description Apply a partial update to a node; the node key is immutable
// @Tags flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flow ID"
// @Param node_id path string true "Node ID"
// @Param request body models.UpdateNodeRequest true "Update node request"
// @Success 200 {object} models.NodeResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/flows/{id}/nodes/{node_id} [put]
func (h *IVRFlowHandler) UpdateNode(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	flowID := c.Param("id")
	nodeID := c.Param("node_id")

	var req models.UpdateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	response, err := h.flowService.UpdateNode(userID, flowID, nodeID, &req)
	if err != nil {
		respondServiceError(c, err, "Failed to update node")
		return
	}

	c.JSON(http.StatusOK, response)
}

// DeleteNode godoc
// @Summary Delete flow node
// @Description Delete a node; actions elsewhere that target it become dangling and show up in validation
// @Tags flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flow ID"
// @Param node_id path string true "Node ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/flows/{id}/nodes/{node_id} [delete]
func (h *IVRFlowHandler) DeleteNode(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	flowID := c.Param("id")
	nodeID := c.Param("node_id")

	if err := h.flowService.DeleteNode(userID, flowID, nodeID); err != nil {
		respondServiceError(c, err, "Failed to delete node")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Node deleted successfully"})
}
