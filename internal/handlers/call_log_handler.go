package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/voxlink/ivr-dialer-backend/internal/database/repository"
	"github.com/voxlink/ivr-dialer-backend/internal/services"
	"github.com/voxlink/ivr-dialer-backend/internal/utils"
)

type CallLogHandler struct {
	callLogService *services.CallLogService
}

func NewCallLogHandler(db *gorm.DB) *CallLogHandler {
	callLogRepo := repository.NewCallLogRepository(db)

	return &CallLogHandler{
		callLogService: services.NewCallLogService(callLogRepo),
	}
}

// GetCallLogs godoc
// @Summary Get user's call logs
// @Description Get paginated call logs across all of the user's campaigns, newest first
// @Tags call-logs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/call-logs [get]
func (h *CallLogHandler) GetCallLogs(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))

	logs, total, err := h.callLogService.ListCallLogs(userID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "Failed to get call logs")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       logs,
		"pagination": utils.CalculatePaginationInfo(total, page, pageSize),
	})
}
