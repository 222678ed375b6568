package services

import (
	"fmt"

	"github.com/voxlink/ivr-dialer-backend/internal/models"
)

// callLogSource serves user-level call log listings
type callLogSource interface {
	GetByUserIDPaginated(userID string, page, pageSize int) ([]*models.CallLog, int, error)
}

// CallLogService serves the user's call history across all campaigns
type CallLogService struct {
	logs callLogSource
}

func NewCallLogService(logs callLogSource) *CallLogService {
	return &CallLogService{logs: logs}
}

// ListCallLogs retrieves paginated call logs for a user, newest first
func (s *CallLogService) ListCallLogs(userID string, page, pageSize int) ([]*models.CallLogResponse, int, error) {
	logs, total, err := s.logs.GetByUserIDPaginated(userID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get call logs: %w", err)
	}
	responses := make([]*models.CallLogResponse, len(logs))
	for i, log := range logs {
		responses[i] = toCallLogResponse(log)
	}
	return responses, total, nil
}
