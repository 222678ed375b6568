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

type AudioFileHandler struct {
	audioService *services.AudioFileService
}

func NewAudioFileHandler(db *gorm.DB, baseURL string) *AudioFileHandler {
	audioRepo := repository.NewAudioFileRepository(db)

	return &AudioFileHandler{
		audioService: services.NewAudioFileService(audioRepo, baseURL),
	}
}

// UploadAudio godoc
// @Summary Upload an audio file
// @Description Upload an audio prompt (mp3, wav or ogg) for use in IVR flows
// @Tags audio-files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Audio file"
// @Param language formData string false "Language code"
// @Param category formData string false "Category (greeting, menu, retry, goodbye)"
// @Success 201 {object} models.AudioFileResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/audio-files [post]
func (h *AudioFileHandler) UploadAudio(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Audio file is required", "details": err.Error()})
		return
	}

	var req models.AudioFileUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	response, err := h.audioService.UploadAudio(userID, fileHeader, &req)
	if err != nil {
		respondServiceError(c, err, "Failed to upload audio file")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetAudioFiles godoc
// @Summary Get user's audio files
// @Description Get paginated audio files belonging to the authenticated user
// @Tags audio-files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/audio-files [get]
func (h *AudioFileHandler) GetAudioFiles(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))

	files, total, err := h.audioService.ListAudioFiles(userID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "Failed to get audio files")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       files,
		"pagination": utils.CalculatePaginationInfo(total, page, pageSize),
	})
}

// GetAudioFile godoc
// @Summary Get audio file by ID
// @Description Get audio file metadata with a fresh stream URL
// @Tags audio-files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Audio file ID"
// @Success 200 {object} models.AudioFileResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/audio-files/{id} [get]
func (h *AudioFileHandler) GetAudioFile(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	fileID := c.Param("id")

	response, err := h.audioService.GetAudioFile(userID, fileID)
	if err != nil {
		respondServiceError(c, err, "Failed to get audio file")
		return
	}

	c.JSON(http.StatusOK, response)
}

// DeleteAudioFile godoc
// @Summary Delete audio file
// @Description Delete an audio file record and its stored file
// @Tags audio-files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Audio file ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/audio-files/{id} [delete]
func (h *AudioFileHandler) DeleteAudioFile(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	fileID := c.Param("id")

	if err := h.audioService.DeleteAudioFile(userID, fileID); err != nil {
		respondServiceError(c, err, "Failed to delete audio file")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Audio file deleted successfully"})
}

// GetStreamToken godoc
// @Summary Issue a stream token
// @Description Mint a short-lived token for streaming an audio file without user credentials
// @Tags audio-files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Audio file ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/audio-files/{id}/token [get]
func (h *AudioFileHandler) GetStreamToken(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	fileID := c.Param("id")

	token, err := h.audioService.IssueUserStreamToken(userID, fileID)
	if err != nil {
		respondServiceError(c, err, "Failed to issue stream token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"stream_url": "/api/v1/audio-files/stream/" + token,
	})
}

// StreamAudio godoc
// @Summary Stream an audio file
// @Description Stream audio content by short-lived token. Devices fetch prompts through this route without user credentials.
// @Tags audio-files
// @Produce audio/mpeg
// @Param token path string true "Stream token"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/audio-files/stream/{token} [get]
func (h *AudioFileHandler) StreamAudio(c *gin.Context) {
	token := c.Param("token")

	record, file, err := h.audioService.OpenByStreamToken(token)
	if err != nil {
		respondServiceError(c, err, "Failed to stream audio file")
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to stream audio file", "details": err.Error()})
		return
	}

	c.Header("Content-Type", record.MimeType)
	// ServeContent handles range requests so devices can seek
	http.ServeContent(c.Writer, c.Request, record.OriginalName, info.ModTime(), file)
}
