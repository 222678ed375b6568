package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/voxlink/ivr-dialer-backend/internal/database/repository"
	"github.com/voxlink/ivr-dialer-backend/internal/models"
)

var allowedAudioMimeTypes = map[string]bool{
	"audio/mpeg": true,
	"audio/mp3":  true,
	"audio/wav":  true,
	"audio/wave": true,
	"audio/x-wav": true,
	"audio/ogg":  true,
}

// AudioFileService stores uploaded prompt audio on disk and serves it back to
// devices through short-lived stream tokens
type AudioFileService struct {
	audioRepo  *repository.AudioFileRepository
	baseURL    string
	storageDir string
	tokens     *StreamTokenCache
}

func NewAudioFileService(audioRepo *repository.AudioFileRepository, baseURL string) *AudioFileService {
	storageDir := os.Getenv("AUDIO_STORAGE_DIR")
	if storageDir == "" {
		storageDir = "./storage/audio"
	}

	if err := os.MkdirAll(storageDir, 0755); err != nil {
		logrus.Warnf("Failed to create storage directory %s: %v", storageDir, err)
	}

	return &AudioFileService{
		audioRepo:  audioRepo,
		baseURL:    baseURL,
		storageDir: storageDir,
		tokens:     NewStreamTokenCache(1 * time.Hour),
	}
}

// UploadAudio saves an uploaded audio file to storage and records it
func (s *AudioFileService) UploadAudio(userID string, fileHeader *multipart.FileHeader, req *models.AudioFileUploadRequest) (*models.AudioFileResponse, error) {
	mimeType := fileHeader.Header.Get("Content-Type")
	if !allowedAudioMimeTypes[mimeType] {
		return nil, models.NewValidationError("file", "unsupported audio type "+mimeType)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	// Generate unique filename
	fileID := uuid.New().String()
	ext := filepath.Ext(fileHeader.Filename)
	fileName := fileID + ext

	// Create user-specific directory
	userDir := filepath.Join(s.storageDir, userID)
	if err := os.MkdirAll(userDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create user directory: %w", err)
	}

	filePath := filepath.Join(userDir, fileName)

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	fileSize, err := io.Copy(dst, file)
	if err != nil {
		os.Remove(filePath) // Clean up on error
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	language := req.Language
	if language == "" {
		language = "en"
	}

	audioFile := &models.AudioFile{
		UserID:       userID,
		FileName:     fileName,
		OriginalName: fileHeader.Filename,
		MimeType:     mimeType,
		FileSize:     fileSize,
		FilePath:     filePath,
		Language:     language,
		Category:     req.Category,
	}
	if err := s.audioRepo.Create(audioFile); err != nil {
		os.Remove(filePath) // Clean up on error
		return nil, fmt.Errorf("failed to save audio record: %w", err)
	}

	logrus.Infof("Audio uploaded: %s (ID: %s, Size: %d bytes)", audioFile.OriginalName, audioFile.ID, fileSize)
	return s.toResponse(audioFile, "")
}

// ListAudioFiles retrieves paginated audio files for a user
func (s *AudioFileService) ListAudioFiles(userID string, page, pageSize int) ([]*models.AudioFileResponse, int, error) {
	files, total, err := s.audioRepo.GetByUserIDPaginated(userID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get audio files: %w", err)
	}
	responses := make([]*models.AudioFileResponse, len(files))
	for i, file := range files {
		responses[i], err = s.toResponse(file, "")
		if err != nil {
			return nil, 0, err
		}
	}
	return responses, total, nil
}

// GetAudioFile retrieves an audio file owned by the user, with a fresh
// stream token embedded in the URL
func (s *AudioFileService) GetAudioFile(userID, fileID string) (*models.AudioFileResponse, error) {
	file, err := s.ownedFile(userID, fileID)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(file.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue stream token: %w", err)
	}
	return s.toResponse(file, token)
}

// DeleteAudioFile removes the record and the stored file
func (s *AudioFileService) DeleteAudioFile(userID, fileID string) error {
	file, err := s.ownedFile(userID, fileID)
	if err != nil {
		return err
	}
	if err := s.audioRepo.Delete(fileID); err != nil {
		return fmt.Errorf("failed to delete audio record: %w", err)
	}
	if err := os.Remove(file.FilePath); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("Failed to remove audio file %s from storage: %v", file.FilePath, err)
	}
	return nil
}

// IssueUserStreamToken mints a stream token for a file the user owns
func (s *AudioFileService) IssueUserStreamToken(userID, fileID string) (string, error) {
	file, err := s.ownedFile(userID, fileID)
	if err != nil {
		return "", err
	}
	return s.tokens.Issue(file.ID)
}

// IssueStreamToken mints a token a device can use to fetch the audio without
// user credentials
func (s *AudioFileService) IssueStreamToken(fileID string) (string, error) {
	if _, err := s.audioRepo.GetByID(fileID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", models.NewNotFoundError("audio file", fileID)
		}
		return "", fmt.Errorf("failed to get audio file: %w", err)
	}
	return s.tokens.Issue(fileID)
}

// OpenByStreamToken resolves a stream token and opens the backing file
func (s *AudioFileService) OpenByStreamToken(token string) (*models.AudioFile, *os.File, error) {
	fileID, ok := s.tokens.Resolve(token)
	if !ok {
		return nil, nil, models.NewNotFoundError("stream token", "")
	}

	file, err := s.audioRepo.GetByID(fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.NewNotFoundError("audio file", fileID)
		}
		return nil, nil, fmt.Errorf("failed to get audio file: %w", err)
	}

	f, err := os.Open(file.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	return file, f, nil
}

func (s *AudioFileService) ownedFile(userID, fileID string) (*models.AudioFile, error) {
	file, err := s.audioRepo.GetByUserIDAndID(userID, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("audio file", fileID)
		}
		return nil, fmt.Errorf("failed to get audio file: %w", err)
	}
	return file, nil
}

func (s *AudioFileService) toResponse(file *models.AudioFile, streamToken string) (*models.AudioFileResponse, error) {
	response := &models.AudioFileResponse{
		ID:              file.ID,
		UserID:          file.UserID,
		FileName:        file.FileName,
		OriginalName:    file.OriginalName,
		MimeType:        file.MimeType,
		FileSize:        file.FileSize,
		DurationSeconds: file.DurationSeconds,
		Language:        file.Language,
		Category:        file.Category,
		CreatedAt:       file.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       file.UpdatedAt.Format(time.RFC3339),
	}
	if streamToken != "" {
		response.StreamURL = fmt.Sprintf("%s/api/v1/audio-files/stream/%s", strings.TrimSuffix(s.baseURL, "/"), streamToken)
	}
	return response, nil
}
