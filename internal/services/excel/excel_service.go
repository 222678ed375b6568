package excel

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/voxlink/ivr-dialer-backend/internal/models"
)

// Service handles Excel operations for contact lists and call log exports
type Service struct {
	exportsDir string
	tempDir    string
}

// NewExcelService creates a new Excel service instance
func NewExcelService(exportsDir, tempDir string) *Service {
	// Create exports directory if it doesn't exist
	if _, err := os.Stat(exportsDir); os.IsNotExist(err) {
		os.MkdirAll(exportsDir, 0755)
	}

	// Create temp directory if it doesn't exist
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		os.MkdirAll(tempDir, 0755)
	}

	return &Service{
		exportsDir: exportsDir,
		tempDir:    tempDir,
	}
}

// ExportResult contains the result of an export operation
type ExportResult struct {
	Success  bool
	Message  string
	Filename string
	FilePath string
}

// ParseContactSheet reads an uploaded workbook and returns the contact rows
// of its first sheet. Expected columns: name, phone, notes; a header row is
// detected and skipped.
func (s *Service) ParseContactSheet(fileHeader *multipart.FileHeader) ([]models.CreateContactRequest, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	workbook, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	defer workbook.Close()

	sheetName := workbook.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := workbook.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}

	var contacts []models.CreateContactRequest
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}

		name := cellAt(row, 0)
		phone := cellAt(row, 1)
		notes := cellAt(row, 2)

		// Skip a header row
		if i == 0 && strings.EqualFold(phone, "phone") {
			continue
		}
		if phone == "" {
			continue
		}

		contacts = append(contacts, models.CreateContactRequest{
			Name:  name,
			Phone: phone,
			Notes: notes,
		})
	}
	return contacts, nil
}

// ExportCallLogs writes a campaign's call logs to an Excel file
func (s *Service) ExportCallLogs(campaignID string, logs []*models.CallLogResponse) (*ExportResult, error) {
	timestamp := time.Now().Unix()
	filename := fmt.Sprintf("call_logs_%s_%d.xlsx", campaignID, timestamp)
	filePath := filepath.Join(s.exportsDir, filename)

	f := excelize.NewFile()

	sheetName := "Call Logs"
	defaultSheetName := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheetName, sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	f.SetActiveSheet(0)

	columns := []string{
		"id", "phone", "status", "dtmf_response", "transfer_number",
		"duration_seconds", "device_id", "created_at",
	}

	// Write headers
	for i, col := range columns {
		cell := fmt.Sprintf("%s1", columnToLetter(i+1))
		f.SetCellValue(sheetName, cell, col)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"FFFF00"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err == nil {
		f.SetCellStyle(sheetName, "A1", columnToLetter(len(columns))+"1", headerStyle)
	}

	noResponseStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"D9D9D9"}, // Gray
			Pattern: 1,
		},
	})
	transferredStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"B4C6E7"}, // Light blue
			Pattern: 1,
		},
	})
	failedStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"FFC000"}, // Orange
			Pattern: 1,
		},
	})

	// Set column widths
	for i, col := range columns {
		colLetter := columnToLetter(i + 1)
		width := 20.0 // Default width

		switch col {
		case "id", "device_id":
			width = 38.0
		case "phone", "transfer_number":
			width = 18.0
		case "status", "dtmf_response", "duration_seconds":
			width = 15.0
		case "created_at":
			width = 22.0
		}

		f.SetColWidth(sheetName, colLetter, colLetter, width)
	}

	// Write log rows
	for j, log := range logs {
		rowNum := j + 2 // Start from row 2 (after headers)

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowNum), log.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), log.Phone)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowNum), log.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", rowNum), log.DTMFResponse)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", rowNum), log.TransferNumber)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", rowNum), log.DurationSeconds)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", rowNum), log.DeviceID)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", rowNum), log.CreatedAt)

		switch log.Status {
		case models.CallStatusNoResponse, models.CallStatusAbandoned:
			f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("%s%d", columnToLetter(len(columns)), rowNum), noResponseStyle)
		case models.CallStatusTransferred:
			f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("%s%d", columnToLetter(len(columns)), rowNum), transferredStyle)
		case models.CallStatusFailed:
			f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("%s%d", columnToLetter(len(columns)), rowNum), failedStyle)
		}
	}

	if err := f.SaveAs(filePath); err != nil {
		return nil, fmt.Errorf("failed to save Excel file: %w", err)
	}

	return &ExportResult{
		Success:  true,
		Message:  fmt.Sprintf("Successfully exported %d call log(s) for campaign %s", len(logs), campaignID),
		Filename: filename,
		FilePath: filePath,
	}, nil
}

// ExportContacts writes a contact group's contacts to an Excel file in the
// same column layout ParseContactSheet expects
func (s *Service) ExportContacts(groupID string, contacts []*models.ContactResponse) (*ExportResult, error) {
	timestamp := time.Now().Unix()
	filename := fmt.Sprintf("contacts_%s_%d.xlsx", groupID, timestamp)
	filePath := filepath.Join(s.exportsDir, filename)

	f := excelize.NewFile()

	sheetName := "Contacts"
	defaultSheetName := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheetName, sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	f.SetActiveSheet(0)

	columns := []string{"name", "phone", "notes"}
	for i, col := range columns {
		cell := fmt.Sprintf("%s1", columnToLetter(i+1))
		f.SetCellValue(sheetName, cell, col)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"FFFF00"},
			Pattern: 1,
		},
	})
	if err == nil {
		f.SetCellStyle(sheetName, "A1", columnToLetter(len(columns))+"1", headerStyle)
	}

	f.SetColWidth(sheetName, "A", "A", 25.0)
	f.SetColWidth(sheetName, "B", "B", 18.0)
	f.SetColWidth(sheetName, "C", "C", 40.0)

	for j, contact := range contacts {
		rowNum := j + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowNum), contact.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), contact.Phone)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowNum), contact.Notes)
	}

	if err := f.SaveAs(filePath); err != nil {
		return nil, fmt.Errorf("failed to save Excel file: %w", err)
	}

	return &ExportResult{
		Success:  true,
		Message:  fmt.Sprintf("Successfully exported %d contact(s)", len(contacts)),
		Filename: filename,
		FilePath: filePath,
	}, nil
}

// cellAt returns the trimmed cell at index, or ""
func cellAt(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

// Helper function to convert column number to Excel column letter
func columnToLetter(col int) string {
	var result string
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
