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

type ContactGroupHandler struct {
	contactService *services.ContactService
	excelService   *excel.Service
}

func NewContactGroupHandler(db *gorm.DB, excelService *excel.Service) *ContactGroupHandler {
	groupRepo := repository.NewContactGroupRepository(db)
	contactRepo := repository.NewContactRepository(db)

	return &ContactGroupHandler{
		contactService: services.NewContactService(groupRepo, contactRepo),
		excelService:   excelService,
	}
}

// CreateGroup godoc
// @Summary Create a contact group
// @Description Create a new contact group for the authenticated user
// @Tags contact-groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateContactGroupRequest true "Create group request"
// @Success 201 {object} models.ContactGroupResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/contact-groups [post]
func (h *ContactGroupHandler) CreateGroup(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.CreateContactGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	response, err := h.contactService.CreateGroup(userID, &req)
	if err != nil {
		respondServiceError(c, err, "Failed to create contact group")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetGroups godoc
// @Summary Get user's contact groups
// @Description Get paginated contact groups with contact counts
// @Tags contact-groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/contact-groups [get]
func (h *ContactGroupHandler) GetGroups(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))

	groups, total, err := h.contactService.ListGroups(userID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "Failed to get contact groups")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       groups,
		"pagination": utils.CalculatePaginationInfo(total, page, pageSize),
	})
}

// GetGroup godoc
// @Summary Get contact group by ID
// @Description Get a specific contact group (user must own it)
// @Tags contact-groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} models.ContactGroupResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/contact-groups/{id} [get]
func (h *ContactGroupHandler) GetGroup(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	groupID := c.Param("id")

	response, err := h.contactService.GetGroup(userID, groupID)
	if err != nil {
		respondServiceError(c, err, "Failed to get contact group")
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateGroup godoc
// @Summary Update contact group
// @Description Apply a partial update to a contact group
// @Tags contact-groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param request body models.UpdateContactGroupRequest true "Update group request"
// @Success 200 {object} models.ContactGroupResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/contact-groups/{id} [put]
func (h *ContactGroupHandler) UpdateGroup(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	groupID := c.Param("id")

	var req models.UpdateContactGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	response, err := h.contactService.UpdateGroup(userID, groupID, &req)
	if err != nil {
		respondServiceError(c, err, "Failed to update contact group")
		return
	}

	c.JSON(http.StatusOK, response)
}

// DeleteGroup godoc
// @Summary Delete contact group
// @Description Delete a contact group and all its contacts
// @Tags contact-groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/contact-groups/{id} [delete]
func (h *ContactGroupHandler) DeleteGroup(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	groupID := c.Param("id")

	if err := h.contactService.DeleteGroup(userID, groupID); err != nil {
		respondServiceError(c, err, "Failed to delete contact group")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contact group deleted successfully"})
}

// AddContact godoc
// @Summary Add contact to group
// @Description Add a single contact; the phone number is normalized and deduplicated within the group
// @Tags contact-groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param request body models.CreateContactRequest true "Create contact request"
// @Success 201 {object} models.ContactResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/contact-groups/{id}/contacts [post]
func (h *ContactGroupHandler) AddContact(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	groupID := c.Param("id")

	var req models.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	response, err := h.contactService.AddContact(userID, groupID, &req)
	if err != nil {
		respondServiceError(c, err, "Failed to add contact")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetContacts godoc
// @Summary Get contacts in group
// @Description List all contacts in a contact group
// @Tags contact-groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/contact-groups/{id}/contacts [get]
func (h *ContactGroupHandler) GetContacts(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	groupID := c.Param("id")

	contacts, err := h.contactService.ListContacts(userID, groupID)
	if err != nil {
		respondServiceError(c, err, "Failed to get contacts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": contacts})
}

// DeleteContact godoc
// @Summary Delete contact
// @Description Remove a contact from a group
// @Tags contact-groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param contact_id path string true "Contact ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/contact-groups/{id}/contacts/{contact_id} [delete]
func (h *ContactGroupHandler) DeleteContact(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	groupID := c.Param("id")
	contactID := c.Param("contact_id")

	if err := h.contactService.DeleteContact(userID, groupID, contactID); err != nil {
		respondServiceError(c, err, "Failed to delete contact")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contact deleted successfully"})
}

// ExportContacts godoc
// @Summary Export contacts to Excel
// @Description Download the group's contacts as an Excel sheet in the import column layout
// @Tags contact-groups
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {file} binary
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/contact-groups/{id}/contacts/export [get]
func (h *ContactGroupHandler) ExportContacts(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	groupID := c.Param("id")

	contacts, err := h.contactService.ListContacts(userID, groupID)
	if err != nil {
		respondServiceError(c, err, "Failed to get contacts")
		return
	}

	result, err := h.excelService.ExportContacts(groupID, contacts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export contacts", "details": err.Error()})
		return
	}

	c.FileAttachment(result.FilePath, result.Filename)
}

// ImportContacts godoc
// @Summary Import contacts from Excel
// @Description Upload an Excel sheet (columns: name, phone, notes) and import its rows into the group. Invalid and duplicate rows are skipped and reported.
// @Tags contact-groups
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param file formData file true "Excel file (.xlsx)"
// @Success 200 {object} models.ContactImportResult
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/contact-groups/{id}/contacts/import [post]
func (h *ContactGroupHandler) ImportContacts(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	groupID := c.Param("id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is required", "details": err.Error()})
		return
	}

	rows, err := h.excelService.ParseContactSheet(fileHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse Excel file", "details": err.Error()})
		return
	}

	result, err := h.contactService.ImportContacts(userID, groupID, rows)
	if err != nil {
		respondServiceError(c, err, "Failed to import contacts")
		return
	}

	c.JSON(http.StatusOK, result)
}
