package handlers

import (
	"errors"

	"sparks-server/internal/middleware"
	"sparks-server/internal/models"
	"sparks-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserHandler handles user-related requests (typically admin operations).
type UserHandler struct {
	DB *gorm.DB
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{DB: db}
}

// CreateUserRequest represents the request body for creating a user by an admin.
type CreateUserRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      string `json:"role" binding:"required,oneof=patient parent therapist admin"`
}

// CreateUser handles creating a new user (admin).
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var existingUser models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		utils.BadRequest(c, "User with this email already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	user := models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      models.Role(req.Role),
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	if err := h.DB.Create(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to create user: "+err.Error())
		return
	}

	utils.Created(c, "User created successfully", user.Sanitize())
}

// GetUsers handles fetching all users (admin).
func (h *UserHandler) GetUsers(c *gin.Context) {
	var users []models.User
	if err := h.DB.Find(&users).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch users: "+err.Error())
		return
	}

	sanitizedUsers := make([]models.UserSanitized, len(users))
	for i, u := range users {
		sanitizedUsers[i] = u.Sanitize()
	}

	utils.Success(c, "Users fetched successfully", sanitizedUsers)
}

// GetUserByID handles fetching a single user by ID (admin).
func (h *UserHandler) GetUserByID(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	utils.Success(c, "User fetched successfully", user.Sanitize())
}

// UpdateUserRequest represents the request body for updating a user by an admin.
type UpdateUserRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty,oneof=patient parent therapist admin"`
}

// UpdateUser handles updating a user by ID (admin).
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID := c.Param("id")

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.NotFound(c, "User not found")
		return
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Email != "" && req.Email != user.Email {
		var existingUser models.User
		if err := h.DB.Where("email = ? AND id != ?", req.Email, user.ID).First(&existingUser).Error; err == nil {
			utils.BadRequest(c, "New email is already in use")
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.InternalServerError(c, "Database error checking email: "+err.Error())
			return
		}
		user.Email = req.Email
	}
	if req.Role != "" {
		user.Role = models.Role(req.Role)
	}

	if err := h.DB.Save(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to update user: "+err.Error())
		return
	}

	utils.Success(c, "User updated successfully", user.Sanitize())
}

// DeleteUser handles deleting a user by ID (admin).
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if err := h.DB.Delete(&models.User{}, "id = ?", userID).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete user: "+err.Error())
		return
	}

	utils.Success(c, "User deleted successfully", nil)
}

// TherapistListing pairs a therapist's public user data with their
// practice profile, for the booking UI.
type TherapistListing struct {
	models.UserSanitized
	Specialty   string  `json:"specialty,omitempty"`
	SessionRate float64 `json:"sessionRate"`
	IsAccepting bool    `json:"isAccepting"`
}

// GetTherapists handles fetching all therapists with their profiles.
// Accessible to all authenticated users for booking sessions.
func (h *UserHandler) GetTherapists(c *gin.Context) {
	var therapists []models.User
	if err := h.DB.Where("role = ?", models.RoleTherapist).Find(&therapists).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch therapists: "+err.Error())
		return
	}

	ids := make([]string, len(therapists))
	for i, t := range therapists {
		ids[i] = t.ID
	}
	var profiles []models.TherapistProfile
	if len(ids) > 0 {
		if err := h.DB.Where("user_id IN ?", ids).Find(&profiles).Error; err != nil {
			utils.InternalServerError(c, "Failed to fetch therapist profiles: "+err.Error())
			return
		}
	}
	profileByUser := make(map[string]models.TherapistProfile, len(profiles))
	for _, p := range profiles {
		profileByUser[p.UserID] = p
	}

	listings := make([]TherapistListing, len(therapists))
	for i, t := range therapists {
		listing := TherapistListing{UserSanitized: t.Sanitize()}
		if p, ok := profileByUser[t.ID]; ok {
			listing.Specialty = p.Specialty
			listing.SessionRate = p.SessionRate
			listing.IsAccepting = p.IsAccepting
		}
		listings[i] = listing
	}

	utils.Success(c, "Therapists fetched successfully", listings)
}

// UpsertTherapistProfileRequest represents the request body for a
// therapist editing their own practice profile.
type UpsertTherapistProfileRequest struct {
	Specialty   string  `json:"specialty"`
	Bio         string  `json:"bio"`
	SessionRate float64 `json:"sessionRate" binding:"gte=0"`
	IsAccepting *bool   `json:"isAccepting"`
	LicenseNo   string  `json:"licenseNo"`
}

// UpsertTherapistProfile handles a therapist creating or updating their
// practice profile, including the session rate snapshotted at booking.
func (h *UserHandler) UpsertTherapistProfile(c *gin.Context) {
	therapistID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req UpsertTherapistProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var profile models.TherapistProfile
	err := h.DB.Where("user_id = ?", therapistID).First(&profile).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	profile.UserID = therapistID
	profile.Specialty = req.Specialty
	profile.Bio = req.Bio
	profile.SessionRate = req.SessionRate
	profile.LicenseNo = req.LicenseNo
	if req.IsAccepting != nil {
		profile.IsAccepting = *req.IsAccepting
	}

	if err := h.DB.Save(&profile).Error; err != nil {
		utils.InternalServerError(c, "Failed to save therapist profile: "+err.Error())
		return
	}

	utils.Success(c, "Therapist profile saved successfully", profile)
}

// LinkChildRequest represents the request body for associating a child
// patient with the authenticated parent.
type LinkChildRequest struct {
	ChildID string `json:"childId" binding:"required,uuid"`
}

// LinkChild handles a parent claiming guardianship of a patient account
// that has no guardian yet.
func (h *UserHandler) LinkChild(c *gin.Context) {
	var req LinkChildRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	guardianID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var child models.User
	if err := h.DB.Where("id = ? AND role = ?", req.ChildID, models.RolePatient).First(&child).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Child not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var profile models.PatientProfile
	err := h.DB.Where("user_id = ?", child.ID).First(&profile).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}
	if profile.GuardianID != nil && *profile.GuardianID != guardianID {
		utils.Forbidden(c, "This patient is already linked to another guardian.")
		return
	}

	profile.UserID = child.ID
	profile.GuardianID = &guardianID
	if err := h.DB.Save(&profile).Error; err != nil {
		utils.InternalServerError(c, "Failed to link child: "+err.Error())
		return
	}

	utils.Success(c, "Child linked successfully", profile)
}

// GetChildren handles fetching the authenticated parent's linked children.
func (h *UserHandler) GetChildren(c *gin.Context) {
	guardianID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var profiles []models.PatientProfile
	if err := h.DB.Preload("User").Where("guardian_id = ?", guardianID).Find(&profiles).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch children: "+err.Error())
		return
	}

	type childListing struct {
		models.UserSanitized
		PrimaryTherapistID *string `json:"primaryTherapistId,omitempty"`
	}
	children := make([]childListing, len(profiles))
	for i, p := range profiles {
		children[i] = childListing{
			UserSanitized:      p.User.Sanitize(),
			PrimaryTherapistID: p.PrimaryTherapistID,
		}
	}

	utils.Success(c, "Children fetched successfully", children)
}
