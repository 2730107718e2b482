package handlers

import (
	"errors"
	"time"

	"sparks-server/internal/booking"
	"sparks-server/internal/middleware"
	"sparks-server/internal/models"
	"sparks-server/internal/notify"
	"sparks-server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionHandler handles therapy session related requests.
type SessionHandler struct {
	DB         *gorm.DB
	Engine     *booking.Engine
	Dispatcher *notify.Dispatcher
	Logger     *zap.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(db *gorm.DB, engine *booking.Engine, dispatcher *notify.Dispatcher, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{DB: db, Engine: engine, Dispatcher: dispatcher, Logger: logger}
}

// SessionSummary is the booking response payload.
type SessionSummary struct {
	ID          string    `json:"id"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Duration    int       `json:"duration"`
	Status      string    `json:"status"`
	Type        string    `json:"type"`
	SessionType string    `json:"sessionType"`
	BookedRate  float64   `json:"bookedRate"`
	MeetingLink *string   `json:"meetingLink,omitempty"`
}

func summarize(s *models.TherapySession) SessionSummary {
	return SessionSummary{
		ID:          s.ID,
		ScheduledAt: s.ScheduledAt,
		Duration:    s.Duration,
		Status:      string(s.Status),
		Type:        s.Type,
		SessionType: string(s.SessionType),
		BookedRate:  s.BookedRate,
		MeetingLink: s.MeetingLink,
	}
}

// BookSessionRequest represents the request body for a patient-initiated booking.
type BookSessionRequest struct {
	TherapistID string `json:"therapistId" binding:"required,uuid"`
	Date        string `json:"date" binding:"required"`
	TimeSlot    string `json:"timeSlot" binding:"required"`
	Type        string `json:"type"`
	MeetingType string `json:"meetingType" binding:"omitempty,oneof=IN_PERSON ONLINE HYBRID"`
}

// BookSession handles a patient booking a session with a therapist.
func (h *SessionHandler) BookSession(c *gin.Context) {
	var req BookSessionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Patient ID not found in token")
		return
	}

	session, err := h.Engine.Book(c.Request.Context(), booking.Request{
		PatientID:   patientID,
		TherapistID: req.TherapistID,
		Date:        req.Date,
		TimeSlot:    req.TimeSlot,
		Type:        req.Type,
		MeetingType: models.MeetingType(req.MeetingType),
	})
	if err != nil {
		h.respondBookingError(c, err)
		return
	}

	utils.Success(c, "Session booked successfully", summarize(session))
}

// BookForChildRequest represents the request body for a parent booking
// on behalf of their child.
type BookForChildRequest struct {
	ChildID     string `json:"childId" binding:"required,uuid"`
	Date        string `json:"date" binding:"required"`
	TimeSlot    string `json:"timeSlot" binding:"required"`
	Type        string `json:"type"`
	MeetingType string `json:"meetingType" binding:"omitempty,oneof=IN_PERSON ONLINE HYBRID"`
}

// BookSessionForChild handles a parent booking a session for their
// child with the child's assigned therapist.
func (h *SessionHandler) BookSessionForChild(c *gin.Context) {
	var req BookForChildRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	guardianID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Parent ID not found in token")
		return
	}

	session, err := h.Engine.BookForChild(c.Request.Context(), guardianID, booking.ChildRequest{
		ChildID:     req.ChildID,
		Date:        req.Date,
		TimeSlot:    req.TimeSlot,
		Type:        req.Type,
		MeetingType: models.MeetingType(req.MeetingType),
	})
	if err != nil {
		h.respondBookingError(c, err)
		return
	}

	utils.Success(c, "Session booked successfully", summarize(session))
}

// respondBookingError maps engine errors onto HTTP statuses.
func (h *SessionHandler) respondBookingError(c *gin.Context, err error) {
	switch {
	case booking.IsInvalidInput(err):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		utils.BadRequest(c, "The selected slot is not available. Please re-fetch availability and pick another time.")
	case errors.Is(err, booking.ErrTherapistNotFound):
		utils.NotFound(c, "Therapist not found")
	case errors.Is(err, booking.ErrPatientNotFound):
		utils.NotFound(c, "Patient not found")
	case errors.Is(err, booking.ErrChildNotFound):
		utils.NotFound(c, "Child not found")
	case errors.Is(err, booking.ErrSlotAlreadyBooked):
		utils.Conflict(c, "This slot was just booked by someone else. Please pick another time.")
	default:
		h.Logger.Error("booking failed", zap.Error(err))
		utils.InternalServerError(c, "Failed to book session")
	}
}

// GetSessionsForUser handles fetching sessions for the logged-in user.
func (h *SessionHandler) GetSessionsForUser(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(c)

	var sessions []models.TherapySession
	query := h.DB.Preload("Patient").Preload("Therapist").Order("scheduled_at asc")

	var err error
	switch role {
	case models.RolePatient:
		err = query.Where("patient_id = ?", userID).Find(&sessions).Error
	case models.RoleTherapist:
		err = query.Where("therapist_id = ?", userID).Find(&sessions).Error
	case models.RoleParent:
		children := h.DB.Model(&models.PatientProfile{}).Select("user_id").Where("guardian_id = ?", userID)
		err = query.Where("patient_id IN (?)", children).Find(&sessions).Error
	case models.RoleAdmin:
		err = query.Find(&sessions).Error
	default:
		utils.Forbidden(c, "User role not permitted to view sessions")
		return
	}

	if err != nil {
		utils.InternalServerError(c, "Failed to fetch sessions: "+err.Error())
		return
	}
	utils.Success(c, "Sessions fetched successfully", sessions)
}

// GetSessionByID handles fetching a single session by its ID.
// Accessible by involved patient, their guardian, the therapist, or an admin.
func (h *SessionHandler) GetSessionByID(c *gin.Context) {
	sessionID := c.Param("id")

	var session models.TherapySession
	if err := h.DB.Preload("Patient").Preload("Therapist").First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Session not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if !h.canAccessSession(c, &session) {
		utils.Forbidden(c, "You are not authorized to view this session")
		return
	}

	utils.Success(c, "Session fetched successfully", session)
}

// UpdateSessionStatusRequest represents the request body for a status change.
type UpdateSessionStatusRequest struct {
	Status models.SessionStatus `json:"status" binding:"required,oneof=APPROVED DECLINED CANCELLED COMPLETED"`
	Notes  string               `json:"notes"`
}

// UpdateSessionStatus handles approving, declining, completing or
// cancelling a session. Cancelling a scheduled session releases its
// availability slot so the window becomes bookable again.
func (h *SessionHandler) UpdateSessionStatus(c *gin.Context) {
	sessionID := c.Param("id")

	var req UpdateSessionStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var session models.TherapySession
	if err := h.DB.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Session not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)

	canUpdate := false
	switch role {
	case models.RoleAdmin:
		canUpdate = true
	case models.RoleTherapist:
		canUpdate = userID == session.TherapistID
	case models.RolePatient:
		// patients can only cancel their own upcoming sessions
		canUpdate = userID == session.PatientID &&
			req.Status == models.SessionCancelled &&
			cancellable(session.Status)
	case models.RoleParent:
		canUpdate = req.Status == models.SessionCancelled &&
			cancellable(session.Status) &&
			h.isGuardianOf(session.PatientID, userID)
	}
	if !canUpdate {
		utils.Forbidden(c, "You are not authorized to perform this status transition.")
		return
	}

	if req.Status == models.SessionCancelled {
		if err := h.Engine.Cancel(c.Request.Context(), &session); err != nil {
			h.Logger.Error("failed to cancel session", zap.String("sessionId", session.ID), zap.Error(err))
			utils.InternalServerError(c, "Failed to cancel session")
			return
		}
		utils.Success(c, "Session cancelled successfully", session)
		return
	}

	previous := session.Status
	session.Status = req.Status
	if req.Notes != "" {
		session.Notes = req.Notes
	}
	if err := h.DB.Save(&session).Error; err != nil {
		utils.InternalServerError(c, "Failed to update session status: "+err.Error())
		return
	}

	if err := h.Dispatcher.SessionStatusChanged(c.Request.Context(), &session, previous); err != nil {
		h.Logger.Warn("status notification failed", zap.String("sessionId", session.ID), zap.Error(err))
	}

	utils.Success(c, "Session status updated successfully", session)
}

func cancellable(status models.SessionStatus) bool {
	return status == models.SessionRequested ||
		status == models.SessionApproved ||
		status == models.SessionScheduled
}

func (h *SessionHandler) canAccessSession(c *gin.Context, session *models.TherapySession) bool {
	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)

	switch {
	case role == models.RoleAdmin:
		return true
	case userID == session.PatientID || userID == session.TherapistID:
		return true
	case role == models.RoleParent:
		return h.isGuardianOf(session.PatientID, userID)
	}
	return false
}

func (h *SessionHandler) isGuardianOf(patientID, guardianID string) bool {
	var count int64
	h.DB.Model(&models.PatientProfile{}).
		Where("user_id = ? AND guardian_id = ?", patientID, guardianID).
		Count(&count)
	return count > 0
}
