package handlers

import (
	"net/http"
	"time"

	"sparks-server/internal/middleware"
	"sparks-server/internal/models"
	"sparks-server/internal/scheduling"
	"sparks-server/internal/store"
	"sparks-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// AvailabilityHandler handles therapist availability slot requests.
type AvailabilityHandler struct {
	DB    *gorm.DB
	Store *store.AvailabilityStore
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(db *gorm.DB, s *store.AvailabilityStore) *AvailabilityHandler {
	return &AvailabilityHandler{DB: db, Store: s}
}

// BulkAddRequest represents the request body for bulk-adding availability slots.
type BulkAddRequest struct {
	StartDate      string `json:"startDate" binding:"required"`
	EndDate        string `json:"endDate" binding:"required"`
	StartTime      string `json:"startTime" binding:"required"`
	EndTime        string `json:"endTime" binding:"required"`
	RecurrenceType string `json:"recurrenceType" binding:"required,oneof=None Daily Weekly Monthly Custom"`
	SelectedDays   []int  `json:"selectedDays"`
	IsFree         bool   `json:"isFree"`
}

// BulkAdd handles a therapist's bulk-add availability request: expand
// the recurrence, check for collisions with existing slots, and insert
// the whole batch or nothing.
func (h *AvailabilityHandler) BulkAdd(c *gin.Context) {
	var req BulkAddRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	therapistID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Therapist ID not found in token")
		return
	}

	startDate, err := time.ParseInLocation(dateLayout, req.StartDate, time.UTC)
	if err != nil {
		utils.BadRequest(c, "Invalid startDate: expected YYYY-MM-DD")
		return
	}
	endDate, err := time.ParseInLocation(dateLayout, req.EndDate, time.UTC)
	if err != nil {
		utils.BadRequest(c, "Invalid endDate: expected YYYY-MM-DD")
		return
	}

	candidates, err := scheduling.Generate(scheduling.RecurrenceRequest{
		StartDate:    startDate,
		EndDate:      endDate,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Recurrence:   scheduling.RecurrenceType(req.RecurrenceType),
		SelectedDays: req.SelectedDays,
		IsFree:       req.IsFree,
	})
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if len(candidates) == 0 {
		utils.BadRequest(c, "The requested window cannot fit any sessions")
		return
	}

	existing, err := h.Store.ListForTherapist(c.Request.Context(), therapistID, startDate, endDate, false)
	if err != nil {
		utils.InternalServerError(c, "Failed to check existing availability: "+err.Error())
		return
	}
	existingKeys := make([]scheduling.SlotKey, len(existing))
	for i, slot := range existing {
		existingKeys[i] = scheduling.SlotKey{Date: slot.Date, StartTime: slot.StartTime}
	}

	report := scheduling.FindConflicts(candidates, existingKeys)
	if report.HasConflicts() {
		examples := make([]gin.H, len(report.Examples))
		for i, e := range report.Examples {
			examples[i] = gin.H{"date": e.Date.Format(dateLayout), "startTime": e.StartTime}
		}
		c.JSON(http.StatusConflict, utils.ResponseData{
			Status:  http.StatusConflict,
			Message: "Requested slots collide with existing availability",
			Data:    gin.H{"total": report.Total, "examples": examples},
		})
		return
	}

	slots := make([]models.AvailabilitySlot, len(candidates))
	for i, cand := range candidates {
		slots[i] = models.AvailabilitySlot{
			TherapistID: therapistID,
			Date:        cand.Date,
			StartTime:   cand.StartTime,
			IsFree:      req.IsFree,
		}
	}
	if err := h.Store.BulkInsert(c.Request.Context(), slots); err != nil {
		utils.InternalServerError(c, "Failed to create availability slots: "+err.Error())
		return
	}

	utils.Created(c, "Availability slots created successfully", gin.H{
		"slotsCreated": len(slots),
		"startDate":    req.StartDate,
		"endDate":      req.EndDate,
	})
}

// GetMyAvailability handles fetching the authenticated therapist's own slots.
func (h *AvailabilityHandler) GetMyAvailability(c *gin.Context) {
	therapistID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	h.listSlots(c, therapistID, false)
}

// GetTherapistAvailability handles fetching another therapist's open
// slots, used by patients and parents when picking a time.
func (h *AvailabilityHandler) GetTherapistAvailability(c *gin.Context) {
	therapistID := c.Param("id")

	var therapist models.User
	if err := h.DB.Where("id = ? AND role = ?", therapistID, models.RoleTherapist).First(&therapist).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Therapist not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	// admins and the therapist viewing their own slots see booked ones too
	role, _ := middleware.GetUserRoleFromContext(c)
	requesterID, _ := middleware.GetUserIDFromContext(c)
	openOnly := !(role == models.RoleAdmin || requesterID == therapistID)

	h.listSlots(c, therapistID, openOnly)
}

func (h *AvailabilityHandler) listSlots(c *gin.Context, therapistID string, openOnly bool) {
	from := scheduling.NormalizeDate(time.Now().UTC())
	to := from.AddDate(0, 0, 30)

	if v := c.Query("from"); v != "" {
		parsed, err := time.ParseInLocation(dateLayout, v, time.UTC)
		if err != nil {
			utils.BadRequest(c, "Invalid from date: expected YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.ParseInLocation(dateLayout, v, time.UTC)
		if err != nil {
			utils.BadRequest(c, "Invalid to date: expected YYYY-MM-DD")
			return
		}
		to = parsed
	}

	slots, err := h.Store.ListForTherapist(c.Request.Context(), therapistID, from, to, openOnly)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch availability: "+err.Error())
		return
	}
	utils.Success(c, "Availability fetched successfully", slots)
}
