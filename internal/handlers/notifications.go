package handlers

import (
	"errors"
	"time"

	"sparks-server/internal/middleware"
	"sparks-server/internal/models"
	"sparks-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NotificationHandler handles the in-app notification feed.
type NotificationHandler struct {
	DB *gorm.DB
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

// GetNotifications handles fetching the current user's notifications,
// newest first. Pass ?unread=true to filter to unread only.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	query := h.DB.Where("recipient_id = ?", userID).Order("created_at desc")
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch notifications: "+err.Error())
		return
	}
	utils.Success(c, "Notifications fetched successfully", notifications)
}

// GetUnreadCount handles fetching the number of unread notifications.
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var count int64
	if err := h.DB.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		utils.InternalServerError(c, "Failed to count notifications: "+err.Error())
		return
	}
	utils.Success(c, "Unread count fetched successfully", gin.H{"count": count})
}

// MarkNotificationAsRead handles marking a single notification as read.
func (h *NotificationHandler) MarkNotificationAsRead(c *gin.Context) {
	notificationID := c.Param("id")

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var notification models.Notification
	if err := h.DB.First(&notification, "id = ?", notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Notification not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if notification.RecipientID != userID {
		utils.Forbidden(c, "You can only mark your own notifications as read.")
		return
	}

	if !notification.IsRead {
		now := time.Now().UTC()
		notification.IsRead = true
		notification.ReadAt = &now
		if err := h.DB.Save(&notification).Error; err != nil {
			utils.InternalServerError(c, "Failed to mark notification as read: "+err.Error())
			return
		}
	}

	utils.Success(c, "Notification marked as read", notification)
}
