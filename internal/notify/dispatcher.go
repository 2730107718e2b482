package notify

import (
	"context"
	"fmt"

	"sparks-server/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const displayTimeLayout = "Mon, 02 Jan 2006 at 15:04"

// Dispatcher creates in-app notification rows for booking lifecycle
// events. It sits off the booking's critical path: callers log and
// swallow its errors.
type Dispatcher struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(db *gorm.DB, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{db: db, logger: logger}
}

// SessionBooked notifies both the patient and the therapist about a new
// booking. Each recipient gets their own row; a failure on one does not
// stop the other.
func (d *Dispatcher) SessionBooked(ctx context.Context, session *models.TherapySession) error {
	when := session.ScheduledAt.UTC().Format(displayTimeLayout)

	patientErr := d.create(ctx, models.Notification{
		RecipientID: session.PatientID,
		Kind:        models.NotifySessionBooked,
		Title:       "Session booked",
		Body:        fmt.Sprintf("Your %s session is scheduled for %s.", session.Type, when),
		SessionID:   &session.ID,
	})
	therapistErr := d.create(ctx, models.Notification{
		RecipientID: session.TherapistID,
		Kind:        models.NotifySessionBooked,
		Title:       "New session booked",
		Body:        fmt.Sprintf("A %s session was booked for %s.", session.Type, when),
		SessionID:   &session.ID,
	})

	if patientErr != nil {
		return patientErr
	}
	return therapistErr
}

// SessionStatusChanged notifies both parties about a status transition.
func (d *Dispatcher) SessionStatusChanged(ctx context.Context, session *models.TherapySession, previous models.SessionStatus) error {
	kind := models.NotifySessionStatus
	if session.Status == models.SessionCancelled {
		kind = models.NotifySessionCancelled
	}
	when := session.ScheduledAt.UTC().Format(displayTimeLayout)
	body := fmt.Sprintf("The session scheduled for %s is now %s.", when, session.Status)

	patientErr := d.create(ctx, models.Notification{
		RecipientID: session.PatientID,
		Kind:        kind,
		Title:       "Session updated",
		Body:        body,
		SessionID:   &session.ID,
	})
	therapistErr := d.create(ctx, models.Notification{
		RecipientID: session.TherapistID,
		Kind:        kind,
		Title:       "Session updated",
		Body:        body,
		SessionID:   &session.ID,
	})

	if patientErr != nil {
		return patientErr
	}
	return therapistErr
}

func (d *Dispatcher) create(ctx context.Context, n models.Notification) error {
	if err := d.db.WithContext(ctx).Create(&n).Error; err != nil {
		d.logger.Warn("failed to create notification",
			zap.String("recipientId", n.RecipientID),
			zap.String("kind", string(n.Kind)),
			zap.Error(err))
		return err
	}
	return nil
}
