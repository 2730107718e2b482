package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sparks-server/internal/models"
	"sparks-server/internal/scheduling"
	"sparks-server/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// MeetingProvisioner obtains a joinable URL for remote sessions.
// Implementations may fail; the engine degrades to a local fallback
// link instead of aborting the booking.
type MeetingProvisioner interface {
	ProvisionLink(ctx context.Context, session *models.TherapySession) (link string, eventID string, err error)
}

// Notifier creates in-app notifications for booking lifecycle events.
// Failures are logged and swallowed; they never affect the booking
// response.
type Notifier interface {
	SessionBooked(ctx context.Context, session *models.TherapySession) error
	SessionStatusChanged(ctx context.Context, session *models.TherapySession, previous models.SessionStatus) error
}

// Request carries one booking attempt. Date is an ISO date string and
// TimeSlot is "HH:MM-HH:MM"; only the slot start is used.
type Request struct {
	PatientID   string
	TherapistID string
	Date        string
	TimeSlot    string
	Type        string
	MeetingType models.MeetingType
}

// Engine implements the booking transaction: it atomically claims an
// availability slot and creates the therapy session, guaranteeing
// at-most-one booking per slot under concurrent requests.
type Engine struct {
	db       *gorm.DB
	slots    *store.AvailabilityStore
	meetings MeetingProvisioner
	notifier Notifier
	logger   *zap.Logger
	appURL   string
}

// NewEngine creates a booking engine.
func NewEngine(db *gorm.DB, slots *store.AvailabilityStore, meetings MeetingProvisioner, notifier Notifier, logger *zap.Logger, appURL string) *Engine {
	return &Engine{
		db:       db,
		slots:    slots,
		meetings: meetings,
		notifier: notifier,
		logger:   logger,
		appURL:   appURL,
	}
}

// Book runs the full protocol: resolve both parties, parse the
// requested instant, look up the open slot, then claim it and create
// the session in one transaction. The conditional claim converts a
// read-then-write race into first-writer-wins; the loser sees zero
// affected rows and fails with ErrSlotAlreadyBooked.
func (e *Engine) Book(ctx context.Context, req Request) (*models.TherapySession, error) {
	day, startTime, err := parseRequestedInstant(req.Date, req.TimeSlot)
	if err != nil {
		return nil, err
	}
	meetingType, err := normalizeMeetingType(req.MeetingType)
	if err != nil {
		return nil, err
	}

	var therapist models.User
	if err := e.db.WithContext(ctx).Where("id = ? AND role = ?", req.TherapistID, models.RoleTherapist).First(&therapist).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTherapistNotFound
		}
		return nil, err
	}

	var rate float64
	var therapistProfile models.TherapistProfile
	if err := e.db.WithContext(ctx).Where("user_id = ?", therapist.ID).First(&therapistProfile).Error; err == nil {
		rate = therapistProfile.SessionRate
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var patient models.User
	if err := e.db.WithContext(ctx).Where("id = ? AND role = ?", req.PatientID, models.RolePatient).First(&patient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	var patientProfile models.PatientProfile
	hasProfile := true
	if err := e.db.WithContext(ctx).Where("user_id = ?", patient.ID).First(&patientProfile).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		hasProfile = false
	}

	slot, err := e.slots.FindOpenSlot(ctx, therapist.ID, day, startTime)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, ErrSlotUnavailable
	}

	scheduledAt, err := scheduling.InstantUTC(day, startTime)
	if err != nil {
		return nil, invalidInput("%v", err)
	}

	price := rate
	if slot.IsFree {
		price = 0
	}

	sessionType := req.Type
	if sessionType == "" {
		sessionType = "Individual"
	}

	session := &models.TherapySession{
		PatientID:   patient.ID,
		TherapistID: therapist.ID,
		ScheduledAt: scheduledAt,
		Duration:    scheduling.SessionMinutes,
		Status:      models.SessionScheduled,
		Type:        sessionType,
		SessionType: meetingType,
		BookedRate:  price,
	}

	if meetingType == models.MeetingOnline || meetingType == models.MeetingHybrid {
		e.attachMeetingLink(ctx, session)
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimed, err := e.slots.Claim(tx, slot.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrSlotAlreadyBooked
		}

		// First-booking-wins: a patient with no primary therapist gets
		// the booked one assigned as part of the same unit of work. The
		// IS NULL guard keeps a concurrent first booking from
		// overwriting an assignment made after our read.
		if hasProfile && patientProfile.PrimaryTherapistID == nil {
			if err := tx.Model(&models.PatientProfile{}).
				Where("id = ? AND primary_therapist_id IS NULL", patientProfile.ID).
				Update("primary_therapist_id", therapist.ID).Error; err != nil {
				return err
			}
		} else if !hasProfile {
			profile := models.PatientProfile{UserID: patient.ID, PrimaryTherapistID: &therapist.ID}
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}
		}

		return tx.Create(session).Error
	})
	if err != nil {
		return nil, err
	}

	if err := e.notifier.SessionBooked(ctx, session); err != nil {
		e.logger.Warn("booking notification failed",
			zap.String("sessionId", session.ID), zap.Error(err))
	}

	e.logger.Info("session booked",
		zap.String("sessionId", session.ID),
		zap.String("therapistId", therapist.ID),
		zap.String("patientId", patient.ID),
		zap.Time("scheduledAt", scheduledAt))
	return session, nil
}

// ChildRequest is a parent-initiated booking; the therapist is resolved
// from the child's primary-therapist assignment.
type ChildRequest struct {
	ChildID     string
	Date        string
	TimeSlot    string
	Type        string
	MeetingType models.MeetingType
}

// BookForChild verifies the child belongs to the requesting guardian,
// resolves the child's assigned therapist and runs the same protocol
// as Book.
func (e *Engine) BookForChild(ctx context.Context, guardianID string, req ChildRequest) (*models.TherapySession, error) {
	var profile models.PatientProfile
	if err := e.db.WithContext(ctx).Where("user_id = ?", req.ChildID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChildNotFound
		}
		return nil, err
	}
	if profile.GuardianID == nil || *profile.GuardianID != guardianID {
		return nil, ErrChildNotFound
	}
	if profile.PrimaryTherapistID == nil {
		return nil, ErrTherapistNotFound
	}

	return e.Book(ctx, Request{
		PatientID:   req.ChildID,
		TherapistID: *profile.PrimaryTherapistID,
		Date:        req.Date,
		TimeSlot:    req.TimeSlot,
		Type:        req.Type,
		MeetingType: req.MeetingType,
	})
}

// Cancel marks a scheduled session cancelled and releases its slot in
// the same transaction, so the window becomes bookable again.
func (e *Engine) Cancel(ctx context.Context, session *models.TherapySession) error {
	previous := session.Status
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(session).Update("status", models.SessionCancelled).Error; err != nil {
			return err
		}

		day := scheduling.NormalizeDate(session.ScheduledAt)
		startTime := scheduling.FormatClock(session.ScheduledAt.UTC().Hour()*60 + session.ScheduledAt.UTC().Minute())

		var slot models.AvailabilitySlot
		err := tx.Where("therapist_id = ? AND date >= ? AND date < ? AND start_time = ?",
			session.TherapistID, day, day.AddDate(0, 0, 1), startTime).
			First(&slot).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// slot removed by an admin; nothing left to release
			return nil
		}
		if err != nil {
			return err
		}
		_, err = e.slots.Release(tx, slot.ID)
		return err
	})
	if err != nil {
		return err
	}
	session.Status = models.SessionCancelled

	if err := e.notifier.SessionStatusChanged(ctx, session, previous); err != nil {
		e.logger.Warn("cancel notification failed",
			zap.String("sessionId", session.ID), zap.Error(err))
	}
	return nil
}

// attachMeetingLink asks the provisioner for a joinable URL and falls
// back to a locally generated link when provisioning fails.
func (e *Engine) attachMeetingLink(ctx context.Context, session *models.TherapySession) {
	link, eventID, err := e.meetings.ProvisionLink(ctx, session)
	if err != nil {
		e.logger.Warn("meeting link provisioning failed, using fallback", zap.Error(err))
		fallback := e.FallbackLink()
		session.MeetingLink = &fallback
		return
	}
	session.MeetingLink = &link
	if eventID != "" {
		session.CalendarEventID = &eventID
	}
}

// FallbackLink generates the local placeholder meeting URL.
func (e *Engine) FallbackLink() string {
	return fmt.Sprintf("%s/meet/%s", strings.TrimSuffix(e.appURL, "/"), uuid.New().String())
}

func parseRequestedInstant(dateStr, timeSlot string) (time.Time, string, error) {
	if dateStr == "" || timeSlot == "" {
		return time.Time{}, "", invalidInput("date and timeSlot are required")
	}
	day, err := time.ParseInLocation(dateLayout, dateStr, time.UTC)
	if err != nil {
		return time.Time{}, "", invalidInput("invalid date %q: expected YYYY-MM-DD", dateStr)
	}
	startTime, err := scheduling.ParseTimeSlot(timeSlot)
	if err != nil {
		return time.Time{}, "", invalidInput("%v", err)
	}
	return day, startTime, nil
}

func normalizeMeetingType(mt models.MeetingType) (models.MeetingType, error) {
	switch mt {
	case "":
		return models.MeetingInPerson, nil
	case models.MeetingInPerson, models.MeetingOnline, models.MeetingHybrid:
		return mt, nil
	}
	return "", invalidInput("unknown meeting type %q", mt)
}
