package store

import (
	"context"
	"errors"
	"time"

	"sparks-server/internal/models"
	"sparks-server/internal/scheduling"

	"gorm.io/gorm"
)

// AvailabilityStore persists and mutates availability slots. Claim and
// Release are conditional updates; callers branch on the rows-affected
// result instead of taking explicit locks.
type AvailabilityStore struct {
	db *gorm.DB
}

// NewAvailabilityStore creates a new AvailabilityStore.
func NewAvailabilityStore(db *gorm.DB) *AvailabilityStore {
	return &AvailabilityStore{db: db}
}

// FindOpenSlot returns the unique unbooked slot for the therapist at the
// given date and start time, or nil when no such slot exists. The date
// match uses a half-open [startOfDay, startOfNextDay) range so stored
// timestamps with any time-of-day precision still match.
func (s *AvailabilityStore) FindOpenSlot(ctx context.Context, therapistID string, date time.Time, startTime string) (*models.AvailabilitySlot, error) {
	day := scheduling.NormalizeDate(date)
	next := day.AddDate(0, 0, 1)

	var slot models.AvailabilitySlot
	err := s.db.WithContext(ctx).
		Where("therapist_id = ? AND date >= ? AND date < ? AND start_time = ? AND is_booked = ?",
			therapistID, day, next, startTime, false).
		First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListForTherapist returns the therapist's slots with dates in the
// half-open [from, to+1day) range, ordered by date then start time.
// When openOnly is set, booked slots are filtered out.
func (s *AvailabilityStore) ListForTherapist(ctx context.Context, therapistID string, from, to time.Time, openOnly bool) ([]models.AvailabilitySlot, error) {
	query := s.db.WithContext(ctx).
		Where("therapist_id = ? AND date >= ? AND date < ?",
			therapistID, scheduling.NormalizeDate(from), scheduling.NormalizeDate(to).AddDate(0, 0, 1)).
		Order("date asc, start_time asc")
	if openOnly {
		query = query.Where("is_booked = ?", false)
	}

	var slots []models.AvailabilitySlot
	if err := query.Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

// BulkInsert creates all slots in a single transaction. Callers must
// run conflict detection first; any insert failure rolls back the whole
// batch.
func (s *AvailabilityStore) BulkInsert(ctx context.Context, slots []models.AvailabilitySlot) error {
	if len(slots) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&slots).Error
	})
}

// Claim flips is_booked to true only if it is currently false. The
// boolean result reports whether this caller won the slot; a false
// result means a concurrent booking got there first.
func (s *AvailabilityStore) Claim(db *gorm.DB, slotID string) (bool, error) {
	res := db.Model(&models.AvailabilitySlot{}).
		Where("id = ? AND is_booked = ?", slotID, false).
		Update("is_booked", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Release is the inverse conditional update, used when a scheduled
// session is cancelled and its slot becomes bookable again.
func (s *AvailabilityStore) Release(db *gorm.DB, slotID string) (bool, error) {
	res := db.Model(&models.AvailabilitySlot{}).
		Where("id = ? AND is_booked = ?", slotID, true).
		Update("is_booked", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DB exposes the underlying handle for callers that compose store
// operations into a larger transaction.
func (s *AvailabilityStore) DB() *gorm.DB {
	return s.db
}
