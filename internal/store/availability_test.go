package store_test

import (
	"context"
	"testing"
	"time"

	"sparks-server/internal/models"
	"sparks-server/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return gdb, mock
}

func TestFindOpenSlot(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := store.NewAvailabilityStore(gdb)

	day := time.Date(2025, time.October, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM `availability_slots`").
		WithArgs("T1", day, day.AddDate(0, 0, 1), "10:00", false, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "therapist_id", "date", "start_time", "is_booked", "is_free"}).
			AddRow("slot-1", "T1", day, "10:00", false, false))

	slot, err := s.FindOpenSlot(context.Background(), "T1", day, "10:00")
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, "slot-1", slot.ID)
	assert.False(t, slot.IsBooked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOpenSlotStripsTimeOfDay(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := store.NewAvailabilityStore(gdb)

	day := time.Date(2025, time.October, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM `availability_slots`").
		WithArgs("T1", day, day.AddDate(0, 0, 1), "10:00", false, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("slot-1"))

	// a date carrying 13:45 must still query the midnight-based range
	at := time.Date(2025, time.October, 8, 13, 45, 0, 0, time.UTC)
	slot, err := s.FindOpenSlot(context.Background(), "T1", at, "10:00")
	require.NoError(t, err)
	require.NotNil(t, slot)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOpenSlotMissing(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := store.NewAvailabilityStore(gdb)

	mock.ExpectQuery("SELECT (.+) FROM `availability_slots`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	slot, err := s.FindOpenSlot(context.Background(), "T1", time.Now(), "10:00")
	require.NoError(t, err)
	assert.Nil(t, slot)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertAllOrNothing(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := store.NewAvailabilityStore(gdb)

	day := time.Date(2025, time.October, 8, 0, 0, 0, 0, time.UTC)
	slots := []models.AvailabilitySlot{
		{TherapistID: "T1", Date: day, StartTime: "09:00"},
		{TherapistID: "T1", Date: day, StartTime: "10:00"},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `availability_slots`").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, s.BulkInsert(context.Background(), slots))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertRollsBackOnFailure(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := store.NewAvailabilityStore(gdb)

	day := time.Date(2025, time.October, 8, 0, 0, 0, 0, time.UTC)
	slots := []models.AvailabilitySlot{{TherapistID: "T1", Date: day, StartTime: "09:00"}}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `availability_slots`").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	require.Error(t, s.BulkInsert(context.Background(), slots))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertEmpty(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := store.NewAvailabilityStore(gdb)

	require.NoError(t, s.BulkInsert(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimWinsWhenUnbooked(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := store.NewAvailabilityStore(gdb)

	mock.ExpectExec("UPDATE `availability_slots`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	claimed, err := s.Claim(gdb, "slot-1")
	require.NoError(t, err)
	assert.True(t, claimed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimLosesRace(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := store.NewAvailabilityStore(gdb)

	// zero affected rows: a concurrent request already flipped the flag
	mock.ExpectExec("UPDATE `availability_slots`").
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := s.Claim(gdb, "slot-1")
	require.NoError(t, err)
	assert.False(t, claimed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelease(t *testing.T) {
	gdb, mock := newMockDB(t)
	s := store.NewAvailabilityStore(gdb)

	mock.ExpectExec("UPDATE `availability_slots`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	released, err := s.Release(gdb, "slot-1")
	require.NoError(t, err)
	assert.True(t, released)
	require.NoError(t, mock.ExpectationsWereMet())
}
