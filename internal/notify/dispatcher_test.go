package notify_test

import (
	"context"
	"testing"
	"time"

	"sparks-server/internal/models"
	"sparks-server/internal/notify"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newDispatcher(t *testing.T) (*notify.Dispatcher, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return notify.NewDispatcher(gdb, zap.NewNop()), mock
}

func testSession() *models.TherapySession {
	return &models.TherapySession{
		BaseModel:   models.BaseModel{ID: "S1"},
		PatientID:   "P1",
		TherapistID: "T1",
		ScheduledAt: time.Date(2025, time.October, 8, 10, 0, 0, 0, time.UTC),
		Type:        "Individual",
		Status:      models.SessionScheduled,
	}
}

func TestSessionBookedNotifiesBothParties(t *testing.T) {
	d, mock := newDispatcher(t)

	mock.ExpectExec("INSERT INTO `notifications`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `notifications`").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, d.SessionBooked(context.Background(), testSession()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionBookedContinuesAfterFirstFailure(t *testing.T) {
	d, mock := newDispatcher(t)

	mock.ExpectExec("INSERT INTO `notifications`").
		WillReturnError(assert.AnError)
	mock.ExpectExec("INSERT INTO `notifications`").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := d.SessionBooked(context.Background(), testSession())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStatusChanged(t *testing.T) {
	d, mock := newDispatcher(t)

	mock.ExpectExec("INSERT INTO `notifications`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `notifications`").
		WillReturnResult(sqlmock.NewResult(1, 1))

	s := testSession()
	s.Status = models.SessionCancelled
	require.NoError(t, d.SessionStatusChanged(context.Background(), s, models.SessionScheduled))
	require.NoError(t, mock.ExpectationsWereMet())
}
