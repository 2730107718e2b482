package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"sparks-server/internal/booking"
	"sparks-server/internal/handlers"
	"sparks-server/internal/models"
	"sparks-server/internal/notify"
	"sparks-server/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testTherapistID = "b1a7c5de-93f2-4f8e-9c61-2d7a85e4f0b3"
	testChildID     = "7c2f91ab-4e3d-4b6a-8f5c-1d9e0a2b3c4d"
)

type stubProvisioner struct{}

func (stubProvisioner) ProvisionLink(ctx context.Context, session *models.TherapySession) (string, string, error) {
	return "https://meet.example.com/abc", "evt-1", nil
}

type stubNotifier struct{}

func (stubNotifier) SessionBooked(ctx context.Context, s *models.TherapySession) error {
	return nil
}

func (stubNotifier) SessionStatusChanged(ctx context.Context, s *models.TherapySession, prev models.SessionStatus) error {
	return nil
}

func newSessionRouter(t *testing.T, userID string, role models.Role) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gdb, mock := newMockDB(t)
	slots := store.NewAvailabilityStore(gdb)
	engine := booking.NewEngine(gdb, slots, stubProvisioner{}, stubNotifier{}, zap.NewNop(), "http://localhost:3001")
	h := handlers.NewSessionHandler(gdb, engine, notify.NewDispatcher(gdb, zap.NewNop()), zap.NewNop())

	r := gin.New()
	r.POST("/sessions/book", authAs(userID, role), h.BookSession)
	r.POST("/sessions/book-for-child", authAs(userID, role), h.BookSessionForChild)
	return r, mock
}

// expectBookingParties queues the therapist, therapist profile, patient
// and patient profile lookups in the order the engine issues them.
func expectBookingParties(mock sqlmock.Sqlmock, rate float64) {
	mock.ExpectQuery("SELECT (.+) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role"}).
			AddRow(testTherapistID, "therapist@example.com", "therapist"))
	mock.ExpectQuery("SELECT (.+) FROM `therapist_profiles`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "session_rate"}).
			AddRow("tp-1", testTherapistID, rate))
	mock.ExpectQuery("SELECT (.+) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role"}).
			AddRow("P1", "patient@example.com", "patient"))
	mock.ExpectQuery("SELECT (.+) FROM `patient_profiles`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "primary_therapist_id"}).
			AddRow("pp-1", "P1", testTherapistID))
}

func expectBookableSlot(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT (.+) FROM `availability_slots`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "therapist_id", "date", "start_time", "is_booked", "is_free"}).
			AddRow("slot-1", testTherapistID,
				time.Date(2025, time.October, 8, 0, 0, 0, 0, time.UTC), "10:00", false, false))
}

func bookBody() gin.H {
	return gin.H{
		"therapistId": testTherapistID,
		"date":        "2025-10-08",
		"timeSlot":    "10:00-10:45",
	}
}

func TestBookSessionSucceeds(t *testing.T) {
	router, mock := newSessionRouter(t, "P1", models.RolePatient)

	expectBookingParties(mock, 120)
	expectBookableSlot(mock)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `availability_slots`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `therapy_sessions`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := performJSON(t, router, http.MethodPost, "/sessions/book", bookBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "SCHEDULED", data["status"])
	assert.Equal(t, float64(45), data["duration"])
	assert.Equal(t, float64(120), data["bookedRate"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookSessionRejectsMalformedTimeSlot(t *testing.T) {
	router, mock := newSessionRouter(t, "P1", models.RolePatient)

	body := bookBody()
	body["timeSlot"] = "10:00"
	w := performJSON(t, router, http.MethodPost, "/sessions/book", body)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookSessionRejectsUnknownMeetingType(t *testing.T) {
	router, mock := newSessionRouter(t, "P1", models.RolePatient)

	body := bookBody()
	body["meetingType"] = "TELEPATHIC"
	w := performJSON(t, router, http.MethodPost, "/sessions/book", body)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookSessionUnknownTherapist(t *testing.T) {
	router, mock := newSessionRouter(t, "P1", models.RolePatient)

	mock.ExpectQuery("SELECT (.+) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := performJSON(t, router, http.MethodPost, "/sessions/book", bookBody())
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookSessionLosingRaceReturnsConflict(t *testing.T) {
	router, mock := newSessionRouter(t, "P1", models.RolePatient)

	expectBookingParties(mock, 120)
	expectBookableSlot(mock)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `availability_slots`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	w := performJSON(t, router, http.MethodPost, "/sessions/book", bookBody())
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookForChildUnlinkedChild(t *testing.T) {
	router, mock := newSessionRouter(t, "parent-1", models.RoleParent)

	// the child's profile names a different guardian
	mock.ExpectQuery("SELECT (.+) FROM `patient_profiles`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "guardian_id", "primary_therapist_id"}).
			AddRow("pp-1", testChildID, "other-parent", testTherapistID))

	w := performJSON(t, router, http.MethodPost, "/sessions/book-for-child", gin.H{
		"childId":  testChildID,
		"date":     "2025-10-08",
		"timeSlot": "10:00-10:45",
	})
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}
