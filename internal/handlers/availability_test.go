package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"sparks-server/internal/handlers"
	"sparks-server/internal/models"
	"sparks-server/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

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

// authAs stands in for AuthMiddleware, seeding the context the way a
// validated token would.
func authAs(userID string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("userRole", role)
	}
}

func performJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func newAvailabilityRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gdb, mock := newMockDB(t)
	h := handlers.NewAvailabilityHandler(gdb, store.NewAvailabilityStore(gdb))

	r := gin.New()
	r.POST("/availability/bulk", authAs("T1", models.RoleTherapist), h.BulkAdd)
	return r, mock
}

func bulkAddBody() gin.H {
	return gin.H{
		"startDate":      "2025-10-06",
		"endDate":        "2025-10-06",
		"startTime":      "09:00",
		"endTime":        "12:00",
		"recurrenceType": "None",
	}
}

func TestBulkAddCreatesSlots(t *testing.T) {
	router, mock := newAvailabilityRouter(t)

	// no existing slots in the window
	mock.ExpectQuery("SELECT (.+) FROM `availability_slots`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "therapist_id", "date", "start_time"}))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `availability_slots`").
		WillReturnResult(sqlmock.NewResult(1, 3))
	mock.ExpectCommit()

	w := performJSON(t, router, http.MethodPost, "/availability/bulk", bulkAddBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["slotsCreated"]) // 09:00, 10:00, 11:00
	assert.Equal(t, "2025-10-06", data["startDate"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkAddConflictReportTruncatesExamples(t *testing.T) {
	router, mock := newAvailabilityRouter(t)

	// 09:00/10:00/11:00 already exist on the first two days of the window
	rows := sqlmock.NewRows([]string{"id", "therapist_id", "date", "start_time", "is_booked"})
	for i, day := range []time.Time{
		time.Date(2025, time.October, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.October, 7, 0, 0, 0, 0, time.UTC),
	} {
		for j, start := range []string{"09:00", "10:00", "11:00"} {
			rows.AddRow(fmt.Sprintf("slot-%d", i*3+j+1), "T1", day, start, false)
		}
	}
	mock.ExpectQuery("SELECT (.+) FROM `availability_slots`").WillReturnRows(rows)

	body := bulkAddBody()
	body["endDate"] = "2025-10-12"
	body["recurrenceType"] = "Daily"
	w := performJSON(t, router, http.MethodPost, "/availability/bulk", body)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(6), data["total"])
	examples := data["examples"].([]interface{})
	assert.Len(t, examples, 5)
	first := examples[0].(map[string]interface{})
	assert.Equal(t, "2025-10-06", first["date"])
	assert.Equal(t, "09:00", first["startTime"])

	// a single collision rejects the batch: no insert may run
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkAddRejectsUnknownRecurrence(t *testing.T) {
	router, mock := newAvailabilityRouter(t)

	body := bulkAddBody()
	body["recurrenceType"] = "Fortnightly"
	w := performJSON(t, router, http.MethodPost, "/availability/bulk", body)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkAddRejectsWindowTooSmall(t *testing.T) {
	router, mock := newAvailabilityRouter(t)

	// snapping 09:30 forward to 10:00 leaves no room before 09:45
	body := bulkAddBody()
	body["startTime"] = "09:30"
	body["endTime"] = "09:45"
	w := performJSON(t, router, http.MethodPost, "/availability/bulk", body)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}
