package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mzati-dev/eduspace-portal-backend/internal/dto"
	"github.com/mzati-dev/eduspace-portal-backend/internal/middleware"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
)

type reportViewMock struct {
	report    *dto.StudentReport
	reportErr error
	rows      []dto.ClassResultRow
	rowsErr   error

	gotSchool  string
	gotTeacher string
}

func (m *reportViewMock) StudentReport(ctx context.Context, schoolID, studentID, term string) (*dto.StudentReport, error) {
	m.gotSchool = schoolID
	return m.report, m.reportErr
}

func (m *reportViewMock) ClassResults(ctx context.Context, schoolID, actingTeacherID, classID string) ([]dto.ClassResultRow, error) {
	m.gotSchool = schoolID
	m.gotTeacher = actingTeacherID
	return m.rows, m.rowsErr
}

type rankDispatchMock struct {
	dispatched [][3]string
}

func (m *rankDispatchMock) Dispatch(schoolID, classID, term string) {
	m.dispatched = append(m.dispatched, [3]string{schoolID, classID, term})
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func asActor(c *gin.Context, schoolID, teacherID string) {
	c.Set(middleware.ContextSchoolKey, schoolID)
	c.Set(middleware.ContextTeacherKey, teacherID)
}

func TestReportHandlerStudentReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &reportViewMock{report: &dto.StudentReport{StudentID: "stu-1", Name: "Amina"}}
	h := NewReportHandler(mock, &rankDispatchMock{})

	c, w := newGinContext(http.MethodGet, "/reports/students/stu-1?term=Term+1,+2025/2026", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	asActor(c, "school-1", "")

	h.StudentReport(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "school-1", mock.gotSchool)

	var envelope struct {
		Data dto.StudentReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "Amina", envelope.Data.Name)
}

func TestReportHandlerStudentReportRequiresTerm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewReportHandler(&reportViewMock{}, &rankDispatchMock{})

	c, w := newGinContext(http.MethodGet, "/reports/students/stu-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	asActor(c, "school-1", "")

	h.StudentReport(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerClassResultsPassesActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &reportViewMock{rows: []dto.ClassResultRow{{StudentID: "stu-1", Rank: 1}}}
	h := NewReportHandler(mock, &rankDispatchMock{})

	c, w := newGinContext(http.MethodGet, "/reports/classes/class-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "class-1"}}
	asActor(c, "school-1", "teach-1")

	h.ClassResults(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "school-1", mock.gotSchool)
	require.Equal(t, "teach-1", mock.gotTeacher)
}

func TestReportHandlerClassResultsForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &reportViewMock{rowsErr: appErrors.Clone(appErrors.ErrForbidden, "teacher is not assigned to this class")}
	h := NewReportHandler(mock, &rankDispatchMock{})

	c, w := newGinContext(http.MethodGet, "/reports/classes/class-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "class-1"}}
	asActor(c, "school-1", "teach-2")

	h.ClassResults(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestReportHandlerRecalculateRanksQueues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ranks := &rankDispatchMock{}
	h := NewReportHandler(&reportViewMock{}, ranks)

	payload, _ := json.Marshal(dto.RecalculateRanksRequest{ClassID: "class-1", Term: "Term 1, 2025/2026"})
	c, w := newGinContext(http.MethodPost, "/reports/ranks/recalculate", payload)
	asActor(c, "school-1", "")

	h.RecalculateRanks(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, ranks.dispatched, 1)
	require.Equal(t, [3]string{"school-1", "class-1", "Term 1, 2025/2026"}, ranks.dispatched[0])
}

func TestReportHandlerRecalculateRanksRejectsBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ranks := &rankDispatchMock{}
	h := NewReportHandler(&reportViewMock{}, ranks)

	c, w := newGinContext(http.MethodPost, "/reports/ranks/recalculate", []byte(`{"classId":""}`))
	asActor(c, "school-1", "")

	h.RecalculateRanks(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, ranks.dispatched)
}
