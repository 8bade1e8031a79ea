package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edt-api/internal/dto"
	"github.com/noah-isme/edt-api/internal/middleware"
	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
)

type changeRequestServiceMock struct {
	submitResp  *models.ChangeRequest
	submitErr   error
	cancelErr   error
	listResp    []models.ChangeRequest
	listFilter  dto.ChangeRequestFilter
	approveResp *dto.ApproveResult
	approveErr  error
	rejectResp  *models.ChangeRequest
}

func (m *changeRequestServiceMock) Submit(ctx context.Context, claims *models.JWTClaims, req dto.SubmitChangeRequest) (*models.ChangeRequest, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return m.submitResp, nil
}

func (m *changeRequestServiceMock) Cancel(ctx context.Context, claims *models.JWTClaims, requestID string) error {
	return m.cancelErr
}

func (m *changeRequestServiceMock) List(ctx context.Context, filter dto.ChangeRequestFilter) ([]models.ChangeRequest, *models.Pagination, error) {
	m.listFilter = filter
	return m.listResp, nil, nil
}

func (m *changeRequestServiceMock) TeacherTimetable(ctx context.Context, teacherID string) (*dto.TeacherTimetableView, error) {
	return &dto.TeacherTimetableView{}, nil
}

func (m *changeRequestServiceMock) AdminVirtualTimetable(ctx context.Context) (*dto.VirtualTimetableView, error) {
	return &dto.VirtualTimetableView{}, nil
}

func (m *changeRequestServiceMock) Simulate(ctx context.Context, requestID string) (*dto.SimulationResult, error) {
	return &dto.SimulationResult{RequestID: requestID, Valid: true}, nil
}

func (m *changeRequestServiceMock) Approve(ctx context.Context, requestID, decidedBy string) (*dto.ApproveResult, error) {
	if m.approveErr != nil {
		return nil, m.approveErr
	}
	return m.approveResp, nil
}

func (m *changeRequestServiceMock) Reject(ctx context.Context, requestID, decidedBy, reason string) (*models.ChangeRequest, error) {
	return m.rejectResp, nil
}

func testContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestChangeRequestHandlerSubmit(t *testing.T) {
	mock := &changeRequestServiceMock{submitResp: &models.ChangeRequest{ID: "CR_1", Status: models.StatusPending}}
	h := NewChangeRequestHandler(mock)

	body, _ := json.Marshal(dto.SubmitChangeRequest{Type: models.RequestDelete, SessionID: "S1"})
	c, w := testContext(t, http.MethodPost, "/teacher/changes", body)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "F1", Role: models.RoleFormateur})

	h.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "CR_1")
}

func TestChangeRequestHandlerSubmitRequiresAuth(t *testing.T) {
	h := NewChangeRequestHandler(&changeRequestServiceMock{})
	c, w := testContext(t, http.MethodPost, "/teacher/changes", []byte(`{}`))

	h.Submit(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChangeRequestHandlerSubmitInvalidBody(t *testing.T) {
	h := NewChangeRequestHandler(&changeRequestServiceMock{})
	c, w := testContext(t, http.MethodPost, "/teacher/changes", []byte(`not json`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "F1", Role: models.RoleFormateur})

	h.Submit(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChangeRequestHandlerTeacherListScopesToCaller(t *testing.T) {
	mock := &changeRequestServiceMock{listResp: []models.ChangeRequest{}}
	h := NewChangeRequestHandler(mock)
	c, w := testContext(t, http.MethodGet, "/teacher/changes?status=pending", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "F1", Role: models.RoleFormateur})

	h.TeacherList(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "F1", mock.listFilter.TeacherID)
	require.Equal(t, models.StatusPending, mock.listFilter.Status)
}

func TestChangeRequestHandlerAdminListParsesPagination(t *testing.T) {
	mock := &changeRequestServiceMock{listResp: []models.ChangeRequest{}}
	h := NewChangeRequestHandler(mock)
	c, w := testContext(t, http.MethodGet, "/admin/changes?teacherId=F2&page=2&page_size=10", nil)

	h.AdminList(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "F2", mock.listFilter.TeacherID)
	require.Equal(t, 2, mock.listFilter.Page)
	require.Equal(t, 10, mock.listFilter.PageSize)
}

func TestChangeRequestHandlerApproveConflictStatus(t *testing.T) {
	mock := &changeRequestServiceMock{approveErr: appErrors.Clone(appErrors.ErrConstraintConflict, "room taken")}
	h := NewChangeRequestHandler(mock)
	c, w := testContext(t, http.MethodPost, "/admin/changes/CR_1/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "CR_1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})

	h.Approve(c)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "CONSTRAINT_CONFLICT")
}

func TestChangeRequestHandlerRejectToleratesEmptyBody(t *testing.T) {
	mock := &changeRequestServiceMock{rejectResp: &models.ChangeRequest{ID: "CR_1", Status: models.StatusRejected}}
	h := NewChangeRequestHandler(mock)
	c, w := testContext(t, http.MethodPost, "/admin/changes/CR_1/reject", nil)
	c.Params = gin.Params{{Key: "id", Value: "CR_1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})

	h.Reject(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "REJECTED")
}

func TestChangeRequestHandlerCancelNoContent(t *testing.T) {
	h := NewChangeRequestHandler(&changeRequestServiceMock{})
	c, w := testContext(t, http.MethodDelete, "/teacher/changes/CR_1", nil)
	c.Params = gin.Params{{Key: "id", Value: "CR_1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "F1", Role: models.RoleFormateur})

	h.Cancel(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
}
