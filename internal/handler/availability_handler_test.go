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

	"github.com/noah-isme/class-scheduler/internal/dto"
	"github.com/noah-isme/class-scheduler/internal/middleware"
	"github.com/noah-isme/class-scheduler/internal/models"
	appErrors "github.com/noah-isme/class-scheduler/pkg/errors"
)

type availabilityServiceMock struct {
	slots    []models.AvailabilitySlot
	saveErr  error
	saved    dto.SaveAvailabilityRequest
	rules    models.ReschedulingRules
	days     []models.ProjectedDay
	cacheHit bool
}

func (m *availabilityServiceMock) GetAvailability(ctx context.Context, professorID string) ([]models.AvailabilitySlot, error) {
	return m.slots, nil
}

func (m *availabilityServiceMock) SaveAvailability(ctx context.Context, professorID string, req dto.SaveAvailabilityRequest) ([]models.AvailabilitySlot, error) {
	m.saved = req
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	return m.slots, nil
}

func (m *availabilityServiceMock) GetRules(ctx context.Context, professorID string) (models.ReschedulingRules, error) {
	return m.rules, nil
}

func (m *availabilityServiceMock) UpdateRules(ctx context.Context, professorID string, req dto.UpdateRulesRequest) (models.ReschedulingRules, error) {
	return models.ReschedulingRules{
		MinAdvanceHours:        *req.MinAdvanceHours,
		MaxReschedulesPerWeek:  *req.MaxReschedulesPerWeek,
		MaxReschedulesPerMonth: *req.MaxReschedulesPerMonth,
	}, nil
}

func (m *availabilityServiceMock) BookableSlots(ctx context.Context, professorID string) ([]models.ProjectedDay, bool, error) {
	return m.days, m.cacheHit, nil
}

func newJSONContext(method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, _ := json.Marshal(v)
		reader = bytes.NewReader(raw)
	}
	req, _ := http.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func TestAvailabilityHandlerSaveInvalidBody(t *testing.T) {
	handler := NewAvailabilityHandler(&availabilityServiceMock{})
	c, w := newJSONContext(http.MethodPut, "/professors/prof-1/availability", `{"slots":`)
	c.Params = gin.Params{{Key: "id", Value: "prof-1"}}

	handler.SaveAvailability(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityHandlerSaveRendersConflictDetails(t *testing.T) {
	conflicts := []map[string]string{{"day": "Wednesday", "start": "10:00", "end": "11:00"}}
	svc := &availabilityServiceMock{
		saveErr: appErrors.WithDetails(appErrors.ErrConflictDetected, "", conflicts),
	}
	handler := NewAvailabilityHandler(svc)
	day := 3
	c, w := newJSONContext(http.MethodPut, "/professors/prof-1/availability", dto.SaveAvailabilityRequest{
		Slots: []dto.AvailabilitySlotInput{{DayOfWeek: &day, StartTime: "10:00", EndTime: "11:00", IsRecurring: true}},
	})
	c.Params = gin.Params{{Key: "id", Value: "prof-1"}}

	handler.SaveAvailability(c)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Len(t, svc.saved.Slots, 1)

	payload := decodeEnvelope(t, w)
	errBody := payload["error"].(map[string]interface{})
	assert.Equal(t, "CONFLICT_DETECTED", errBody["code"])
	assert.Len(t, errBody["details"], 1)
}

func TestAvailabilityHandlerUpdateRules(t *testing.T) {
	handler := NewAvailabilityHandler(&availabilityServiceMock{})
	c, w := newJSONContext(http.MethodPut, "/professors/prof-1/rules", map[string]int{
		"minAdvanceHours":        48,
		"maxReschedulesPerWeek":  2,
		"maxReschedulesPerMonth": 4,
	})
	c.Params = gin.Params{{Key: "id", Value: "prof-1"}}

	handler.UpdateRules(c)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.EqualValues(t, 48, data["min_advance_hours"])
}

func TestAvailabilityHandlerBookableSlotsReportsCacheHit(t *testing.T) {
	svc := &availabilityServiceMock{
		days:     []models.ProjectedDay{{Date: "2025-03-10"}},
		cacheHit: true,
	}
	handler := NewAvailabilityHandler(svc)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.WithResponseMeta())
	router.GET("/professors/:id/slots", handler.BookableSlots)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/professors/prof-1/slots", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	payload := decodeEnvelope(t, w)
	meta := payload["meta"].(map[string]interface{})
	assert.Equal(t, true, meta["cache_hit"])
	assert.Len(t, payload["data"], 1)
}
