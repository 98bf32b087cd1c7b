package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"TaskPilotGo/middleware"
	"TaskPilotGo/models"
	"TaskPilotGo/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func TestRespondErrorMapsStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", services.NewValidationError(map[string]string{"title": "is required"}), http.StatusUnprocessableEntity},
		{"forbidden", fmt.Errorf("wrap: %w", services.ErrForbidden), http.StatusForbidden},
		{"not found", fmt.Errorf("task 9: %w", services.ErrNotFound), http.StatusNotFound},
		{"store failure", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext(http.MethodGet, "/")
			respondError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	c, w := newContext(http.MethodGet, "/")
	respondError(c, errors.New("dial tcp 10.0.0.5:3306: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
	assert.Len(t, c.Errors, 1)
}

func TestBindErrorUsesRequestFieldNames(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var got error
	r.POST("/", func(c *gin.Context) {
		var req models.ProjectRequest
		got = c.ShouldBindJSON(&req)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", stringsReader(`{"color":"#0123456789abcdef0"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Error(t, got)

	var ve *services.ValidationError
	require.True(t, errors.As(bindError(got), &ve))
	assert.Equal(t, "is required", ve.Fields["name"])
	assert.Equal(t, "may not be greater than 16 characters", ve.Fields["color"])
}

func TestBindErrorTypeMismatch(t *testing.T) {
	var req models.BulkTaskRequest
	err := json.Unmarshal([]byte(`{"ids":"one"}`), &req)
	require.Error(t, err)

	var ve *services.ValidationError
	require.True(t, errors.As(bindError(err), &ve))
	assert.Equal(t, "is invalid", ve.Fields["ids"])
}

func TestBindErrorMalformedQueryNumbers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var got error
	r.GET("/", func(c *gin.Context) {
		var req models.ListTasksRequest
		got = c.ShouldBindQuery(&req)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?per_page=abc&page=2.5&project_id=x&assignee_id=-1", nil))
	require.Error(t, got)

	var ve *services.ValidationError
	require.True(t, errors.As(bindError(got), &ve))
	assert.Equal(t, map[string]string{
		"per_page":    "must be an integer",
		"page":        "must be an integer",
		"project_id":  "is invalid",
		"assignee_id": "is invalid",
	}, ve.Fields)
	assert.NotContains(t, got.Error(), "strconv")
}

func TestBindErrorHidesUnknownErrors(t *testing.T) {
	var ve *services.ValidationError
	require.True(t, errors.As(bindError(errors.New("strconv.ParseInt: parsing \"abc\": invalid syntax")), &ve))
	assert.Equal(t, map[string]string{"request": "is invalid"}, ve.Fields)
}

func TestBindErrorParamError(t *testing.T) {
	var ve *services.ValidationError
	require.True(t, errors.As(bindError(&models.ParamError{Field: "entity_id", Message: "is invalid"}), &ve))
	assert.Equal(t, map[string]string{"entity_id": "is invalid"}, ve.Fields)
}

func TestFieldKey(t *testing.T) {
	assert.Equal(t, "labels.0", fieldKey("labels[0]"))
	assert.Equal(t, "title", fieldKey("title"))
}

func TestPathID(t *testing.T) {
	c, w := newContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: "0"}}
	_, ok := pathID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, _ = newContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: "12"}}
	id, ok := pathID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, uint(12), id)
}

func TestCurrentActorRequiresUID(t *testing.T) {
	c, w := newContext(http.MethodGet, "/")
	_, ok := currentActor(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, _ = newContext(http.MethodGet, "/")
	c.Request.Header.Set("User-Agent", "unit")
	c.Set(middleware.UIDKey, uint(3))
	actor, ok := currentActor(c)
	require.True(t, ok)
	assert.Equal(t, uint(3), actor.UserID)
	assert.Equal(t, "unit", actor.UserAgent)
}

type failingFlashStore struct{}

func (failingFlashStore) Put(context.Context, uint, models.Flash) error {
	return errors.New("redis down")
}

func (failingFlashStore) Pop(context.Context, uint) (*models.Flash, error) {
	return nil, errors.New("redis down")
}

func TestFlasherToleratesStoreFailure(t *testing.T) {
	f := flasher{store: failingFlashStore{}}

	c, _ := newContext(http.MethodPost, "/")
	flash := f.success(c, 1, "saved")
	require.NotNil(t, flash)
	assert.Equal(t, services.FlashSuccess, flash.Type)
	assert.Nil(t, f.pop(c, 1))

	c, w := newContext(http.MethodPost, "/")
	f.fail(c, 1, services.ErrForbidden)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func stringsReader(s string) *bytes.Reader {
	return bytes.NewReader([]byte(s))
}
