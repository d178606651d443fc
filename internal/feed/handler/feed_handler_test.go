package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/degen-feed/degen-feed/internal/domain/errors"
	"github.com/degen-feed/degen-feed/internal/domain/models"
	"github.com/degen-feed/degen-feed/internal/feed/auth"
	"github.com/degen-feed/degen-feed/internal/feed/handler"
	"github.com/degen-feed/degen-feed/internal/feed/service"
)

const testBotToken = "123456:test-token"

type stubTopicManager struct {
	topics     []*models.Topic
	err        error
	lastAdd    *service.AddTopicRequest
	refreshed  []int64
	deleted    []int64
	lastOrders []models.OrderUpdate
}

func (s *stubTopicManager) Add(_ context.Context, req *service.AddTopicRequest) (*models.Topic, error) {
	s.lastAdd = req

	if s.err != nil {
		return nil, s.err
	}

	return s.topics[0], nil
}

func (s *stubTopicManager) Refresh(_ context.Context, topicID, _ int64) (*models.Topic, error) {
	s.refreshed = append(s.refreshed, topicID)

	if s.err != nil {
		return nil, s.err
	}

	return s.topics[0], nil
}

func (s *stubTopicManager) Delete(_ context.Context, topicID, _ int64) error {
	s.deleted = append(s.deleted, topicID)

	return s.err
}

func (s *stubTopicManager) List(_ context.Context, _ int64) ([]*models.Topic, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.topics, nil
}

func (s *stubTopicManager) Reorder(_ context.Context, _, _, _ int64, _ models.ReorderPosition) ([]*models.Topic, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.topics, nil
}

func (s *stubTopicManager) ApplyOrders(_ context.Context, _ int64, orders []models.OrderUpdate) error {
	s.lastOrders = orders

	return s.err
}

type stubUserManager struct {
	user *models.User
	err  error
}

func (s *stubUserManager) Authenticate(_ context.Context, user *models.User) (*models.User, error) {
	if s.user != nil {
		return s.user, nil
	}

	return user, nil
}

func (s *stubUserManager) GetPreferences(_ context.Context, _ int64) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.user, nil
}

func (s *stubUserManager) UpdatePreferences(_ context.Context, _ int64, _ *service.PreferencesUpdate) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.user, nil
}

func signedInitData(t *testing.T, userID int64) string {
	t.Helper()

	values := url.Values{}
	values.Set("user", fmt.Sprintf(`{"id":%d,"first_name":"Ava","username":"ava"}`, userID))
	values.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	values.Set("hash", auth.Sign(values, testBotToken))

	return values.Encode()
}

func setupRouter(topics *stubTopicManager, users *stubUserManager) *gin.Engine {
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validator := auth.NewValidator(testBotToken, true, time.Hour)

	router := gin.New()
	h := handler.NewFeedHandler(topics, users, validator, logger)
	h.RegisterRoutes(router)

	return router
}

func doRequest(router *gin.Engine, method, path, initData, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if initData != "" {
		req.Header.Set("Authorization", "tma "+initData)
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	return recorder
}

func sampleTopic() *models.Topic {
	return &models.Topic{
		ID:             1,
		UserID:         7,
		Type:           models.TwitterTopic,
		Username:       "degen",
		DisplayName:    "degen",
		TwitterSummary: "summary",
		SummaryLength:  models.DetailedSummary,
		LastUpdated:    time.Now(),
	}
}

func TestFeedHandler_Health(t *testing.T) {
	router := setupRouter(&stubTopicManager{}, &stubUserManager{})

	recorder := doRequest(router, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())
}

func TestFeedHandler_Authenticate(t *testing.T) {
	users := &stubUserManager{user: &models.User{ID: 7, FirstName: "Ava", BriefTime: "09:00"}}
	router := setupRouter(&stubTopicManager{}, users)

	recorder := doRequest(router, http.MethodPost, "/api/auth", signedInitData(t, 7), "")

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, float64(7), resp["id"])
	assert.Equal(t, "09:00", resp["briefTime"])
}

func TestFeedHandler_AuthenticateBadSignature(t *testing.T) {
	router := setupRouter(&stubTopicManager{}, &stubUserManager{})

	values := url.Values{}
	values.Set("user", `{"id":7,"first_name":"Ava"}`)
	values.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	values.Set("hash", "deadbeef")

	recorder := doRequest(router, http.MethodPost, "/api/auth", values.Encode(), "")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestFeedHandler_RequiresAuth(t *testing.T) {
	router := setupRouter(&stubTopicManager{}, &stubUserManager{})

	recorder := doRequest(router, http.MethodGet, "/api/topics", "", "")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestFeedHandler_AddTopic(t *testing.T) {
	topics := &stubTopicManager{topics: []*models.Topic{sampleTopic()}}
	router := setupRouter(topics, &stubUserManager{})

	body := `{"type":"twitter","username":"degen","summaryLength":"detailed"}`
	recorder := doRequest(router, http.MethodPost, "/api/topics", signedInitData(t, 7), body)

	require.Equal(t, http.StatusCreated, recorder.Code)
	require.NotNil(t, topics.lastAdd)
	assert.Equal(t, int64(7), topics.lastAdd.UserID)
	assert.Equal(t, models.TwitterTopic, topics.lastAdd.Type)
	assert.Equal(t, "degen", topics.lastAdd.Username)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "degen", resp["displayName"])
	assert.Equal(t, "summary", resp["twitterSummary"])
}

func TestFeedHandler_AddTopicErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"duplicate", &domainerrors.ErrTopicAlreadyExists{Source: "degen"}, http.StatusConflict},
		{"missing field", &domainerrors.ErrMissingRequiredField{FieldName: "username"}, http.StatusUnprocessableEntity},
		{"invalid value", &domainerrors.ErrInvalidValue{FieldName: "type", Value: "rss"}, http.StatusUnprocessableEntity},
		{"source unavailable", &domainerrors.ErrSourceUnavailable{Platform: "twitter", Source: "degen"}, http.StatusBadGateway},
		{"not joinable", &domainerrors.ErrChannelNotJoinable{ChannelName: "secret"}, http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			topics := &stubTopicManager{err: tc.err, topics: []*models.Topic{sampleTopic()}}
			router := setupRouter(topics, &stubUserManager{})

			body := `{"type":"twitter","username":"degen"}`
			recorder := doRequest(router, http.MethodPost, "/api/topics", signedInitData(t, 7), body)

			assert.Equal(t, tc.status, recorder.Code)
		})
	}
}

func TestFeedHandler_ListTopics(t *testing.T) {
	topics := &stubTopicManager{topics: []*models.Topic{sampleTopic()}}
	router := setupRouter(topics, &stubUserManager{})

	recorder := doRequest(router, http.MethodGet, "/api/topics", signedInitData(t, 7), "")

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp struct {
		Topics []map[string]any `json:"topics"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Len(t, resp.Topics, 1)
	assert.Equal(t, "twitter", resp.Topics[0]["type"])
}

func TestFeedHandler_RefreshTopic(t *testing.T) {
	topics := &stubTopicManager{topics: []*models.Topic{sampleTopic()}}
	router := setupRouter(topics, &stubUserManager{})

	recorder := doRequest(router, http.MethodPost, "/api/topics/1/refresh", signedInitData(t, 7), "")

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []int64{1}, topics.refreshed)
}

func TestFeedHandler_RefreshConflict(t *testing.T) {
	topics := &stubTopicManager{err: &domainerrors.ErrRefreshInProgress{TopicID: 1}}
	router := setupRouter(topics, &stubUserManager{})

	recorder := doRequest(router, http.MethodPost, "/api/topics/1/refresh", signedInitData(t, 7), "")

	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestFeedHandler_RefreshBadID(t *testing.T) {
	router := setupRouter(&stubTopicManager{}, &stubUserManager{})

	recorder := doRequest(router, http.MethodPost, "/api/topics/abc/refresh", signedInitData(t, 7), "")

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestFeedHandler_DeleteTopic(t *testing.T) {
	topics := &stubTopicManager{}
	router := setupRouter(topics, &stubUserManager{})

	recorder := doRequest(router, http.MethodDelete, "/api/topics/5", signedInitData(t, 7), "")

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, []int64{5}, topics.deleted)
}

func TestFeedHandler_DeleteMissingTopic(t *testing.T) {
	topics := &stubTopicManager{err: &domainerrors.ErrTopicNotFound{TopicID: 5}}
	router := setupRouter(topics, &stubUserManager{})

	recorder := doRequest(router, http.MethodDelete, "/api/topics/5", signedInitData(t, 7), "")

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestFeedHandler_ReorderRelative(t *testing.T) {
	topics := &stubTopicManager{topics: []*models.Topic{sampleTopic()}}
	router := setupRouter(topics, &stubUserManager{})

	body := `{"movedId":3,"targetId":1,"position":"before"}`
	recorder := doRequest(router, http.MethodPut, "/api/topics/order", signedInitData(t, 7), body)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestFeedHandler_ReorderFullOrder(t *testing.T) {
	topics := &stubTopicManager{topics: []*models.Topic{sampleTopic()}}
	router := setupRouter(topics, &stubUserManager{})

	body := `{"order":[3,1,2]}`
	recorder := doRequest(router, http.MethodPut, "/api/topics/order", signedInitData(t, 7), body)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []models.OrderUpdate{
		{TopicID: 3, Order: 0},
		{TopicID: 1, Order: 1},
		{TopicID: 2, Order: 2},
	}, topics.lastOrders)
}

func TestFeedHandler_Preferences(t *testing.T) {
	users := &stubUserManager{user: &models.User{ID: 7, FirstName: "Ava", DarkMode: true, BriefTime: "21:00"}}
	router := setupRouter(&stubTopicManager{}, users)

	recorder := doRequest(router, http.MethodGet, "/api/preferences", signedInitData(t, 7), "")

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["darkMode"])
	assert.Equal(t, "21:00", resp["briefTime"])

	body := `{"briefTime":"22:15"}`
	recorder = doRequest(router, http.MethodPut, "/api/preferences", signedInitData(t, 7), body)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestFeedHandler_PreferencesInvalidTime(t *testing.T) {
	users := &stubUserManager{err: &domainerrors.ErrInvalidValue{FieldName: "briefTime", Value: "25:00"}}
	router := setupRouter(&stubTopicManager{}, users)

	body := `{"briefTime":"25:00"}`
	recorder := doRequest(router, http.MethodPut, "/api/preferences", signedInitData(t, 7), body)

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
}
