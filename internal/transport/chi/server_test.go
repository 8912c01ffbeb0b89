package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/urpick/urpick/internal/domain"
	healthuc "github.com/urpick/urpick/internal/usecase/health"
	profileuc "github.com/urpick/urpick/internal/usecase/profile"
	recommenduc "github.com/urpick/urpick/internal/usecase/recommend"
)

// --- Mocks ---

type mockRecommender struct {
	recommendFn func(ctx context.Context, req recommenduc.Request) (recommenduc.Result, error)
}

func (m *mockRecommender) Recommend(ctx context.Context, req recommenduc.Request) (recommenduc.Result, error) {
	if m.recommendFn != nil {
		return m.recommendFn(ctx, req)
	}
	return recommenduc.Result{Products: []domain.Product{}, Strategy: recommenduc.StrategyRuleBased}, nil
}

type mockProfiles struct {
	createFn      func(ctx context.Context) (domain.User, error)
	getFn         func(ctx context.Context, userID string) (profileuc.Profile, error)
	recordFn      func(ctx context.Context, swipe domain.Swipe) error
	listFn        func(ctx context.Context, userID string, action domain.SwipeAction, limit int) ([]domain.Swipe, error)
	updatePrefsFn func(ctx context.Context, userID string, update profileuc.PreferenceUpdate) (*domain.PreferenceProfile, error)
}

func (m *mockProfiles) CreateUser(ctx context.Context) (domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx)
	}
	return domain.User{ID: "user-1"}, nil
}

func (m *mockProfiles) GetUser(ctx context.Context, userID string) (profileuc.Profile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return profileuc.Profile{User: domain.User{ID: userID}}, nil
}

func (m *mockProfiles) RecordSwipe(ctx context.Context, swipe domain.Swipe) error {
	if m.recordFn != nil {
		return m.recordFn(ctx, swipe)
	}
	return nil
}

func (m *mockProfiles) ListSwipes(
	ctx context.Context, userID string, action domain.SwipeAction, limit int,
) ([]domain.Swipe, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, action, limit)
	}
	return nil, nil
}

func (m *mockProfiles) UpdatePreferences(
	ctx context.Context, userID string, update profileuc.PreferenceUpdate,
) (*domain.PreferenceProfile, error) {
	if m.updatePrefsFn != nil {
		return m.updatePrefsFn(ctx, userID, update)
	}
	return &domain.PreferenceProfile{}, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report {
	if m.report.Checks == nil {
		return healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK}}
	}
	return m.report
}

func newTestServer(t *testing.T) (*httptest.Server, *mockRecommender, *mockProfiles, *mockHealth) {
	t.Helper()
	recommender := &mockRecommender{}
	profiles := &mockProfiles{}
	health := &mockHealth{}

	s := NewServer(recommender, profiles, health, zap.NewNop())
	r := chirouter.NewRouter()
	s.Routes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, recommender, profiles, health
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

// --- Recommendations ---

func TestGetRecommendations(t *testing.T) {
	server, recommender, _, _ := newTestServer(t)

	var gotReq recommenduc.Request
	recommender.recommendFn = func(_ context.Context, req recommenduc.Request) (recommenduc.Result, error) {
		gotReq = req
		return recommenduc.Result{
			Products: []domain.Product{
				{ID: "rakuten_1", Name: "Earbuds", Price: 3980, Source: domain.SourceRakuten, RecommendReason: "良い商品"},
			},
			Strategy:       recommenduc.StrategyRuleBased,
			ProcessingTime: 150 * time.Millisecond,
		}, nil
	}

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/recommendations", map[string]any{
		"query":      "earbuds",
		"userId":     "user-1",
		"maxResults": 5,
		"minPrice":   1000,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if gotReq.Query != "earbuds" || gotReq.UserID != "user-1" || gotReq.MaxResults != 5 || gotReq.MinPrice != 1000 {
		t.Errorf("request not forwarded: %+v", gotReq)
	}

	if body["success"] != true {
		t.Errorf("expected success envelope: %v", body)
	}
	data := body["data"].(map[string]any)
	if data["strategy"] != "rule-based" {
		t.Errorf("unexpected strategy: %v", data["strategy"])
	}
	if data["count"].(float64) != 1 {
		t.Errorf("unexpected count: %v", data["count"])
	}
	meta := body["meta"].(map[string]any)
	if meta["processingTime"].(float64) != 150 {
		t.Errorf("unexpected processingTime: %v", meta["processingTime"])
	}
}

func TestGetRecommendations_ValidationError(t *testing.T) {
	server, recommender, _, _ := newTestServer(t)
	recommender.recommendFn = func(_ context.Context, _ recommenduc.Request) (recommenduc.Result, error) {
		return recommenduc.Result{}, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/recommendations", map[string]any{"query": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body["success"] != false {
		t.Errorf("expected failure envelope: %v", body)
	}
	errObj := body["error"].(map[string]any)
	if errObj["code"] != "VALIDATION_FAILED" {
		t.Errorf("unexpected code: %v", errObj["code"])
	}
}

func TestGetRecommendations_BadBody(t *testing.T) {
	server, _, _, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/recommendations",
		bytes.NewBufferString("{not json"))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// --- Users ---

func TestCreateUser(t *testing.T) {
	server, _, profiles, _ := newTestServer(t)
	profiles.createFn = func(_ context.Context) (domain.User, error) {
		return domain.User{ID: "abc-123"}, nil
	}

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/users", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	data := body["data"].(map[string]any)
	if data["userId"] != "abc-123" {
		t.Errorf("unexpected userId: %v", data["userId"])
	}
}

func TestGetUser(t *testing.T) {
	server, _, profiles, _ := newTestServer(t)
	profiles.getFn = func(_ context.Context, userID string) (profileuc.Profile, error) {
		return profileuc.Profile{
			User:       domain.User{ID: userID, CreatedAt: time.Now().UTC()},
			SwipeCount: 3,
			Preferences: &domain.PreferenceProfile{
				PriceRange: &domain.PriceRange{Min: 1000, Max: 5000},
			},
		}, nil
	}

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/users/user-9", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	data := body["data"].(map[string]any)
	if data["userId"] != "user-9" {
		t.Errorf("unexpected userId: %v", data["userId"])
	}
	if data["swipeCount"].(float64) != 3 {
		t.Errorf("unexpected swipeCount: %v", data["swipeCount"])
	}
	prefs := data["preferences"].(map[string]any)
	if prefs["preferredPriceRange"] == nil {
		t.Errorf("preferences not serialized: %v", prefs)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	server, _, profiles, _ := newTestServer(t)
	profiles.getFn = func(_ context.Context, userID string) (profileuc.Profile, error) {
		return profileuc.Profile{}, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/users/ghost", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	errObj := body["error"].(map[string]any)
	if errObj["code"] != "USER_NOT_FOUND" {
		t.Errorf("unexpected code: %v", errObj["code"])
	}
}

// --- Swipes ---

func TestRecordSwipe(t *testing.T) {
	server, _, profiles, _ := newTestServer(t)

	var recorded domain.Swipe
	profiles.recordFn = func(_ context.Context, swipe domain.Swipe) error {
		recorded = swipe
		return nil
	}

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/users/user-1/swipes", map[string]any{
		"productId":     "rakuten_1",
		"query":         "earbuds",
		"action":        "like",
		"productName":   "Earbuds Pro",
		"productPrice":  3980,
		"productSource": "rakuten",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if recorded.UserID != "user-1" || recorded.ProductID != "rakuten_1" || recorded.Action != domain.SwipeLike {
		t.Errorf("swipe not forwarded: %+v", recorded)
	}
}

func TestGetSwipes(t *testing.T) {
	server, _, profiles, _ := newTestServer(t)

	var gotAction domain.SwipeAction
	var gotLimit int
	profiles.listFn = func(_ context.Context, _ string, action domain.SwipeAction, limit int) ([]domain.Swipe, error) {
		gotAction, gotLimit = action, limit
		return []domain.Swipe{{ProductID: "p1", Action: domain.SwipeLike}}, nil
	}

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/users/user-1/swipes?action=like&limit=5", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if gotAction != domain.SwipeLike || gotLimit != 5 {
		t.Errorf("query params not forwarded: %s/%d", gotAction, gotLimit)
	}
	data := body["data"].(map[string]any)
	if data["count"].(float64) != 1 {
		t.Errorf("unexpected count: %v", data["count"])
	}
}

func TestGetSwipes_BadLimit(t *testing.T) {
	server, _, _, _ := newTestServer(t)
	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/users/user-1/swipes?limit=zero", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// --- Preferences ---

func TestUpdatePreferences(t *testing.T) {
	server, _, profiles, _ := newTestServer(t)

	var gotUpdate profileuc.PreferenceUpdate
	profiles.updatePrefsFn = func(
		_ context.Context, _ string, update profileuc.PreferenceUpdate,
	) (*domain.PreferenceProfile, error) {
		gotUpdate = update
		return &domain.PreferenceProfile{PriceRange: update.PriceRange}, nil
	}

	resp, body := doJSON(t, http.MethodPut, server.URL+"/api/users/user-1/preferences", map[string]any{
		"priceRange": map[string]int{"min": 1000, "max": 8000},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if gotUpdate.PriceRange == nil || gotUpdate.PriceRange.Max != 8000 {
		t.Errorf("update not forwarded: %+v", gotUpdate)
	}
	if gotUpdate.Categories != nil || gotUpdate.Brands != nil {
		t.Error("absent fields must stay nil")
	}
	if body["success"] != true {
		t.Errorf("expected success envelope: %v", body)
	}
}

func TestUpdatePreferences_EmptyBody(t *testing.T) {
	server, _, _, _ := newTestServer(t)
	resp, _ := doJSON(t, http.MethodPut, server.URL+"/api/users/user-1/preferences", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// --- Health ---

func TestHealthCheck(t *testing.T) {
	server, _, _, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected status body: %v", body)
	}
}

func TestHealthCheck_Degraded(t *testing.T) {
	server, _, _, health := newTestServer(t)
	health.report = healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError},
	}

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/health", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

// --- Error mapping ---

func TestInternalError(t *testing.T) {
	server, recommender, _, _ := newTestServer(t)
	recommender.recommendFn = func(_ context.Context, _ recommenduc.Request) (recommenduc.Result, error) {
		return recommenduc.Result{}, errors.New("boom")
	}

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/recommendations", map[string]any{"query": "x"})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	errObj := body["error"].(map[string]any)
	if errObj["message"] != "internal error" {
		t.Errorf("internal details must not leak: %v", errObj["message"])
	}
}
