package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/livekit/protocol/livekit"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/workbridge/calling/pkg/internal/database"
	"github.com/workbridge/calling/pkg/internal/models"
	"github.com/workbridge/calling/pkg/internal/services"
)

type stubRoomProvider struct{}

func (stubRoomProvider) CreateRoom(ctx context.Context, config services.RoomConfig) (services.Room, error) {
	return services.Room{
		Name: config.Name,
		URL:  "https://rooms.test/" + config.Name,
	}, nil
}

func (stubRoomProvider) DeleteRoom(ctx context.Context, name string) error {
	return nil
}

func (stubRoomProvider) IssueToken(room string, identity string, name string, owner bool) (string, error) {
	return "token-" + identity, nil
}

func (stubRoomProvider) ListParticipants(ctx context.Context, room string) ([]*livekit.ParticipantInfo, error) {
	return nil, nil
}

type apiFixture struct {
	app *fiber.App

	client     models.Account
	freelancer models.Account
	outsider   models.Account
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigration(db))
	database.C = db

	viper.Set("security.jwt_secret", "test-secret")

	fixture := &apiFixture{
		client:     models.Account{Name: "acme-ops", Nick: "Acme Ops", Email: "ops@acme.test"},
		freelancer: models.Account{Name: "jane", Nick: "Jane Doe", Email: "jane@doe.test"},
		outsider:   models.Account{Name: "mallory", Nick: "Mallory", Email: "mallory@evil.test"},
	}
	require.NoError(t, db.Create(&fixture.client).Error)
	require.NoError(t, db.Create(&fixture.freelancer).Error)
	require.NoError(t, db.Create(&fixture.outsider).Error)

	workspace := models.Workspace{Alias: "acme-jane", Name: "Acme x Jane"}
	require.NoError(t, db.Create(&workspace).Error)
	require.NoError(t, db.Create(&models.WorkspaceMember{
		WorkspaceID: workspace.ID,
		AccountID:   fixture.client.ID,
		Role:        models.MemberRoleClient,
	}).Error)
	require.NoError(t, db.Create(&models.WorkspaceMember{
		WorkspaceID: workspace.ID,
		AccountID:   fixture.freelancer.ID,
		Role:        models.MemberRoleFreelancer,
	}).Error)

	fixture.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	MapAPIs(fixture.app, "/api", services.NewCallService(db, stubRoomProvider{}, nil))

	return fixture
}

func (f *apiFixture) tokenFor(t *testing.T, account models.Account) string {
	t.Helper()
	tk, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprint(account.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tk
}

func (f *apiFixture) request(t *testing.T, method, target, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if len(token) > 0 {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestAuthMiddlewareRejections(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodGet, "/api/workspaces/acme-jane/calls", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.request(t, http.MethodGet, "/api/workspaces/acme-jane/calls", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWorkspaceAccessHidden(t *testing.T) {
	f := newAPIFixture(t)

	// A non-member and a missing workspace look identical.
	resp := f.request(t, http.MethodGet, "/api/workspaces/acme-jane/calls", f.tokenFor(t, f.outsider), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.request(t, http.MethodGet, "/api/workspaces/no-such-alias/calls", f.tokenFor(t, f.client), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScheduleCallOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodPost, "/api/workspaces/acme-jane/calls", f.tokenFor(t, f.client), fiber.Map{
		"title":            "Kickoff",
		"scheduled_at":     time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"duration_minutes": 45,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Call        models.Call `json:"call"`
		AccessToken string      `json:"access_token"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, models.CallStatusScheduled, body.Call.Status)
	assert.Equal(t, 45, body.Call.DurationMinutes)
	assert.Equal(t, "token-"+f.client.Name, body.AccessToken)

	// Missing scheduled_at fails validation.
	resp = f.request(t, http.MethodPost, "/api/workspaces/acme-jane/calls", f.tokenFor(t, f.client), fiber.Map{
		"title": "No time",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCallVisibilityOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodPost, "/api/workspaces/acme-jane/calls", f.tokenFor(t, f.client), fiber.Map{
		"scheduled_at": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created struct {
		Call models.Call `json:"call"`
	}
	decodeBody(t, resp, &created)

	target := fmt.Sprintf("/api/calls/%d", created.Call.ID)
	resp = f.request(t, http.MethodGet, target, f.tokenFor(t, f.freelancer), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.request(t, http.MethodGet, target, f.tokenFor(t, f.outsider), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCallLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodPost, "/api/workspaces/acme-jane/calls/instant", f.tokenFor(t, f.freelancer), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created struct {
		Call models.Call `json:"call"`
	}
	decodeBody(t, resp, &created)
	assert.Equal(t, models.CallStatusInProgress, created.Call.Status)
	assert.True(t, created.Call.IsInstant)

	target := fmt.Sprintf("/api/calls/%d/end", created.Call.ID)
	resp = f.request(t, http.MethodPost, target, f.tokenFor(t, f.client), fiber.Map{
		"notes": "wrapped up",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ended models.Call
	decodeBody(t, resp, &ended)
	assert.Equal(t, models.CallStatusCompleted, ended.Status)
	assert.Equal(t, "wrapped up", ended.Notes)

	// Ending twice is an illegal transition.
	resp = f.request(t, http.MethodPost, target, f.tokenFor(t, f.client), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListCallsEnvelope(t *testing.T) {
	f := newAPIFixture(t)

	for i := 0; i < 3; i++ {
		resp := f.request(t, http.MethodPost, "/api/workspaces/acme-jane/calls", f.tokenFor(t, f.client), fiber.Map{
			"title":        fmt.Sprintf("call-%d", i),
			"scheduled_at": time.Now().Add(time.Duration(i+1) * time.Hour).Format(time.RFC3339),
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := f.request(t, http.MethodGet, "/api/workspaces/acme-jane/calls?page=1&page_size=2", f.tokenFor(t, f.freelancer), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Count    int64         `json:"count"`
		Page     int           `json:"page"`
		PageSize int           `json:"page_size"`
		Data     []models.Call `json:"data"`
	}
	decodeBody(t, resp, &body)
	assert.EqualValues(t, 3, body.Count)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 2, body.PageSize)
	assert.Len(t, body.Data, 2)
	assert.Equal(t, "call-2", body.Data[0].Title)
}
