// contest/api/handler_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campusgo/go-services/contest/service"
	"github.com/campusgo/go-services/contest/store"
	"github.com/campusgo/go-services/shared/api"
	"github.com/campusgo/go-services/shared/models"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

// Minimal in-memory stores for exercising the HTTP surface end to end.

type memUserStore struct{ users map[string]models.User }

func (ms *memUserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := ms.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := u
	return &cp, nil
}

func (ms *memUserStore) UpdateUserLastBattle(ctx context.Context, id string, at time.Time) error {
	u, ok := ms.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.LastBattle = &at
	ms.users[id] = u
	return nil
}

type memLocationStore struct{ locs map[int64]models.Location }

func (ms *memLocationStore) GetLocationByID(ctx context.Context, id int64) (*models.Location, error) {
	l, ok := ms.locs[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := l
	return &cp, nil
}

func (ms *memLocationStore) ListLocations(ctx context.Context) ([]models.Location, error) {
	out := make([]models.Location, 0, len(ms.locs))
	for _, l := range ms.locs {
		out = append(out, l)
	}
	return out, nil
}

func (ms *memLocationStore) CreateLocation(ctx context.Context, loc *models.Location) (*models.Location, error) {
	loc.ID = int64(len(ms.locs) + 1)
	ms.locs[loc.ID] = *loc
	return loc, nil
}

func (ms *memLocationStore) CaptureLocation(ctx context.Context, id int64, teamID int64, winnerID string, capturedAt time.Time, prevOwnerTeam *int64, prevOwnedSince *time.Time) error {
	l, ok := ms.locs[id]
	if !ok {
		return store.ErrOwnershipConflict
	}
	l.OwnerTeam = &teamID
	l.OwnerCount = 1
	l.OwnedSince = &capturedAt
	l.StrongestOwnerID = &winnerID
	ms.locs[id] = l
	return nil
}

func (ms *memLocationStore) ReinforceLocation(ctx context.Context, id int64, teamID int64, prevStrongestID *string, newStrongestID *string) error {
	l := ms.locs[id]
	l.OwnerCount++
	if newStrongestID != nil {
		l.StrongestOwnerID = newStrongestID
	}
	ms.locs[id] = l
	return nil
}

type memTeamStore struct{ teams map[int64]models.Team }

func (ms *memTeamStore) GetTeamByID(ctx context.Context, id int64) (*models.Team, error) {
	t, ok := ms.teams[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := t
	return &cp, nil
}

func (ms *memTeamStore) GetAllTeams(ctx context.Context) ([]models.Team, error) {
	out := make([]models.Team, 0, len(ms.teams))
	for _, t := range ms.teams {
		out = append(out, t)
	}
	return out, nil
}

func i64(v int64) *int64    { return &v }
func strp(s string) *string { return &s }

func newTestRouter(t *testing.T) (*mux.Router, *memLocationStore) {
	t.Helper()

	teamA := int64(1)
	users := &memUserStore{users: map[string]models.User{
		"u-1": {ID: "u-1", Username: "alice", Team: &teamA, Strength: 2},
		"u-9": {ID: "u-9", Username: "nina"},
	}}
	defended := time.Date(2025, 3, 30, 8, 0, 0, 0, time.UTC)
	locs := &memLocationStore{locs: map[int64]models.Location{
		10: {ID: 10, Name: "Fence"},
		11: {ID: 11, Name: "Gates", OwnerTeam: i64(2), OwnerCount: 1, OwnedSince: &defended, StrongestOwnerID: strp("u-strong")},
	}}
	teams := &memTeamStore{teams: map[int64]models.Team{
		1: {ID: 1, Name: "MCS", Color: "#FF6B6B", Points: 10},
		2: {ID: 2, Name: "CIT", Color: "#4ECDC4", Points: 30},
	}}

	clock := clockwork.NewFakeClockAt(time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC))
	handlers := NewContestAPIHandlers(
		service.NewContestService(users, locs, clock),
		service.NewLocationService(locs, teams, clock, 5*time.Minute),
		service.NewTeamService(teams),
	)

	router := mux.NewRouter()
	// Stand-in auth that trusts an X-Test-User header, so handler behavior
	// can be tested apart from JWT verification.
	auth := mux.MiddlewareFunc(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := r.Header.Get("X-Test-User"); user != "" {
				r = api.WithCallerID(r, user)
			}
			next.ServeHTTP(w, r)
		})
	})
	handlers.RegisterRoutes(router, auth)
	return router, locs
}

func postJSON(t *testing.T, router *mux.Router, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleBattleWin(t *testing.T) {
	router, locs := newTestRouter(t)

	rec := postJSON(t, router, "/interactions/battle", "u-1", map[string]any{"id": 10, "score": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp BattleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "win", resp.Message)

	loc := locs.locs[10]
	require.NotNil(t, loc.OwnerTeam)
	assert.Equal(t, int64(1), *loc.OwnerTeam)
}

func TestHandleBattleValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/interactions/battle", "", map[string]any{"id": 10, "score": 5})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "no caller identity")

	rec = postJSON(t, router, "/interactions/battle", "u-1", map[string]any{"score": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing location id")

	rec = postJSON(t, router, "/interactions/battle", "u-1", map[string]any{"id": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing score")

	rec = postJSON(t, router, "/interactions/battle", "u-404", map[string]any{"id": 10, "score": 5})
	assert.Equal(t, http.StatusNotFound, rec.Code, "unknown user")

	rec = postJSON(t, router, "/interactions/battle", "u-1", map[string]any{"id": 99, "score": 5})
	assert.Equal(t, http.StatusNotFound, rec.Code, "unknown location")

	rec = postJSON(t, router, "/interactions/battle", "u-9", map[string]any{"id": 10, "score": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "teamless user")
}

func TestHandleBecomeOwnerForbiddenForNonOwningTeam(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/interactions/become_owner", "u-1", map[string]any{"id": 11})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleListLocations(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/locations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LocationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	for _, view := range resp.Locations {
		if view.ID == 11 {
			assert.Equal(t, "CIT", view.OwnerTeamName)
			assert.True(t, view.CanJoin)
		}
	}
}

func TestHandleCreateLocation(t *testing.T) {
	router, locs := newTestRouter(t)

	rec := postJSON(t, router, "/locations", "", map[string]any{
		"name": "Mall", "image_url": "https://img/mall.png", "latitude": 40.44, "longitude": -79.94,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, locs.locs, 3)

	rec = postJSON(t, router, "/locations", "", map[string]any{"name": "NoCoords"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetTeam(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/teams/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Team models.Team `json:"team"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CIT", resp.Team.Name)

	req = httptest.NewRequest(http.MethodGet, "/teams/42", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
