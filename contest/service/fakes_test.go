// contest/service/fakes_test.go
package service

import (
	"context"
	"sync"
	"time"

	"github.com/campusgo/go-services/contest/store"
	"github.com/campusgo/go-services/shared/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// In-memory stores backing the service tests. They mirror the conditional
// write semantics of the Mongo stores, including ErrOwnershipConflict on a
// mismatched ownership filter, so the race handling can be exercised without
// a database.

type fakeUserStore struct {
	mu               sync.Mutex
	users            map[string]models.User
	lastBattleWrites map[string]int
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	fs := &fakeUserStore{
		users:            make(map[string]models.User),
		lastBattleWrites: make(map[string]int),
	}
	for _, u := range users {
		fs.users[u.ID] = u
	}
	return fs
}

func (fs *fakeUserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	u, ok := fs.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := u
	return &cp, nil
}

func (fs *fakeUserStore) UpdateUserLastBattle(ctx context.Context, id string, at time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	u, ok := fs.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.LastBattle = &at
	fs.users[id] = u
	fs.lastBattleWrites[id]++
	return nil
}

func (fs *fakeUserStore) lastBattle(id string) *time.Time {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.users[id].LastBattle
}

func (fs *fakeUserStore) writes(id string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.lastBattleWrites[id]
}

type fakeLocationStore struct {
	mu   sync.Mutex
	locs map[int64]models.Location

	// beforeCapture, when set, runs inside the lock just before the capture
	// filter is evaluated. Tests use it to interleave a concurrent ownership
	// change deterministically.
	beforeCapture func(loc *models.Location)
}

func newFakeLocationStore(locs ...models.Location) *fakeLocationStore {
	fs := &fakeLocationStore{locs: make(map[int64]models.Location)}
	for _, l := range locs {
		fs.locs[l.ID] = l
	}
	return fs
}

func (fs *fakeLocationStore) get(id int64) models.Location {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.locs[id]
}

func (fs *fakeLocationStore) GetLocationByID(ctx context.Context, id int64) (*models.Location, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	l, ok := fs.locs[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := l
	return &cp, nil
}

func (fs *fakeLocationStore) ListLocations(ctx context.Context) ([]models.Location, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]models.Location, 0, len(fs.locs))
	for _, l := range fs.locs {
		out = append(out, l)
	}
	return out, nil
}

func (fs *fakeLocationStore) CreateLocation(ctx context.Context, loc *models.Location) (*models.Location, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	loc.ID = int64(len(fs.locs) + 1)
	fs.locs[loc.ID] = *loc
	return loc, nil
}

func (fs *fakeLocationStore) CaptureLocation(ctx context.Context, id int64, teamID int64, winnerID string, capturedAt time.Time, prevOwnerTeam *int64, prevOwnedSince *time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	l, ok := fs.locs[id]
	if !ok {
		return store.ErrOwnershipConflict
	}
	if fs.beforeCapture != nil {
		hook := fs.beforeCapture
		fs.beforeCapture = nil
		hook(&l)
		fs.locs[id] = l
	}
	if !int64PtrEq(l.OwnerTeam, prevOwnerTeam) || !timePtrEq(l.OwnedSince, prevOwnedSince) {
		return store.ErrOwnershipConflict
	}
	l.OwnerTeam = &teamID
	l.OwnerCount = 1
	l.OwnedSince = &capturedAt
	l.StrongestOwnerID = &winnerID
	fs.locs[id] = l
	return nil
}

func (fs *fakeLocationStore) ReinforceLocation(ctx context.Context, id int64, teamID int64, prevStrongestID *string, newStrongestID *string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	l, ok := fs.locs[id]
	if !ok {
		return store.ErrOwnershipConflict
	}
	if l.OwnerTeam == nil || *l.OwnerTeam != teamID || !strPtrEq(l.StrongestOwnerID, prevStrongestID) {
		return store.ErrOwnershipConflict
	}
	l.OwnerCount++
	if newStrongestID != nil {
		id := *newStrongestID
		l.StrongestOwnerID = &id
	}
	fs.locs[id] = l
	return nil
}

type fakeTeamStore struct {
	mu    sync.Mutex
	teams map[int64]models.Team
}

func newFakeTeamStore(teams ...models.Team) *fakeTeamStore {
	fs := &fakeTeamStore{teams: make(map[int64]models.Team)}
	for _, t := range teams {
		fs.teams[t.ID] = t
	}
	return fs
}

func (fs *fakeTeamStore) GetTeamByID(ctx context.Context, id int64) (*models.Team, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	t, ok := fs.teams[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := t
	return &cp, nil
}

func (fs *fakeTeamStore) GetAllTeams(ctx context.Context) ([]models.Team, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]models.Team, 0, len(fs.teams))
	for _, t := range fs.teams {
		out = append(out, t)
	}
	return out, nil
}

func int64Ptr(v int64) *int64          { return &v }
func strPtr(v string) *string          { return &v }
func timePtr(v time.Time) *time.Time   { return &v }

func int64PtrEq(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strPtrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timePtrEq(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
