// contest/service/location_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/campusgo/go-services/shared/models"
	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/mongo"
)

// TeamStore is the persistence surface the read models need for teams.
type TeamStore interface {
	GetTeamByID(ctx context.Context, id int64) (*models.Team, error)
	GetAllTeams(ctx context.Context) ([]models.Team, error)
}

// LocationView is a location decorated for the listing surface: the derived
// can_join flag plus the owning team's display fields.
type LocationView struct {
	models.Location
	CanJoin        bool   `json:"can_join"`
	OwnerTeamName  string `json:"owner_team_name,omitempty"`
	OwnerTeamColor string `json:"owner_team_color,omitempty"`
}

// LocationService serves the location read model and location creation.
type LocationService struct {
	locations LocationStore
	teams     TeamStore
	clock     clockwork.Clock
	cooldown  time.Duration
}

// NewLocationService creates a new LocationService instance. cooldown is the
// window applied when deriving can_join.
func NewLocationService(ls LocationStore, ts TeamStore, clock clockwork.Clock, cooldown time.Duration) *LocationService {
	return &LocationService{
		locations: ls,
		teams:     ts,
		clock:     clock,
		cooldown:  cooldown,
	}
}

// ListLocations returns all locations with can_join and owner team display
// fields filled in.
func (ls *LocationService) ListLocations(ctx context.Context) ([]LocationView, error) {
	locs, err := ls.locations.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed to list locations: %w", err)
	}

	teams, err := ls.teams.GetAllTeams(ctx)
	if err != nil {
		// The listing still works without team display fields.
		log.Printf("WARN: Could not load teams for location listing: %v", err)
		teams = nil
	}
	teamsByID := make(map[int64]models.Team, len(teams))
	for _, team := range teams {
		teamsByID[team.ID] = team
	}

	now := ls.clock.Now()
	views := make([]LocationView, 0, len(locs))
	for _, loc := range locs {
		views = append(views, ls.buildView(loc, teamsByID, now))
	}
	return views, nil
}

// GetLocation returns one location with can_join and owner team display fields.
func (ls *LocationService) GetLocation(ctx context.Context, id int64) (*LocationView, error) {
	loc, err := ls.locations.GetLocationByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("service failed to get location %d: %w", id, err)
	}

	teamsByID := make(map[int64]models.Team)
	if loc.OwnerTeam != nil {
		team, err := ls.teams.GetTeamByID(ctx, *loc.OwnerTeam)
		if err != nil {
			if !errors.Is(err, mongo.ErrNoDocuments) {
				return nil, fmt.Errorf("service failed to get owner team %d: %w", *loc.OwnerTeam, err)
			}
		} else {
			teamsByID[team.ID] = *team
		}
	}

	view := ls.buildView(*loc, teamsByID, ls.clock.Now())
	return &view, nil
}

// CreateLocation inserts a new, unclaimed location.
func (ls *LocationService) CreateLocation(ctx context.Context, name, imageURL string, latitude, longitude float64) (*models.Location, error) {
	loc := &models.Location{
		Name:      name,
		ImageURL:  imageURL,
		Latitude:  latitude,
		Longitude: longitude,
	}
	created, err := ls.locations.CreateLocation(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("service failed to create location: %w", err)
	}
	return created, nil
}

func (ls *LocationService) buildView(loc models.Location, teamsByID map[int64]models.Team, now time.Time) LocationView {
	view := LocationView{
		Location: loc,
		CanJoin:  CanContest(&loc, now, ls.cooldown),
	}
	if loc.OwnerTeam != nil {
		if team, ok := teamsByID[*loc.OwnerTeam]; ok {
			view.OwnerTeamName = team.Name
			view.OwnerTeamColor = team.Color
		}
	}
	return view
}
