// contest/service/team_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/campusgo/go-services/shared/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// TeamService serves the team read model backing the leaderboard.
type TeamService struct {
	teams TeamStore
}

// NewTeamService creates a new TeamService instance.
func NewTeamService(ts TeamStore) *TeamService {
	return &TeamService{
		teams: ts,
	}
}

// ListTeams returns all teams, highest points first.
func (ts *TeamService) ListTeams(ctx context.Context) ([]models.Team, error) {
	teams, err := ts.teams.GetAllTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed to list teams: %w", err)
	}
	sort.Slice(teams, func(i, j int) bool {
		return teams[i].Points > teams[j].Points
	})
	return teams, nil
}

// GetTeam returns one team by ID.
func (ts *TeamService) GetTeam(ctx context.Context, id int64) (*models.Team, error) {
	team, err := ts.teams.GetTeamByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("service failed to get team %d: %w", id, err)
	}
	return team, nil
}
