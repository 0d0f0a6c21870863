// contest/service/contest_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campusgo/go-services/contest/store"
	"github.com/campusgo/go-services/shared/models"
	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/mongo" // For checking specific MongoDB errors
)

// Custom errors for clear communication to the API layer
var (
	ErrUserNotFound     = fmt.Errorf("user not found")
	ErrLocationNotFound = fmt.Errorf("location not found")
	ErrTeamNotFound     = fmt.Errorf("team not found")
	ErrUserHasNoTeam    = fmt.Errorf("user must be assigned to a team")
	ErrAlreadyOwned     = fmt.Errorf("user's team already owns this location")
	ErrNotOwner         = fmt.Errorf("user's team does not own this location")
)

// BattleOutcome is the result of a resolved battle.
type BattleOutcome string

const (
	OutcomeWin  BattleOutcome = "win"
	OutcomeLose BattleOutcome = "lose"
)

// maxSettleAttempts bounds how often a battle or join is re-resolved after a
// conditional ownership write lost to a concurrent one.
const maxSettleAttempts = 3

// UserStore is the persistence surface the contest engine needs for users.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserLastBattle(ctx context.Context, id string, at time.Time) error
}

// LocationStore is the persistence surface the contest engine needs for locations.
type LocationStore interface {
	GetLocationByID(ctx context.Context, id int64) (*models.Location, error)
	ListLocations(ctx context.Context) ([]models.Location, error)
	CreateLocation(ctx context.Context, loc *models.Location) (*models.Location, error)
	CaptureLocation(ctx context.Context, id int64, teamID int64, winnerID string, capturedAt time.Time, prevOwnerTeam *int64, prevOwnedSince *time.Time) error
	ReinforceLocation(ctx context.Context, id int64, teamID int64, prevStrongestID *string, newStrongestID *string) error
}

// ContestService resolves battles and ownership joins at locations.
type ContestService struct {
	users     UserStore
	locations LocationStore
	clock     clockwork.Clock
}

// NewContestService creates a new ContestService instance.
func NewContestService(us UserStore, ls LocationStore, clock clockwork.Clock) *ContestService {
	return &ContestService{
		users:     us,
		locations: ls,
		clock:     clock,
	}
}

// AttemptBattle resolves one battle of the caller against a location. The
// caller wins iff score plus their strength strictly exceeds the strength of
// the location's current strongest owner (0 when unclaimed); a tie is a loss.
// A win transfers ownership to the caller's team and resets the ownership
// triple. The caller's last_battle timestamp is recorded exactly once per
// attempt, win or lose.
//
// The ownership transfer is a conditional write keyed on the ownership state
// that produced the outcome. When two challengers race, only one write
// matches; the loser of the race re-reads and re-resolves against the fresh
// defense, so at most one capture succeeds per contested transition.
func (cs *ContestService) AttemptBattle(ctx context.Context, userID string, locationID int64, score int64) (BattleOutcome, error) {
	user, err := cs.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if user.Team == nil {
		return "", ErrUserHasNoTeam
	}

	lastBattleRecorded := false
	for attempt := 0; attempt < maxSettleAttempts; attempt++ {
		loc, err := cs.locations.GetLocationByID(ctx, locationID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return "", ErrLocationNotFound
			}
			return "", fmt.Errorf("failed to load location %d: %w", locationID, err)
		}

		// Teams do not battle themselves.
		if loc.OwnerTeam != nil && *loc.OwnerTeam == *user.Team {
			return "", ErrAlreadyOwned
		}

		threshold, err := cs.defenseThreshold(ctx, loc)
		if err != nil {
			return "", err
		}

		totalPower := score + user.Strength
		wins := totalPower > threshold

		if !lastBattleRecorded {
			if err := cs.users.UpdateUserLastBattle(ctx, userID, cs.clock.Now()); err != nil {
				return "", fmt.Errorf("failed to record battle attempt for user %s: %w", userID, err)
			}
			lastBattleRecorded = true
		}

		if !wins {
			return OutcomeLose, nil
		}

		err = cs.locations.CaptureLocation(ctx, locationID, *user.Team, userID, cs.clock.Now(), loc.OwnerTeam, loc.OwnedSince)
		if err == nil {
			return OutcomeWin, nil
		}
		if errors.Is(err, store.ErrOwnershipConflict) {
			// Someone else changed ownership between our read and write; the
			// threshold we beat is stale, so resolve again against the new state.
			continue
		}
		return "", err
	}
	return "", fmt.Errorf("battle at location %d did not settle after %d attempts", locationID, maxSettleAttempts)
}

// JoinAsOwner adds the caller to the owner pool of a location their team
// already owns, incrementing owner_count and promoting the caller to strongest
// owner when they are strictly stronger than the incumbent. Ties keep the
// incumbent.
func (cs *ContestService) JoinAsOwner(ctx context.Context, userID string, locationID int64) error {
	user, err := cs.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if user.Team == nil {
		return ErrUserHasNoTeam
	}

	for attempt := 0; attempt < maxSettleAttempts; attempt++ {
		loc, err := cs.locations.GetLocationByID(ctx, locationID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrLocationNotFound
			}
			return fmt.Errorf("failed to load location %d: %w", locationID, err)
		}

		if loc.OwnerTeam == nil || *loc.OwnerTeam != *user.Team {
			return ErrNotOwner
		}

		var newStrongest *string
		if loc.StrongestOwnerID == nil {
			newStrongest = &userID
		} else {
			incumbent, err := cs.users.GetUserByID(ctx, *loc.StrongestOwnerID)
			switch {
			case errors.Is(err, mongo.ErrNoDocuments):
				// Dangling strongest owner reference; leave it in place, the
				// next capture resets it.
			case err != nil:
				return fmt.Errorf("failed to load strongest owner %s: %w", *loc.StrongestOwnerID, err)
			case user.Strength > incumbent.Strength:
				newStrongest = &userID
			}
		}

		err = cs.locations.ReinforceLocation(ctx, locationID, *user.Team, loc.StrongestOwnerID, newStrongest)
		if err == nil {
			return nil
		}
		if errors.Is(err, store.ErrOwnershipConflict) {
			continue
		}
		return err
	}
	return fmt.Errorf("join at location %d did not settle after %d attempts", locationID, maxSettleAttempts)
}

// defenseThreshold returns the strength a challenger has to beat at a
// location: the current strongest owner's strength, or 0 when the location is
// unclaimed or the strongest owner record is gone.
func (cs *ContestService) defenseThreshold(ctx context.Context, loc *models.Location) (int64, error) {
	if loc.StrongestOwnerID == nil {
		return 0, nil
	}
	defender, err := cs.users.GetUserByID(ctx, *loc.StrongestOwnerID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load strongest owner %s: %w", *loc.StrongestOwnerID, err)
	}
	return defender.Strength, nil
}
