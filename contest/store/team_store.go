// contest/store/team_store.go
package store

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/campusgo/go-services/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TeamStore represents the MongoDB data store for teams.
type TeamStore struct {
	collection *mongo.Collection
}

// NewTeamStore creates a new TeamStore instance.
func NewTeamStore(collection *mongo.Collection) *TeamStore {
	return &TeamStore{
		collection: collection,
	}
}

// EnsureTeamsExist initializes default team documents if they don't exist.
// Each seed entry has the form "id:name:color".
func (ts *TeamStore) EnsureTeamsExist(ctx context.Context, seeds []string) error {
	for _, seed := range seeds {
		parts := strings.SplitN(seed, ":", 3)
		if len(parts) != 3 {
			return fmt.Errorf("invalid team seed entry %q, want \"id:name:color\"", seed)
		}
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid team ID in seed entry %q: %w", seed, err)
		}

		filter := bson.M{"_id": id}
		update := bson.M{
			"$setOnInsert": bson.M{
				"name":       parts[1],
				"color":      parts[2],
				"points":     int64(0),
				"created_at": time.Now(),
			},
		}
		opts := options.Update().SetUpsert(true)

		result, err := ts.collection.UpdateOne(ctx, filter, update, opts)
		if err != nil {
			return fmt.Errorf("failed to upsert team %s: %w", parts[1], err)
		}
		if result.UpsertedID != nil {
			log.Printf("INFO: Initialized team '%s' (ID %d) in database.", parts[1], id)
		}
	}
	return nil
}

// GetTeamByID retrieves a team by its ID.
func (ts *TeamStore) GetTeamByID(ctx context.Context, id int64) (*models.Team, error) {
	var team models.Team
	filter := bson.M{"_id": id}
	err := ts.collection.FindOne(ctx, filter).Decode(&team)
	if err != nil {
		return nil, err // Returns mongo.ErrNoDocuments if not found
	}
	return &team, nil
}

// GetAllTeams retrieves all team documents.
func (ts *TeamStore) GetAllTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	cursor, err := ts.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find all teams: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode all teams: %w", err)
	}
	return teams, nil
}

// AddTeamPoints atomically adds delta to a team's points. The accrual cycle is
// the only caller; $inc keeps per-team credits serialized without a
// read-modify-write round trip.
func (ts *TeamStore) AddTeamPoints(ctx context.Context, id int64, delta int64) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$inc": bson.M{"points": delta}}
	res, err := ts.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to add %d points to team %d: %w", delta, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("team %d not found for points update", id)
	}
	return nil
}
