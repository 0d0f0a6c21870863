// contest/store/location_store.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/campusgo/go-services/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrOwnershipConflict is returned when a conditional ownership update matched
// no document because the ownership state changed between read and write. The
// caller is expected to re-read and re-resolve.
var ErrOwnershipConflict = fmt.Errorf("location ownership changed concurrently")

// LocationStore represents the MongoDB data store for contestable locations.
// Ownership writes are conditional on the previously read ownership state so
// that concurrent battles cannot both capture the same transition.
type LocationStore struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewLocationStore creates a new LocationStore instance. counters is the
// collection holding ID sequences for newly created locations.
func NewLocationStore(collection, counters *mongo.Collection) *LocationStore {
	return &LocationStore{
		collection: collection,
		counters:   counters,
	}
}

// GetLocationByID retrieves a location by its ID.
func (ls *LocationStore) GetLocationByID(ctx context.Context, id int64) (*models.Location, error) {
	var loc models.Location
	filter := bson.M{"_id": id}
	err := ls.collection.FindOne(ctx, filter).Decode(&loc)
	if err != nil {
		return nil, err // Returns mongo.ErrNoDocuments if not found
	}
	return &loc, nil
}

// ListLocations retrieves all locations.
func (ls *LocationStore) ListLocations(ctx context.Context) ([]models.Location, error) {
	var locs []models.Location
	cursor, err := ls.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find all locations: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &locs); err != nil {
		return nil, fmt.Errorf("failed to decode all locations: %w", err)
	}
	return locs, nil
}

// ListOwnedLocations retrieves all locations that currently have an owning team.
func (ls *LocationStore) ListOwnedLocations(ctx context.Context) ([]models.Location, error) {
	var locs []models.Location
	filter := bson.M{"owner_team": bson.M{"$ne": nil}}
	cursor, err := ls.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find owned locations: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &locs); err != nil {
		return nil, fmt.Errorf("failed to decode owned locations: %w", err)
	}
	return locs, nil
}

// CaptureLocation transfers ownership of a location to the winner's team,
// resetting owner_count to 1, owned_since to the capture time and
// strongest_owner_id to the winner. The update is conditional on the ownership
// state the caller read when resolving the battle (prevOwnerTeam and
// prevOwnedSince); if another capture got there first the filter matches
// nothing and ErrOwnershipConflict is returned.
func (ls *LocationStore) CaptureLocation(ctx context.Context, id int64, teamID int64, winnerID string, capturedAt time.Time, prevOwnerTeam *int64, prevOwnedSince *time.Time) error {
	filter := bson.M{
		"_id":         id,
		"owner_team":  prevOwnerTeam,
		"owned_since": prevOwnedSince,
	}
	update := bson.M{"$set": bson.M{
		"owner_team":         teamID,
		"owner_count":        int64(1),
		"owned_since":        capturedAt,
		"strongest_owner_id": winnerID,
	}}
	res, err := ls.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to capture location %d for team %d: %w", id, teamID, err)
	}
	if res.MatchedCount == 0 {
		return ErrOwnershipConflict
	}
	return nil
}

// ReinforceLocation adds one owner to a location held by teamID, optionally
// replacing the strongest owner. The update is conditional on both the owning
// team and the strongest owner the caller read, so a concurrent capture or a
// concurrent stronger join surfaces as ErrOwnershipConflict instead of a
// silent lost update.
func (ls *LocationStore) ReinforceLocation(ctx context.Context, id int64, teamID int64, prevStrongestID *string, newStrongestID *string) error {
	filter := bson.M{
		"_id":                id,
		"owner_team":         teamID,
		"strongest_owner_id": prevStrongestID,
	}
	update := bson.M{"$inc": bson.M{"owner_count": int64(1)}}
	if newStrongestID != nil {
		update["$set"] = bson.M{"strongest_owner_id": *newStrongestID}
	}
	res, err := ls.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reinforce location %d for team %d: %w", id, teamID, err)
	}
	if res.MatchedCount == 0 {
		return ErrOwnershipConflict
	}
	return nil
}

// CreateLocation inserts a new location, allocating its ID from the counters
// collection. The inserted location is returned with its assigned ID.
func (ls *LocationStore) CreateLocation(ctx context.Context, loc *models.Location) (*models.Location, error) {
	id, err := ls.nextLocationID(ctx)
	if err != nil {
		return nil, err
	}
	loc.ID = id

	if _, err := ls.collection.InsertOne(ctx, loc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("location %d already exists", loc.ID)
		}
		return nil, fmt.Errorf("failed to create location %q: %w", loc.Name, err)
	}
	return loc, nil
}

// nextLocationID atomically increments and returns the location ID sequence.
func (ls *LocationStore) nextLocationID(ctx context.Context) (int64, error) {
	filter := bson.M{"_id": "location_id"}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	if err := ls.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		return 0, fmt.Errorf("failed to allocate location ID: %w", err)
	}
	return counter.Seq, nil
}
