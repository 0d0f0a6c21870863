// contest/store/user_store.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/campusgo/go-services/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserStore represents the MongoDB data store for user accounts. The contest
// engine treats users as mostly read-only: it loads team and strength, and the
// only field it ever writes is last_battle.
type UserStore struct {
	collection *mongo.Collection
}

// NewUserStore creates a new UserStore instance.
func NewUserStore(collection *mongo.Collection) *UserStore {
	return &UserStore{
		collection: collection,
	}
}

// GetUserByID retrieves a user account by its UUID.
func (us *UserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	filter := bson.M{"_id": id}
	err := us.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		return nil, err // Returns mongo.ErrNoDocuments if not found
	}
	return &user, nil
}

// UpdateUserLastBattle sets the last_battle timestamp for a user. Recorded
// once per battle attempt regardless of outcome.
func (us *UserStore) UpdateUserLastBattle(ctx context.Context, id string, at time.Time) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"last_battle": at}}
	res, err := us.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update last battle for user %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s not found for last battle update", id)
	}
	return nil
}
