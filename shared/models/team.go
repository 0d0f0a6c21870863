package models

import "time"

// Team is a faction players belong to. Points only ever grow, and only the
// points accrual cycle writes them.
type Team struct {
	ID        int64      `bson:"_id" json:"id"`
	Name      string     `bson:"name" json:"name"`
	Color     string     `bson:"color" json:"color"`
	Points    int64      `bson:"points" json:"points"`
	CreatedAt *time.Time `bson:"created_at,omitempty" json:"created_at"`
}
