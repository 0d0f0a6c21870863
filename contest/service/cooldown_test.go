// contest/service/cooldown_test.go
package service

import (
	"testing"
	"time"

	"github.com/campusgo/go-services/shared/models"
	"github.com/stretchr/testify/assert"
)

func TestCanContest(t *testing.T) {
	window := 5 * time.Minute
	ownedSince := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		loc  models.Location
		now  time.Time
		want bool
	}{
		{
			name: "unclaimed location never contestable",
			loc:  models.Location{ID: 1},
			now:  ownedSince.Add(time.Hour),
			want: false,
		},
		{
			name: "inside the window",
			loc:  models.Location{ID: 1, OwnedSince: &ownedSince},
			now:  ownedSince.Add(window - time.Second),
			want: false,
		},
		{
			name: "exactly at the window boundary",
			loc:  models.Location{ID: 1, OwnedSince: &ownedSince},
			now:  ownedSince.Add(window),
			want: false,
		},
		{
			name: "past the window",
			loc:  models.Location{ID: 1, OwnedSince: &ownedSince},
			now:  ownedSince.Add(window + time.Second),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanContest(&tt.loc, tt.now, window))
		})
	}
}
