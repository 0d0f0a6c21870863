// contest/accrual/points_accrual.go
package accrual

import (
	"context"
	"log"
	"time"

	"github.com/campusgo/go-services/shared/models"
	"github.com/jonboulle/clockwork"
)

// accrualTaskKey is the consistent-hash key for the cluster-wide accrual
// task, so exactly one contest-service instance runs the cycle.
const accrualTaskKey = "points_accrual_task"

// LocationLister lists the locations the accrual cycle scans.
type LocationLister interface {
	ListOwnedLocations(ctx context.Context) ([]models.Location, error)
}

// TeamCreditor applies a points delta to a team.
type TeamCreditor interface {
	AddTeamPoints(ctx context.Context, id int64, delta int64) error
}

// CycleLock is the cycle-in-progress flag keeping two accrual runs from
// overlapping.
type CycleLock interface {
	TryAcquire(ctx context.Context, holderID string) (bool, error)
	Release(ctx context.Context, holderID string) error
}

// Assignment answers whether this instance is responsible for a task key.
type Assignment interface {
	IsResponsible(key string) (bool, error)
}

// PointsAccrual is the recurring background job converting location ownership
// into team score: every cycle it sums each owned location's owner_count into
// its owning team's points. owner_count is deliberately not reset between
// cycles, so a location keeps yielding its current owner_count every period
// for as long as the team holds it.
type PointsAccrual struct {
	interval  time.Duration
	timeout   time.Duration
	holderID  string
	locations LocationLister
	teams     TeamCreditor
	lock      CycleLock
	assign    Assignment
	clock     clockwork.Clock
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewPointsAccrual creates a new PointsAccrual instance. holderID identifies
// this instance when taking the cycle lock.
func NewPointsAccrual(
	interval, timeout time.Duration,
	holderID string,
	locations LocationLister,
	teams TeamCreditor,
	lock CycleLock,
	assign Assignment,
	clock clockwork.Clock,
) *PointsAccrual {
	ctx, cancel := context.WithCancel(context.Background())

	return &PointsAccrual{
		interval:  interval,
		timeout:   timeout,
		holderID:  holderID,
		locations: locations,
		teams:     teams,
		lock:      lock,
		assign:    assign,
		clock:     clock,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start initiates the accrual loop. This should be run in a goroutine.
func (pa *PointsAccrual) Start() {
	log.Printf("Points accrual starting with cycle interval: %v", pa.interval)
	ticker := pa.clock.NewTicker(pa.interval)
	defer ticker.Stop()

	for {
		select {
		case <-pa.ctx.Done():
			log.Println("Points accrual shutting down.")
			return
		case <-ticker.Chan():
			pa.RunCycle()
		}
	}
}

// Stop gracefully stops the accrual loop.
func (pa *PointsAccrual) Stop() {
	pa.cancel()
}

// RunCycle executes one accrual cycle. A failure to list locations, take the
// lock, or reach Redis skips the whole cycle; a failure crediting one team is
// logged and the remaining teams are still credited. Errors never abort the
// loop, the next period simply tries again.
func (pa *PointsAccrual) RunCycle() {
	isLeader, err := pa.assign.IsResponsible(accrualTaskKey)
	if err != nil {
		log.Printf("ERROR: PointsAccrual: failed to check leadership for task '%s': %v", accrualTaskKey, err)
		return
	}
	if !isLeader {
		return
	}

	ctx, cancel := context.WithTimeout(pa.ctx, pa.timeout)
	defer cancel()

	acquired, err := pa.lock.TryAcquire(ctx, pa.holderID)
	if err != nil {
		log.Printf("ERROR: PointsAccrual: could not reach cycle lock, skipping cycle: %v", err)
		return
	}
	if !acquired {
		log.Println("WARN: PointsAccrual: previous cycle still in progress, skipping.")
		return
	}
	defer func() {
		if err := pa.lock.Release(pa.ctx, pa.holderID); err != nil {
			log.Printf("ERROR: PointsAccrual: failed to release cycle lock: %v", err)
		}
	}()

	locs, err := pa.locations.ListOwnedLocations(ctx)
	if err != nil {
		log.Printf("ERROR: PointsAccrual: failed to list owned locations, skipping cycle: %v", err)
		return
	}

	deltas := make(map[int64]int64)
	for _, loc := range locs {
		if loc.OwnerTeam == nil {
			continue
		}
		deltas[*loc.OwnerTeam] += loc.OwnerCount
	}

	credited := 0
	var totalPoints int64
	for teamID, delta := range deltas {
		if delta == 0 {
			continue
		}
		if err := pa.teams.AddTeamPoints(ctx, teamID, delta); err != nil {
			log.Printf("ERROR: PointsAccrual: failed to credit team %d with %d points: %v", teamID, delta, err)
			continue
		}
		credited++
		totalPoints += delta
	}

	log.Printf("INFO: PointsAccrual: cycle credited %d teams with %d points total across %d locations.",
		credited, totalPoints, len(locs))
}
