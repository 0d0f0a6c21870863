// shared/redis/constants.go
package redis

const (
	// AccrualCycleLockKey guards the points accrual cycle: the leader takes it
	// with SET NX before a cycle and releases it afterwards, so two cycle runs
	// never overlap even across a leadership change mid-cycle.
	AccrualCycleLockKey = "contest:accrual:lock"
)
