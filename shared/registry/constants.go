// shared/registry/constants.go
package registry

const (
	// RedisRegistryHashPrefix is the prefix for the Redis hash keys that keep
	// service registration data, one hash per service type:
	// "services:<serviceType>", e.g. "services:contest-service".
	RedisRegistryHashPrefix = "services:"
)
