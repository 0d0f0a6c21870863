// shared/config/config.go
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CommonConfig holds configuration fields shared across services.
type CommonConfig struct {
	RedisAddrs              []string      // Redis server addresses (e.g., "redis-cluster:6379")
	RedisPassword           string        // Redis password for authentication
	HeartbeatInterval       time.Duration // How often to send a heartbeat to the registry (e.g., 5s)
	HeartbeatTTL            time.Duration // How long an instance is considered alive without a heartbeat (e.g., 15s)
	RegistryCleanupInterval time.Duration // How often the registry actively cleans stale entries (e.g., 30s)
	ServiceIP               string        // The IP address this service advertises for registration (Kubernetes Pod IP)
	ServicePort             int           // The port this service listens on, used for registration
}

// ContestServiceConfig holds configuration specific to the contest-service.
type ContestServiceConfig struct {
	CommonConfig                              // Embed CommonConfig
	ListenAddr                  string        // Address for the HTTP server (e.g., ":8080")
	MongoDBConnStr              string        // MongoDB connection string
	MongoDBDatabase             string        // MongoDB database name (e.g., "campusgo")
	MongoDBUsersCollection      string        // MongoDB collection for user accounts
	MongoDBLocationsCollection  string        // MongoDB collection for contestable locations
	MongoDBTeamsCollection      string        // MongoDB collection for teams
	MongoDBCountersCollection   string        // MongoDB collection for ID sequences
	JWTSecret                   string        // HS256 secret used to verify caller identity tokens
	CooldownWindow              time.Duration // Minimum time since last capture before a location shows can_join (e.g., 5m)
	AccrualInterval             time.Duration // Period of the points accrual cycle (e.g., 10m)
	AccrualTimeout              time.Duration // Timeout for one full accrual cycle (e.g., 60s)
	DefaultTeams                []string      // Team seed entries, "id:name:color"
}

// LoadCommonConfig loads common configuration from environment variables.
func LoadCommonConfig() (CommonConfig, error) {
	cfg := CommonConfig{}
	var err error

	// Redis Addresses
	redisAddrsStr := os.Getenv("REDIS_ADDRS")
	if redisAddrsStr == "" {
		cfg.RedisAddrs = []string{"redis-cluster-headless.campusgo.svc.cluster.local:6379"}
	} else {
		for _, addr := range strings.Split(redisAddrsStr, ",") {
			cfg.RedisAddrs = append(cfg.RedisAddrs, strings.TrimSpace(addr))
		}
	}

	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	cfg.HeartbeatInterval, err = getDuration("SERVICE_HEARTBEAT_INTERVAL", 5*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.HeartbeatTTL, err = getDuration("SERVICE_HEARTBEAT_TTL", 15*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.RegistryCleanupInterval, err = getDuration("SERVICE_REGISTRY_CLEANUP_INTERVAL", 30*time.Second)
	if err != nil {
		return cfg, err
	}

	// Service IP (for registration, from Kubernetes Pod IP)
	cfg.ServiceIP = os.Getenv("POD_IP")
	if cfg.ServiceIP == "" {
		// Fallback for local development outside K8s or if not injected
		cfg.ServiceIP = "0.0.0.0"
		fmt.Printf("WARNING: POD_IP not set, defaulting ServiceIP to %s\n", cfg.ServiceIP)
	}

	return cfg, nil
}

// LoadContestServiceConfig loads configuration for the contest-service.
func LoadContestServiceConfig() (*ContestServiceConfig, error) {
	// Load a .env file for local development if one exists; k8s deployments
	// inject everything through the environment directly.
	_ = godotenv.Load()

	common, err := LoadCommonConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load common config for contest-service: %w", err)
	}

	cfg := &ContestServiceConfig{
		CommonConfig:               common,
		ListenAddr:                 os.Getenv("CONTEST_SERVICE_LISTEN_ADDR"),
		MongoDBConnStr:             os.Getenv("MONGODB_CONN_STR"),
		MongoDBDatabase:            os.Getenv("MONGODB_DATABASE"),
		MongoDBUsersCollection:     os.Getenv("MONGODB_USERS_COLLECTION"),
		MongoDBLocationsCollection: os.Getenv("MONGODB_LOCATIONS_COLLECTION"),
		MongoDBTeamsCollection:     os.Getenv("MONGODB_TEAMS_COLLECTION"),
		MongoDBCountersCollection:  os.Getenv("MONGODB_COUNTERS_COLLECTION"),
		JWTSecret:                  os.Getenv("JWT_SECRET"),
	}

	// Apply defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.MongoDBConnStr == "" {
		cfg.MongoDBConnStr = "mongodb://mongodb-service:27017"
	}
	if cfg.MongoDBDatabase == "" {
		cfg.MongoDBDatabase = "campusgo"
	}
	if cfg.MongoDBUsersCollection == "" {
		cfg.MongoDBUsersCollection = "users"
	}
	if cfg.MongoDBLocationsCollection == "" {
		cfg.MongoDBLocationsCollection = "locations"
	}
	if cfg.MongoDBTeamsCollection == "" {
		cfg.MongoDBTeamsCollection = "teams"
	}
	if cfg.MongoDBCountersCollection == "" {
		cfg.MongoDBCountersCollection = "counters"
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	cfg.CooldownWindow, err = getDuration("CONTEST_COOLDOWN_WINDOW", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.AccrualInterval, err = getDuration("ACCRUAL_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.AccrualTimeout, err = getDuration("ACCRUAL_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	// Team seeds: "id:name:color" entries, comma separated.
	teamsStr := os.Getenv("DEFAULT_TEAMS")
	if teamsStr == "" {
		cfg.DefaultTeams = []string{
			"1:MCS:#FF6B6B",
			"2:SCS:#4ECDC4",
			"3:Tepper:#45B7D1",
			"4:Dietrich:#96CEB4",
			"5:Heinz:#FFEAA7",
			"6:CFA:#DDA0DD",
			"7:Engineering:#98D8C8",
			"8:Mellon:#F7DC6F",
		}
	} else {
		for _, entry := range strings.Split(teamsStr, ",") {
			cfg.DefaultTeams = append(cfg.DefaultTeams, strings.TrimSpace(entry))
		}
	}

	// Extract ServicePort from ListenAddr
	cfg.ServicePort, err = extractPort(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract port from CONTEST_SERVICE_LISTEN_ADDR '%s': %w", cfg.ListenAddr, err)
	}

	return cfg, nil
}

// Helper function to parse duration from environment variable
func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

// Helper function to parse int from environment variable
func getInt(envKey string, defaultVal int) (int, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format for %s: %w", envKey, err)
	}
	return i, nil
}

// extractPort extracts the numeric port from a listen address (e.g., ":8080" -> 8080, "0.0.0.0:8080" -> 8080)
func extractPort(listenAddr string) (int, error) {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		// If SplitHostPort fails, check if ListenAddr is just a port (e.g., ":8080")
		if strings.HasPrefix(listenAddr, ":") {
			portStr = strings.TrimPrefix(listenAddr, ":")
		} else {
			return 0, fmt.Errorf("invalid ListenAddr format for port extraction: %w", err)
		}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number '%s': %w", portStr, err)
	}
	return port, nil
}
