package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusgo/go-services/contest/accrual"
	contestapi "github.com/campusgo/go-services/contest/api"
	"github.com/campusgo/go-services/contest/service"
	"github.com/campusgo/go-services/contest/store"
	"github.com/campusgo/go-services/shared/api"
	"github.com/campusgo/go-services/shared/cluster"
	"github.com/campusgo/go-services/shared/config"
	mongodbu "github.com/campusgo/go-services/shared/mongodb"
	redisu "github.com/campusgo/go-services/shared/redis"
	"github.com/campusgo/go-services/shared/registry"
	"github.com/jonboulle/clockwork"
)

func main() {
	// --- 1. Load Configuration ---
	cfg, err := config.LoadContestServiceConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded for Contest Service. Listening on: %s", cfg.ListenAddr)

	// --- 2. Connect to MongoDB ---
	mongoClient, err := mongodbu.NewClient(cfg.MongoDBConnStr, cfg.MongoDBDatabase)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err = mongoClient.Disconnect(context.Background()); err != nil {
			log.Fatalf("Failed to disconnect from MongoDB: %v", err)
		}
		log.Println("Disconnected from MongoDB.")
	}()

	// --- 3. Connect to Redis Cluster ---
	redisClient, err := redisu.NewRedisClusterClient(cfg.RedisAddrs, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("Failed to connect to Redis Cluster: %v", err)
	}
	defer func() {
		if err = redisClient.Close(); err != nil {
			log.Fatalf("Error closing Redis client: %v", err)
		}
		log.Println("Redis Client closed.")
	}()

	// --- 4. Initialize Data Stores ---
	usersCollection := mongoClient.Collection(cfg.MongoDBUsersCollection)
	locationsCollection := mongoClient.Collection(cfg.MongoDBLocationsCollection)
	teamsCollection := mongoClient.Collection(cfg.MongoDBTeamsCollection)
	countersCollection := mongoClient.Collection(cfg.MongoDBCountersCollection)

	userStore := store.NewUserStore(usersCollection)
	locationStore := store.NewLocationStore(locationsCollection, countersCollection)
	teamStore := store.NewTeamStore(teamsCollection)
	accrualLockStore := store.NewAccrualLockStore(redisClient, cfg.AccrualInterval)

	// --- 5. Ensure Initial Data Exists (default teams) ---
	if err := teamStore.EnsureTeamsExist(context.Background(), cfg.DefaultTeams); err != nil {
		log.Fatalf("Failed to ensure default teams exist: %v", err)
	}

	// --- 6. Initialize Business Logic Services ---
	clock := clockwork.NewRealClock()
	contestService := service.NewContestService(userStore, locationStore, clock)
	locationService := service.NewLocationService(locationStore, teamStore, clock, cfg.CooldownWindow)
	teamService := service.NewTeamService(teamStore)
	log.Println("Contest Service business logic initialized.")

	// --- 7. Initialize API Handlers ---
	contestAPIHandlers := contestapi.NewContestAPIHandlers(contestService, locationService, teamService)

	// --- 8. Initialize and Start Service Registrar ---
	registrar := registry.NewServiceRegistrar(redisClient, "contest-service", &cfg.CommonConfig)
	go registrar.Start()
	defer registrar.Stop()
	log.Printf("Service registrar started for 'contest-service' with Address: %s", cfg.ListenAddr)

	registryClient := registry.NewRegistryClient(redisClient, cfg.HeartbeatTTL)
	assignmentManager := cluster.NewServiceAssignmentManager(registryClient, registrar, cfg.HeartbeatInterval)
	go assignmentManager.Start()
	defer assignmentManager.Stop()

	// --- 9. Start the Points Accrual Cycle ---
	pointsAccrual := accrual.NewPointsAccrual(
		cfg.AccrualInterval,
		cfg.AccrualTimeout,
		registrar.GetServiceID(),
		locationStore,
		teamStore,
		accrualLockStore,
		assignmentManager,
		clock,
	)
	go pointsAccrual.Start()
	defer pointsAccrual.Stop()

	// --- 10. Setup HTTP Server and Register Routes ---
	baseServer := api.NewBaseServer(cfg.ListenAddr, log.Default())
	contestAPIHandlers.RegisterRoutes(baseServer.Router, api.AuthMiddleware(cfg.JWTSecret))
	log.Println("HTTP routes registered.")

	// --- 11. Start HTTP Server ---
	go func() {
		if err := baseServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed to start: %v", err)
		}
	}()

	// --- 12. Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop // Wait for interrupt signal

	log.Println("Shutting down Contest Service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := baseServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP server graceful shutdown failed: %v", err)
	}
	log.Println("Contest Service gracefully shut down.")
}
