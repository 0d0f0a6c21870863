// contest/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/campusgo/go-services/contest/service"
	"github.com/campusgo/go-services/shared/api"
	"github.com/gorilla/mux"
)

// ContestAPIHandlers holds references to the services that handle business logic.
type ContestAPIHandlers struct {
	ContestService  *service.ContestService
	LocationService *service.LocationService
	TeamService     *service.TeamService
}

// NewContestAPIHandlers is the constructor for the contest API handlers.
func NewContestAPIHandlers(cs *service.ContestService, ls *service.LocationService, ts *service.TeamService) *ContestAPIHandlers {
	return &ContestAPIHandlers{
		ContestService:  cs,
		LocationService: ls,
		TeamService:     ts,
	}
}

// --- Request/Response DTOs (Data Transfer Objects) ---
// ID and Score are pointers so a missing field is distinguishable from zero.

type BattleRequest struct {
	ID    *int64 `json:"id"`
	Score *int64 `json:"score"`
}

type BattleResponse struct {
	Message string `json:"message"`
}

type BecomeOwnerRequest struct {
	ID *int64 `json:"id"`
}

type CreateLocationRequest struct {
	Name      string   `json:"name"`
	ImageURL  string   `json:"image_url"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type LocationsResponse struct {
	Locations []service.LocationView `json:"locations"`
	Count     int                    `json:"count"`
}

// --- Handler Methods ---

// HandleBattle handles battle attempts at a location.
// POST /interactions/battle
// Body: { "id": <location_id>, "score": <submitted_score> }
func (cah *ContestAPIHandlers) HandleBattle(w http.ResponseWriter, r *http.Request) {
	callerID, ok := api.CallerID(r)
	if !ok {
		api.WriteUnauthorized(w, "Caller identity required")
		return
	}

	var req BattleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.ID == nil {
		api.WriteBadRequest(w, "Location ID is required")
		return
	}
	if req.Score == nil {
		api.WriteBadRequest(w, "Score is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	outcome, err := cah.ContestService.AttemptBattle(ctx, callerID, *req.ID, *req.Score)
	if err != nil {
		switch err {
		case service.ErrUserNotFound:
			api.WriteNotFound(w, "User not found")
		case service.ErrLocationNotFound:
			api.WriteNotFound(w, "Location not found")
		case service.ErrUserHasNoTeam:
			api.WriteBadRequest(w, "User must be assigned to a team to battle")
		case service.ErrAlreadyOwned:
			api.WriteBadRequest(w, "Your team already owns this location")
		default:
			log.Printf("Error resolving battle for user %s at location %d: %v", callerID, *req.ID, err)
			api.WriteInternalServerError(w, "Failed to resolve battle")
		}
		return
	}

	api.WriteJSON(w, http.StatusOK, BattleResponse{Message: string(outcome)})
	log.Printf("Battle at location %d resolved for user %s: %s", *req.ID, callerID, outcome)
}

// HandleBecomeOwner handles requests to join the owner pool at a location the
// caller's team already holds.
// POST /interactions/become_owner
// Body: { "id": <location_id> }
func (cah *ContestAPIHandlers) HandleBecomeOwner(w http.ResponseWriter, r *http.Request) {
	callerID, ok := api.CallerID(r)
	if !ok {
		api.WriteUnauthorized(w, "Caller identity required")
		return
	}

	var req BecomeOwnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.ID == nil {
		api.WriteBadRequest(w, "Location ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	err := cah.ContestService.JoinAsOwner(ctx, callerID, *req.ID)
	if err != nil {
		switch err {
		case service.ErrUserNotFound:
			api.WriteNotFound(w, "User not found")
		case service.ErrLocationNotFound:
			api.WriteNotFound(w, "Location not found")
		case service.ErrUserHasNoTeam:
			api.WriteBadRequest(w, "User must be assigned to a team")
		case service.ErrNotOwner:
			api.WriteForbidden(w, "Your team does not own this location")
		default:
			log.Printf("Error joining owners for user %s at location %d: %v", callerID, *req.ID, err)
			api.WriteInternalServerError(w, "Failed to join location owners")
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleListLocations handles requests for the full location listing.
// GET /locations
func (cah *ContestAPIHandlers) HandleListLocations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	views, err := cah.LocationService.ListLocations(ctx)
	if err != nil {
		log.Printf("Error listing locations: %v", err)
		api.WriteInternalServerError(w, "Failed to list locations")
		return
	}

	api.WriteJSON(w, http.StatusOK, LocationsResponse{
		Locations: views,
		Count:     len(views),
	})
}

// HandleGetLocation handles requests for a single location.
// GET /locations/{id}
func (cah *ContestAPIHandlers) HandleGetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.WriteBadRequest(w, "Location ID must be an integer")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	view, err := cah.LocationService.GetLocation(ctx, id)
	if err != nil {
		switch err {
		case service.ErrLocationNotFound:
			api.WriteNotFound(w, fmt.Sprintf("Location %d not found", id))
		default:
			log.Printf("Error getting location %d: %v", id, err)
			api.WriteInternalServerError(w, "Failed to retrieve location")
		}
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{"location": view})
}

// HandleCreateLocation handles requests to create a new location.
// POST /locations
// Body: { "name": "...", "latitude": <lat>, "longitude": <lon>, "image_url": "..." }
func (cah *ContestAPIHandlers) HandleCreateLocation(w http.ResponseWriter, r *http.Request) {
	var req CreateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Name == "" {
		api.WriteBadRequest(w, "name is required")
		return
	}
	if req.Latitude == nil {
		api.WriteBadRequest(w, "latitude is required")
		return
	}
	if req.Longitude == nil {
		api.WriteBadRequest(w, "longitude is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	loc, err := cah.LocationService.CreateLocation(ctx, req.Name, req.ImageURL, *req.Latitude, *req.Longitude)
	if err != nil {
		log.Printf("Error creating location %q: %v", req.Name, err)
		api.WriteInternalServerError(w, "Failed to create location")
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Location created successfully",
		"location": loc,
	})
	log.Printf("Location %q created with ID %d.", loc.Name, loc.ID)
}

// HandleListTeams handles requests for the team leaderboard.
// GET /teams
func (cah *ContestAPIHandlers) HandleListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	teams, err := cah.TeamService.ListTeams(ctx)
	if err != nil {
		log.Printf("Error listing teams: %v", err)
		api.WriteInternalServerError(w, "Failed to list teams")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"teams": teams,
		"count": len(teams),
	})
}

// HandleGetTeam handles requests for a single team.
// GET /teams/{id}
func (cah *ContestAPIHandlers) HandleGetTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.WriteBadRequest(w, "Team ID must be an integer")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	team, err := cah.TeamService.GetTeam(ctx, id)
	if err != nil {
		switch err {
		case service.ErrTeamNotFound:
			api.WriteNotFound(w, fmt.Sprintf("Team %d not found", id))
		default:
			log.Printf("Error getting team %d: %v", id, err)
			api.WriteInternalServerError(w, "Failed to retrieve team")
		}
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{"team": team})
}

// HandleHealth reports service health.
// GET /health
func (cah *ContestAPIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "contest-service",
	})
}

// pathID extracts the numeric {id} path variable.
func pathID(r *http.Request) (int64, error) {
	vars := mux.Vars(r)
	return strconv.ParseInt(vars["id"], 10, 64)
}

// RegisterRoutes registers all API endpoints for the Contest Service. The
// mutating interaction endpoints sit behind the auth middleware; the read
// model is public, matching the upstream listing surface.
func (cah *ContestAPIHandlers) RegisterRoutes(router *mux.Router, auth mux.MiddlewareFunc) {
	interactions := router.PathPrefix("/interactions").Subrouter()
	interactions.Use(auth)
	interactions.HandleFunc("/battle", cah.HandleBattle).Methods("POST")
	interactions.HandleFunc("/become_owner", cah.HandleBecomeOwner).Methods("POST")

	router.HandleFunc("/locations", cah.HandleListLocations).Methods("GET")
	router.HandleFunc("/locations", cah.HandleCreateLocation).Methods("POST")
	router.HandleFunc("/locations/{id}", cah.HandleGetLocation).Methods("GET")

	router.HandleFunc("/teams", cah.HandleListTeams).Methods("GET")
	router.HandleFunc("/teams/{id}", cah.HandleGetTeam).Methods("GET")

	router.HandleFunc("/health", cah.HandleHealth).Methods("GET")
}
