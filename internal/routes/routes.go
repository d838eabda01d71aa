package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhil/teamglow/internal/demo"
	"github.com/nikhil/teamglow/internal/handlers"
	"github.com/nikhil/teamglow/internal/logger"
	"github.com/nikhil/teamglow/internal/middleware"
)

// Deps are the collaborators shared by every route module.
type Deps struct {
	Store  *demo.Store
	Tokens *demo.TokenIssuer
	Log    *logger.Logger
}

// List of all route registration functions
var routeModules = []func(*mux.Router, Deps){
	AuthRoutes,
	FeedbackRoutes,
	TeamRoutes,
}

// RegisterAllRoutes builds the demo API router. Every route lives under /api.
func RegisterAllRoutes(deps Deps) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(deps.Log))
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not found"}`))
	})

	api := router.PathPrefix("/api").Subrouter()
	for _, register := range routeModules {
		register(api, deps)
	}

	return router
}

func AuthRoutes(router *mux.Router, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.Store, deps.Tokens, deps.Log)

	// Public routes without auth middleware
	publicRouter := router.PathPrefix("/auth").Subrouter()
	publicRouter.Use(middleware.ResponseWrapperMiddleware)
	publicRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
}

func FeedbackRoutes(router *mux.Router, deps Deps) {
	feedbackHandler := handlers.NewFeedbackHandler(deps.Store, deps.Log)

	protectedRouter := router.PathPrefix("/feedback").Subrouter()
	protectedRouter.Use(middleware.AuthMiddleware(deps.Tokens), middleware.ResponseWrapperMiddleware)
	protectedRouter.HandleFunc("", feedbackHandler.List).Methods(http.MethodGet)
	protectedRouter.HandleFunc("", feedbackHandler.Create).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{id}", feedbackHandler.Update).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/{id}/acknowledge", feedbackHandler.Acknowledge).Methods(http.MethodPost)
}

func TeamRoutes(router *mux.Router, deps Deps) {
	teamHandler := handlers.NewTeamHandler(deps.Store, deps.Log)

	protectedRouter := router.PathPrefix("/team").Subrouter()
	protectedRouter.Use(middleware.AuthMiddleware(deps.Tokens), middleware.ResponseWrapperMiddleware)
	protectedRouter.HandleFunc("/members", teamHandler.Members).Methods(http.MethodGet)
}
