package web_server

import (
	"net/http"
)

// populateRoutes populates the router with all routes.
func (server *WebServer) populateRoutes() {
	// Websocket stuff.
	if server.wizardHub != nil {
		wsRouter := server.router.Path("/ws").Subrouter()
		wsRouter.Use(server.authMiddleware(true))
		wsRouter.Methods(http.MethodGet).HandlerFunc(server.handleWizardWS)
	}
	// API stuff.
	apiRouter := server.router.PathPrefix("/api/v1").Subrouter()
	apiRouter.HandleFunc("/catalog", server.handleCatalog).Methods(http.MethodGet)
	apiRouter.HandleFunc("/games/{code}", server.handleGameByCode).Methods(http.MethodGet)
	apiRouter.HandleFunc("/games/{code}/config", server.handleGameConfig).Methods(http.MethodGet)
	apiRouter.HandleFunc("/lobbies", server.handleOpenLobbies).Methods(http.MethodGet)
	apiRouter.HandleFunc("/bookings/slots", server.handleBookingSlots).Methods(http.MethodGet)
	apiRouter.HandleFunc("/leaderboard/{category}", server.handleLeaderboard).Methods(http.MethodGet)
	// Authenticated.
	authRouter := apiRouter.NewRoute().Subrouter()
	authRouter.Use(server.authMiddleware(false))
	authRouter.HandleFunc("/lobbies", server.handleOpenLobby).Methods(http.MethodPost)
	authRouter.HandleFunc("/profile", server.handleGetProfile).Methods(http.MethodGet)
	authRouter.HandleFunc("/profile", server.handleUpdateProfile).Methods(http.MethodPut)
	authRouter.HandleFunc("/bookings", server.handleGetBookings).Methods(http.MethodGet)
	authRouter.HandleFunc("/bookings", server.handleBook).Methods(http.MethodPost)
	authRouter.HandleFunc("/stats/me", server.handleMyStats).Methods(http.MethodGet)
}
