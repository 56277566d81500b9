package web_server

import (
	"github.com/gorilla/mux"
	"github.com/lefinal/vrcafe-server/booking"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/games"
	"github.com/lefinal/vrcafe-server/identity"
	"github.com/lefinal/vrcafe-server/profile"
	"github.com/lefinal/vrcafe-server/stats"
	"github.com/lefinal/vrcafe-server/ws"
	"net/http"
	"strconv"
)

// mustIdentity returns the identity of the authenticated request. It responds
// with an error if there is none, which only happens for routes without
// authMiddleware.
func (server *WebServer) mustIdentity(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	ident, ok := requestIdentity(r)
	if !ok {
		server.respondError(w, errors.NewInternalError("no identity in request context", nil))
		return identity.Identity{}, false
	}
	return ident, true
}

func (server *WebServer) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	server.respondJSON(w, http.StatusOK, games.NewCatalog())
}

func (server *WebServer) handleGameByCode(w http.ResponseWriter, r *http.Request) {
	record, err := server.lookup.Lookup(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		server.respondError(w, err)
		return
	}
	server.respondJSON(w, http.StatusOK, record)
}

// handleGameConfig serves the compiled config as file download.
func (server *WebServer) handleGameConfig(w http.ResponseWriter, r *http.Request) {
	code := games.NormalizeCode(mux.Vars(r)["code"])
	config, err := server.lookup.Config(r.Context(), code)
	if err != nil {
		server.respondError(w, err)
		return
	}
	raw, err := config.MarshalIndentJSON()
	if err != nil {
		server.respondError(w, errors.NewInternalErrorFromErr(err, "marshal config", errors.Details{"game_code": code}))
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+games.ExportFileName(code)+`"`)
	server.respondRaw(w, http.StatusOK, "application/json; charset=utf-8", raw)
}

func (server *WebServer) handleOpenLobbies(w http.ResponseWriter, r *http.Request) {
	lobbies, err := server.lobbies.OpenLobbies(r.Context())
	if err != nil {
		server.respondError(w, err)
		return
	}
	server.respondJSON(w, http.StatusOK, lobbies)
}

func (server *WebServer) handleOpenLobby(w http.ResponseWriter, r *http.Request) {
	ident, ok := server.mustIdentity(w, r)
	if !ok {
		return
	}
	var req games.OpenLobbyRequest
	err := decodeBody(r, &req)
	if err != nil {
		server.respondError(w, err)
		return
	}
	p, err := server.profiles.RequireComplete(r.Context(), ident.UserID)
	if err != nil {
		server.respondError(w, err)
		return
	}
	record, err := server.lobbies.OpenLobby(r.Context(), games.Captain{ID: ident.UserID, Name: p.Name}, req)
	if err != nil {
		server.respondError(w, err)
		return
	}
	server.respondJSON(w, http.StatusCreated, record)
}

// profileResponse is a profile.Profile with derived fields.
type profileResponse struct {
	profile.Profile
	Complete     bool   `json:"complete"`
	ReferralCode string `json:"referral_code"`
}

func newProfileResponse(p profile.Profile) profileResponse {
	return profileResponse{
		Profile:      p,
		Complete:     profile.IsComplete(p),
		ReferralCode: profile.ReferralCode(p.UserID),
	}
}

func (server *WebServer) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ident, ok := server.mustIdentity(w, r)
	if !ok {
		return
	}
	p, err := server.profiles.Profile(r.Context(), ident.UserID)
	if err != nil {
		server.respondError(w, err)
		return
	}
	if p.PhoneNumber == "" {
		p.PhoneNumber = ident.PhoneNumber
	}
	server.respondJSON(w, http.StatusOK, newProfileResponse(p))
}

func (server *WebServer) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ident, ok := server.mustIdentity(w, r)
	if !ok {
		return
	}
	var update profile.Update
	err := decodeBody(r, &update)
	if err != nil {
		server.respondError(w, err)
		return
	}
	p, err := server.profiles.UpdateProfile(r.Context(), ident.UserID, update)
	if err != nil {
		server.respondError(w, err)
		return
	}
	server.respondJSON(w, http.StatusOK, newProfileResponse(p))
}

func (server *WebServer) handleBookingSlots(w http.ResponseWriter, _ *http.Request) {
	server.respondJSON(w, http.StatusOK, booking.TimeSlots())
}

func (server *WebServer) handleGetBookings(w http.ResponseWriter, r *http.Request) {
	ident, ok := server.mustIdentity(w, r)
	if !ok {
		return
	}
	bookings, err := server.bookings.BookingsForUser(r.Context(), ident.UserID)
	if err != nil {
		server.respondError(w, err)
		return
	}
	server.respondJSON(w, http.StatusOK, bookings)
}

func (server *WebServer) handleBook(w http.ResponseWriter, r *http.Request) {
	ident, ok := server.mustIdentity(w, r)
	if !ok {
		return
	}
	var req booking.Request
	err := decodeBody(r, &req)
	if err != nil {
		server.respondError(w, err)
		return
	}
	b, err := server.bookings.Book(r.Context(), ident, req)
	if err != nil {
		server.respondError(w, err)
		return
	}
	server.respondJSON(w, http.StatusCreated, b)
}

// playerStatsResponse is stats.PlayerStats with derived ratios.
type playerStatsResponse struct {
	stats.PlayerStats
	KDRatio float64 `json:"kd_ratio"`
	WinRate float64 `json:"win_rate"`
}

func (server *WebServer) handleMyStats(w http.ResponseWriter, r *http.Request) {
	ident, ok := server.mustIdentity(w, r)
	if !ok {
		return
	}
	s, err := server.stats.PlayerStats(r.Context(), ident.UserID)
	if err != nil {
		server.respondError(w, err)
		return
	}
	server.respondJSON(w, http.StatusOK, playerStatsResponse{
		PlayerStats: s,
		KDRatio:     s.KDRatio(),
		WinRate:     s.WinRate(),
	})
}

func (server *WebServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	category, err := stats.ParseCategory(mux.Vars(r)["category"])
	if err != nil {
		server.respondError(w, err)
		return
	}
	limit := stats.DefaultLeaderboardLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			server.respondError(w, errors.NewBadRequestErr("limit must be between 1 and 100", errors.KindInvalidLimit,
				errors.Details{"limit": limitStr}))
			return
		}
	}
	entries, err := server.stats.Leaderboard(r.Context(), category, limit)
	if err != nil {
		server.respondError(w, err)
		return
	}
	server.respondJSON(w, http.StatusOK, entries)
}

// handleWizardWS opens a wizard session for the authenticated user. The
// profile must be complete.
func (server *WebServer) handleWizardWS(w http.ResponseWriter, r *http.Request) {
	ident, ok := server.mustIdentity(w, r)
	if !ok {
		return
	}
	p, err := server.profiles.RequireComplete(r.Context(), ident.UserID)
	if err != nil {
		server.respondError(w, err)
		return
	}
	ws.Serve(server.wsCtx, server.wizardHub, w, r, games.Captain{ID: ident.UserID, Name: p.Name})
}
