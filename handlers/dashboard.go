package handlers

import (
	"fmt"
	"net/http"

	"github.com/Dosada05/match-archive/services"
)

type DashboardHandler struct {
	statsService services.StatsService
}

func NewDashboardHandler(s services.StatsService) *DashboardHandler {
	return &DashboardHandler{statsService: s}
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	currentUserID, ok := currentUser(w, r)
	if !ok {
		return
	}

	dash, err := h.statsService.Dashboard(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"dashboard": dash}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// TeamStats: ?season=2026 ограничивает статистику календарным годом.
func (h *DashboardHandler) TeamStats(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var season *int
	if raw := r.URL.Query().Get("season"); raw != "" {
		year, err := queryInt(r, "season", 0)
		if err != nil || year < 1900 || year > 9999 {
			badRequestResponse(w, r, fmt.Errorf("season must be a year, got %q", raw))
			return
		}
		season = &year
	}

	stats, err := h.statsService.TeamStats(r.Context(), teamID, currentUserID, season)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DashboardHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.statsService.UserStats(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
