package handlers

import (
	"net/http"
	"time"

	"github.com/Dosada05/match-archive/services"
	"github.com/Dosada05/match-archive/views"
)

// PageHandler отдает серверные HTML-страницы.
type PageHandler struct {
	statsService services.StatsService
	location     *time.Location
}

func NewPageHandler(ss services.StatsService, location *time.Location) *PageHandler {
	return &PageHandler{statsService: ss, location: location}
}

func (h *PageHandler) TeamArchive(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	archive, err := h.statsService.PublicTeamArchive(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.ArchivePage(archive, h.location).Render(r.Context(), w); err != nil {
		serverErrorResponse(w, r, err)
	}
}
