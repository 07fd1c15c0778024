package handlers

import (
	"net/http"

	"github.com/Dosada05/match-archive/repositories"
	"github.com/Dosada05/match-archive/services"
)

type MatchHandler struct {
	matchService  services.MatchService
	recordService services.RecordService
}

func NewMatchHandler(ms services.MatchService, rs services.RecordService) *MatchHandler {
	return &MatchHandler{
		matchService:  ms,
		recordService: rs,
	}
}

func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), teamID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMatches: ?filter=upcoming|past|all&limit=&offset=
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, ok := currentUser(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	input := services.ListMatchesInput{
		Filter: repositories.MatchFilter(r.URL.Query().Get("filter")),
		Limit:  limit,
		Offset: offset,
	}
	matches, err := h.matchService.ListMatches(r.Context(), teamID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, currentUserID, ok := matchParams(w, r)
	if !ok {
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	matchID, currentUserID, ok := matchParams(w, r)
	if !ok {
		return
	}

	var input services.UpdateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.UpdateMatch(r.Context(), matchID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) CancelMatch(w http.ResponseWriter, r *http.Request) {
	matchID, currentUserID, ok := matchParams(w, r)
	if !ok {
		return
	}

	match, err := h.matchService.CancelMatch(r.Context(), matchID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID, currentUserID, ok := matchParams(w, r)
	if !ok {
		return
	}

	if err := h.matchService.DeleteMatch(r.Context(), matchID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MatchHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	matchID, currentUserID, ok := matchParams(w, r)
	if !ok {
		return
	}

	var input services.MatchResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.RecordResult(r.Context(), matchID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// --- Посещаемость ---

func (h *MatchHandler) SetAttendance(w http.ResponseWriter, r *http.Request) {
	matchID, currentUserID, ok := matchParams(w, r)
	if !ok {
		return
	}

	var input services.AttendanceInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	attendance, err := h.matchService.SetAttendance(r.Context(), matchID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"attendance": attendance}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	matchID, currentUserID, ok := matchParams(w, r)
	if !ok {
		return
	}

	attendance, err := h.matchService.ListAttendance(r.Context(), matchID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"attendance": attendance}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// --- Записи игроков ---

func (h *MatchHandler) SaveRecords(w http.ResponseWriter, r *http.Request) {
	matchID, currentUserID, ok := matchParams(w, r)
	if !ok {
		return
	}

	var input struct {
		Records []services.RecordInput `json:"records"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	records, err := h.recordService.SaveRecords(r.Context(), matchID, currentUserID, input.Records)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"records": records}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	matchID, currentUserID, ok := matchParams(w, r)
	if !ok {
		return
	}

	records, err := h.recordService.ListRecords(r.Context(), matchID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"records": records}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func matchParams(w http.ResponseWriter, r *http.Request) (matchID, currentUserID int, ok bool) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, false
	}
	currentUserID, ok = currentUser(w, r)
	return matchID, currentUserID, ok
}
