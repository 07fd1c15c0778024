package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/services"
)

// MergeHandler обслуживает слияние гостевых записей и слияние команд.
type MergeHandler struct {
	recordMergeService services.RecordMergeService
	teamMergeService   services.TeamMergeService
}

func NewMergeHandler(rms services.RecordMergeService, tms services.TeamMergeService) *MergeHandler {
	return &MergeHandler{
		recordMergeService: rms,
		teamMergeService:   tms,
	}
}

func parseStatus(r *http.Request) (*models.RequestStatus, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, nil
	}
	status := models.RequestStatus(raw)
	switch status {
	case models.RequestStatusPending, models.RequestStatusDisputed, models.RequestStatusApproved,
		models.RequestStatusRejected, models.RequestStatusCanceled:
		return &status, nil
	default:
		return nil, fmt.Errorf("unknown status %q", raw)
	}
}

// --- Слияние гостевых записей ---

func (h *MergeHandler) CreateRecordOffer(w http.ResponseWriter, r *http.Request) {
	teamID, memberID, currentUserID, ok := teamMemberParams(w, r)
	if !ok {
		return
	}

	var input struct {
		TargetUserID int `json:"target_user_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TargetUserID <= 0 {
		badRequestResponse(w, r, errors.New("target_user_id is required"))
		return
	}

	request, err := h.recordMergeService.CreateOffer(r.Context(), teamID, currentUserID, memberID, input.TargetUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"request": request}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MergeHandler) CreateRecordClaim(w http.ResponseWriter, r *http.Request) {
	teamID, memberID, currentUserID, ok := teamMemberParams(w, r)
	if !ok {
		return
	}

	request, err := h.recordMergeService.CreateClaim(r.Context(), teamID, currentUserID, memberID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"request": request}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MergeHandler) DirectMerge(w http.ResponseWriter, r *http.Request) {
	teamID, memberID, currentUserID, ok := teamMemberParams(w, r)
	if !ok {
		return
	}

	var input struct {
		TargetMemberID int `json:"target_member_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TargetMemberID <= 0 {
		badRequestResponse(w, r, errors.New("target_member_id is required"))
		return
	}

	if err := h.recordMergeService.DirectMerge(r.Context(), teamID, currentUserID, memberID, input.TargetMemberID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResolveRecordMerge: action из URL - approve, reject или cancel.
func (h *MergeHandler) ResolveRecordMerge(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := getIDFromURL(r, "requestID")
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		currentUserID, ok := currentUser(w, r)
		if !ok {
			return
		}

		var request *models.RecordMergeRequest
		switch action {
		case "approve":
			request, err = h.recordMergeService.Approve(r.Context(), requestID, currentUserID)
		case "reject":
			request, err = h.recordMergeService.Reject(r.Context(), requestID, currentUserID)
		case "cancel":
			request, err = h.recordMergeService.Cancel(r.Context(), requestID, currentUserID)
		default:
			notFoundResponse(w, r)
			return
		}
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}

		if err := writeJSON(w, http.StatusOK, jsonResponse{"request": request}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
	}
}

func (h *MergeHandler) ListTeamRecordMerges(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, ok := currentUser(w, r)
	if !ok {
		return
	}
	status, err := parseStatus(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	requests, err := h.recordMergeService.ListTeamRequests(r.Context(), teamID, currentUserID, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"requests": requests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MergeHandler) ListMyRecordMerges(w http.ResponseWriter, r *http.Request) {
	currentUserID, ok := currentUser(w, r)
	if !ok {
		return
	}
	status, err := parseStatus(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	requests, err := h.recordMergeService.ListMyRequests(r.Context(), currentUserID, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"requests": requests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// --- Слияние команд ---

func (h *MergeHandler) CreateTeamMerge(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input struct {
		TargetTeamID int `json:"target_team_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TargetTeamID <= 0 {
		badRequestResponse(w, r, errors.New("target_team_id is required"))
		return
	}

	request, err := h.teamMergeService.CreateRequest(r.Context(), teamID, currentUserID, input.TargetTeamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"request": request}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListTeamMerges: ?status=pending,disputed (по умолчанию открытые).
func (h *MergeHandler) ListTeamMerges(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var statuses []models.RequestStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			statuses = append(statuses, models.RequestStatus(strings.TrimSpace(part)))
		}
	}

	requests, err := h.teamMergeService.ListTeamRequests(r.Context(), teamID, currentUserID, statuses)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"requests": requests}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MergeHandler) GetTeamMerge(w http.ResponseWriter, r *http.Request) {
	requestID, currentUserID, ok := teamMergeParams(w, r)
	if !ok {
		return
	}

	request, err := h.teamMergeService.GetRequest(r.Context(), requestID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"request": request}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MergeHandler) PreviewTeamMerge(w http.ResponseWriter, r *http.Request) {
	requestID, currentUserID, ok := teamMergeParams(w, r)
	if !ok {
		return
	}

	preview, err := h.teamMergeService.Preview(r.Context(), requestID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"preview": preview}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResolveTeamMerge: action из URL - accept, reject или cancel.
func (h *MergeHandler) ResolveTeamMerge(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, currentUserID, ok := teamMergeParams(w, r)
		if !ok {
			return
		}

		var (
			request *models.TeamMergeRequest
			err     error
		)
		switch action {
		case "accept":
			request, err = h.teamMergeService.Accept(r.Context(), requestID, currentUserID)
		case "reject":
			request, err = h.teamMergeService.Reject(r.Context(), requestID, currentUserID)
		case "cancel":
			request, err = h.teamMergeService.Cancel(r.Context(), requestID, currentUserID)
		default:
			notFoundResponse(w, r)
			return
		}
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}

		if err := writeJSON(w, http.StatusOK, jsonResponse{"request": request}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
	}
}

func (h *MergeHandler) ListDisputes(w http.ResponseWriter, r *http.Request) {
	requestID, currentUserID, ok := teamMergeParams(w, r)
	if !ok {
		return
	}

	disputes, err := h.teamMergeService.ListDisputes(r.Context(), requestID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"disputes": disputes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MergeHandler) SubmitDisputeScore(w http.ResponseWriter, r *http.Request) {
	disputeID, err := getIDFromURL(r, "disputeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input services.DisputeScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TeamID <= 0 {
		badRequestResponse(w, r, errors.New("team_id is required"))
		return
	}

	resolved, err := h.teamMergeService.SubmitDisputeScore(r.Context(), disputeID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"resolved": resolved}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func teamMergeParams(w http.ResponseWriter, r *http.Request) (requestID, currentUserID int, ok bool) {
	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, false
	}
	currentUserID, ok = currentUser(w, r)
	return requestID, currentUserID, ok
}
