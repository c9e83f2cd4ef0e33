package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ewhitfield/questboard/internal/auth"
	"github.com/ewhitfield/questboard/internal/model"
	"github.com/ewhitfield/questboard/internal/store"
	"github.com/ewhitfield/questboard/internal/websocket"
)

type HouseholdHandler struct {
	householdStore *store.HouseholdStore
	memberStore    *store.MemberStore
	hub            *websocket.Hub
	logger         *slog.Logger
}

func NewHouseholdHandler(hs *store.HouseholdStore, ms *store.MemberStore, hub *websocket.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{householdStore: hs, memberStore: ms, hub: hub, logger: logger}
}

type createHouseholdRequest struct {
	Name       string `json:"name"`
	MemberName string `json:"member_name"`
	Avatar     string `json:"avatar"`
}

type createHouseholdResponse struct {
	Household *model.Household `json:"household"`
	Member    *model.Member    `json:"member"`
}

// Create makes a new household with the caller as its first member, in the
// manager role. A user belongs to at most one household.
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if ac.HouseholdID != "" {
		writeError(w, http.StatusBadRequest, "already in a household")
		return
	}

	var req createHouseholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	memberName := strings.TrimSpace(req.MemberName)
	if memberName == "" {
		memberName = ac.Username
	}

	household, member, err := h.householdStore.CreateWithOwner(req.Name, ac.UserID, memberName, req.Avatar)
	if err != nil {
		h.logger.Error("create household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create household")
		return
	}

	writeJSON(w, http.StatusCreated, createHouseholdResponse{Household: household, Member: member})
}

func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if auth.HouseholdID(r.Context()) != id {
		writeError(w, http.StatusForbidden, "not a member of this household")
		return
	}

	household, err := h.householdStore.GetByID(id)
	if err != nil {
		h.logger.Error("get household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return
	}
	writeJSON(w, http.StatusOK, household)
}

type updateHouseholdRequest struct {
	Name string `json:"name"`
}

// Update renames the household. Manager only.
func (h *HouseholdHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ac, _ := auth.FromContext(r.Context())
	if ac.HouseholdID != id {
		writeError(w, http.StatusForbidden, "not a member of this household")
		return
	}

	if requireManager(w, h.memberStore, ac, h.logger) == nil {
		return
	}

	var req updateHouseholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	household, err := h.householdStore.Update(id, req.Name)
	if err != nil {
		h.logger.Error("update household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update household")
		return
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return
	}

	h.hub.Broadcast(id, websocket.NewMessage("household", "updated", id, nil))
	writeJSON(w, http.StatusOK, household)
}
