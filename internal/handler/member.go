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

type MemberHandler struct {
	memberStore *store.MemberStore
	userStore   *store.UserStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewMemberHandler(ms *store.MemberStore, us *store.UserStore, hub *websocket.Hub, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{memberStore: ms, userStore: us, hub: hub, logger: logger}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if auth.HouseholdID(r.Context()) != id {
		writeError(w, http.StatusForbidden, "not a member of this household")
		return
	}

	members, err := h.memberStore.ListByHousehold(id)
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

type addMemberRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Title  string `json:"title"`
	Role   string `json:"role"`
	UserID string `json:"user_id"`
}

// Add creates a member profile in the household. Manager only. The profile
// may be unbound (no user_id) for household members without their own login.
func (h *MemberHandler) Add(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ac, _ := auth.FromContext(r.Context())
	if ac.HouseholdID != id {
		writeError(w, http.StatusForbidden, "not a member of this household")
		return
	}
	if requireManager(w, h.memberStore, ac, h.logger) == nil {
		return
	}

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleMember
	}
	if !model.ValidRole(req.Role) {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	// Binding a user pulls them into the household.
	if req.UserID != "" {
		user, err := h.userStore.GetByID(req.UserID)
		if err != nil {
			h.logger.Error("user lookup", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to add member")
			return
		}
		if user == nil {
			writeError(w, http.StatusBadRequest, "user not found")
			return
		}
		if user.HouseholdID != nil && *user.HouseholdID != id {
			writeError(w, http.StatusBadRequest, "user already belongs to a household")
			return
		}
		if err := h.userStore.SetHousehold(req.UserID, id); err != nil {
			h.logger.Error("set household", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to add member")
			return
		}
	}

	member, err := h.memberStore.Add(id, req.UserID, req.Name, req.Avatar, req.Title, req.Role)
	if err != nil {
		h.logger.Error("add member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add member")
		return
	}

	h.hub.Broadcast(id, websocket.NewMessage("member", "added", member.ID, nil))
	writeJSON(w, http.StatusCreated, member)
}

// memberPatch carries a partial update. Absent fields keep their values.
type memberPatch struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
	Title  *string `json:"title"`
	Role   *string `json:"role"`
	Streak *int    `json:"streak"`
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ac, _ := auth.FromContext(r.Context())

	existing, err := h.memberStore.GetByID(id)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if existing == nil || existing.HouseholdID != ac.HouseholdID {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	var patch memberPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	// Editing your own profile is always allowed; everything else, and any
	// role or streak change, needs the manager role.
	needsManager := existing.UserID != ac.UserID || patch.Role != nil || patch.Streak != nil
	if needsManager && requireManager(w, h.memberStore, ac, h.logger) == nil {
		return
	}

	updated := *existing
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
		if updated.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
	}
	if patch.Avatar != nil {
		updated.Avatar = *patch.Avatar
	}
	if patch.Title != nil {
		updated.Title = *patch.Title
	}
	if patch.Role != nil {
		if !model.ValidRole(*patch.Role) {
			writeError(w, http.StatusBadRequest, "invalid role")
			return
		}
		updated.Role = *patch.Role
	}
	if patch.Streak != nil {
		if *patch.Streak < 0 {
			writeError(w, http.StatusBadRequest, "streak must not be negative")
			return
		}
		updated.Streak = *patch.Streak
	}

	member, err := h.memberStore.Update(id, updated.Name, updated.Avatar, updated.Title, updated.Role, updated.XP, updated.Level, updated.Streak)
	if err != nil {
		h.logger.Error("update member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("member", "updated", id, nil))
	writeJSON(w, http.StatusOK, member)
}

// Remove deletes a member and releases any quests assigned to them. Manager
// only, and a manager cannot remove themselves.
func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ac, _ := auth.FromContext(r.Context())

	existing, err := h.memberStore.GetByID(id)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if existing == nil || existing.HouseholdID != ac.HouseholdID {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	caller := requireManager(w, h.memberStore, ac, h.logger)
	if caller == nil {
		return
	}
	if caller.ID == id {
		writeError(w, http.StatusBadRequest, "cannot remove yourself")
		return
	}

	if err := h.memberStore.Remove(id); err != nil {
		h.logger.Error("remove member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}
	if existing.UserID != "" {
		if err := h.userStore.ClearHousehold(existing.UserID); err != nil {
			h.logger.Error("clear household", "error", err)
		}
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("member", "removed", id, nil))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
