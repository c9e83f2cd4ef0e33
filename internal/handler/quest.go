package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ewhitfield/questboard/internal/auth"
	"github.com/ewhitfield/questboard/internal/model"
	"github.com/ewhitfield/questboard/internal/store"
	"github.com/ewhitfield/questboard/internal/websocket"
)

const defaultQuestXP = 100

type QuestHandler struct {
	questStore  *store.QuestStore
	memberStore *store.MemberStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewQuestHandler(qs *store.QuestStore, ms *store.MemberStore, hub *websocket.Hub, logger *slog.Logger) *QuestHandler {
	return &QuestHandler{questStore: qs, memberStore: ms, hub: hub, logger: logger}
}

func (h *QuestHandler) List(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if auth.HouseholdID(r.Context()) != id {
		writeError(w, http.StatusForbidden, "not a member of this household")
		return
	}

	quests, err := h.questStore.ListByHousehold(id)
	if err != nil {
		h.logger.Error("list quests", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list quests")
		return
	}
	if quests == nil {
		quests = []model.Quest{}
	}
	writeJSON(w, http.StatusOK, quests)
}

type createQuestRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	XP          int        `json:"xp"`
	Difficulty  int        `json:"difficulty"`
	Type        string     `json:"type"`
	AssigneeID  *int64     `json:"assignee_id"`
	Steps       []string   `json:"steps"`
	DueDate     *time.Time `json:"due_date"`
}

func (h *QuestHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ac, _ := auth.FromContext(r.Context())
	if ac.HouseholdID != id {
		writeError(w, http.StatusForbidden, "not a member of this household")
		return
	}
	if requireManager(w, h.memberStore, ac, h.logger) == nil {
		return
	}

	var req createQuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.XP == 0 {
		req.XP = defaultQuestXP
	}
	if req.XP < 0 {
		writeError(w, http.StatusBadRequest, "xp must be positive")
		return
	}
	if req.Difficulty == 0 {
		req.Difficulty = 1
	}
	if req.Difficulty < 1 || req.Difficulty > 5 {
		writeError(w, http.StatusBadRequest, "difficulty must be between 1 and 5")
		return
	}
	if req.Type == "" {
		req.Type = model.QuestTypeMountain
	}
	if !model.ValidQuestType(req.Type) {
		writeError(w, http.StatusBadRequest, "invalid quest type")
		return
	}

	// A quest born with an assignee starts in progress.
	status := model.QuestOpen
	if req.AssigneeID != nil {
		if !h.assigneeInHousehold(w, *req.AssigneeID, id) {
			return
		}
		status = model.QuestInProgress
	}

	quest, err := h.questStore.Create(id, req.Title, req.Description, req.XP, req.Difficulty, req.Type, status, req.AssigneeID, req.Steps, req.DueDate)
	if err != nil {
		h.logger.Error("create quest", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create quest")
		return
	}

	h.hub.Broadcast(id, websocket.NewMessage("quest", "created", quest.ID, nil))
	writeJSON(w, http.StatusCreated, quest)
}

// questPatch carries a partial update. Absent fields keep their values.
type questPatch struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	XP            *int       `json:"xp"`
	Difficulty    *int       `json:"difficulty"`
	Type          *string    `json:"type"`
	Status        *string    `json:"status"`
	AssigneeID    *int64     `json:"assignee_id"`
	ClearAssignee bool       `json:"clear_assignee"`
	Steps         *[]string  `json:"steps"`
	DueDate       *time.Time `json:"due_date"`
	ClearDueDate  bool       `json:"clear_due_date"`
}

func (h *QuestHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ac, _ := auth.FromContext(r.Context())

	existing, err := h.questStore.GetByID(id)
	if err != nil {
		h.logger.Error("get quest", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get quest")
		return
	}
	if existing == nil || existing.HouseholdID != ac.HouseholdID {
		writeError(w, http.StatusNotFound, "quest not found")
		return
	}

	if requireManager(w, h.memberStore, ac, h.logger) == nil {
		return
	}

	var patch questPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	updated := *existing
	if patch.Title != nil {
		updated.Title = strings.TrimSpace(*patch.Title)
		if updated.Title == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.XP != nil {
		if *patch.XP <= 0 {
			writeError(w, http.StatusBadRequest, "xp must be positive")
			return
		}
		updated.XP = *patch.XP
	}
	if patch.Difficulty != nil {
		if *patch.Difficulty < 1 || *patch.Difficulty > 5 {
			writeError(w, http.StatusBadRequest, "difficulty must be between 1 and 5")
			return
		}
		updated.Difficulty = *patch.Difficulty
	}
	if patch.Type != nil {
		if !model.ValidQuestType(*patch.Type) {
			writeError(w, http.StatusBadRequest, "invalid quest type")
			return
		}
		updated.Type = *patch.Type
	}
	if patch.Status != nil {
		if !model.ValidQuestStatus(*patch.Status) {
			writeError(w, http.StatusBadRequest, "invalid quest status")
			return
		}
		updated.Status = *patch.Status
	}
	if patch.AssigneeID != nil {
		if !h.assigneeInHousehold(w, *patch.AssigneeID, ac.HouseholdID) {
			return
		}
		updated.AssigneeID = patch.AssigneeID
	} else if patch.ClearAssignee {
		updated.AssigneeID = nil
	}
	if patch.Steps != nil {
		updated.Steps = *patch.Steps
	}
	if patch.DueDate != nil {
		updated.DueDate = patch.DueDate
	} else if patch.ClearDueDate {
		updated.DueDate = nil
	}

	quest, err := h.questStore.Update(id, updated.Title, updated.Description, updated.XP, updated.Difficulty, updated.Type, updated.Status, updated.AssigneeID, updated.Steps, updated.DueDate)
	if err != nil {
		h.logger.Error("update quest", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update quest")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("quest", "updated", id, nil))
	writeJSON(w, http.StatusOK, quest)
}

func (h *QuestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ac, _ := auth.FromContext(r.Context())

	existing, err := h.questStore.GetByID(id)
	if err != nil {
		h.logger.Error("get quest", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get quest")
		return
	}
	if existing == nil || existing.HouseholdID != ac.HouseholdID {
		writeError(w, http.StatusNotFound, "quest not found")
		return
	}

	if requireManager(w, h.memberStore, ac, h.logger) == nil {
		return
	}

	if err := h.questStore.Delete(id); err != nil {
		h.logger.Error("delete quest", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete quest")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("quest", "deleted", id, nil))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Claim moves an open quest to in-progress with the caller's member profile
// as assignee. Claiming a quest that is not open is a conflict.
func (h *QuestHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ac, _ := auth.FromContext(r.Context())

	existing, err := h.questStore.GetByID(id)
	if err != nil {
		h.logger.Error("get quest", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get quest")
		return
	}
	if existing == nil || existing.HouseholdID != ac.HouseholdID {
		writeError(w, http.StatusNotFound, "quest not found")
		return
	}

	member := callerMember(w, h.memberStore, ac, h.logger)
	if member == nil {
		return
	}

	quest, err := h.questStore.Claim(id, member.ID)
	if err != nil {
		if errors.Is(err, store.ErrQuestNotOpen) {
			writeError(w, http.StatusConflict, "quest is not open")
			return
		}
		h.logger.Error("claim quest", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to claim quest")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("quest", "claimed", id, map[string]any{"assignee_id": member.ID}))
	writeJSON(w, http.StatusOK, quest)
}

// Complete marks a quest completed and awards its XP to the assignee.
// Completing an already-completed quest is a no-op that returns the quest
// unchanged, so retries cannot double-award XP.
func (h *QuestHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ac, _ := auth.FromContext(r.Context())

	existing, err := h.questStore.GetByID(id)
	if err != nil {
		h.logger.Error("get quest", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get quest")
		return
	}
	if existing == nil || existing.HouseholdID != ac.HouseholdID {
		writeError(w, http.StatusNotFound, "quest not found")
		return
	}

	member := callerMember(w, h.memberStore, ac, h.logger)
	if member == nil {
		return
	}
	// Only the assignee or a manager may complete.
	if member.Role != model.RoleManager && (existing.AssigneeID == nil || *existing.AssigneeID != member.ID) {
		writeError(w, http.StatusForbidden, "only the assignee can complete this quest")
		return
	}

	quest, err := h.questStore.Complete(id)
	if err != nil {
		h.logger.Error("complete quest", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to complete quest")
		return
	}

	extra := map[string]any{}
	if quest.AssigneeID != nil {
		extra["assignee_id"] = *quest.AssigneeID
	}
	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("quest", "completed", id, extra))
	writeJSON(w, http.StatusOK, quest)
}

// assigneeInHousehold validates that a member id belongs to the household,
// writing the error response itself on failure.
func (h *QuestHandler) assigneeInHousehold(w http.ResponseWriter, memberID int64, householdID string) bool {
	member, err := h.memberStore.GetByID(memberID)
	if err != nil {
		h.logger.Error("assignee lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check assignee")
		return false
	}
	if member == nil || member.HouseholdID != householdID {
		writeError(w, http.StatusBadRequest, "assignee not found")
		return false
	}
	return true
}
