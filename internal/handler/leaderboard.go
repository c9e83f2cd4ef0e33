package handler

import (
	"log/slog"
	"net/http"

	"github.com/ewhitfield/questboard/internal/auth"
	"github.com/ewhitfield/questboard/internal/gamify"
	"github.com/ewhitfield/questboard/internal/store"
)

type LeaderboardHandler struct {
	memberStore *store.MemberStore
	logger      *slog.Logger
}

func NewLeaderboardHandler(ms *store.MemberStore, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{memberStore: ms, logger: logger}
}

// Get returns the household's members ordered by XP, annotated with rank and
// progress toward the next level.
func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if auth.HouseholdID(r.Context()) != id {
		writeError(w, http.StatusForbidden, "not a member of this household")
		return
	}

	members, err := h.memberStore.ListByHousehold(id)
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build leaderboard")
		return
	}

	entries := gamify.Leaderboard(members)
	if entries == nil {
		entries = []gamify.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
