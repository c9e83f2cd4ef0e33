package handler

import (
	"log/slog"
	"net/http"

	"github.com/ewhitfield/questboard/internal/auth"
	"github.com/ewhitfield/questboard/internal/model"
	"github.com/ewhitfield/questboard/internal/store"
)

// callerMember resolves the caller's member row in their household, writing
// the error response itself when the lookup fails or the caller has no
// member profile.
func callerMember(w http.ResponseWriter, ms *store.MemberStore, ac auth.AuthContext, logger *slog.Logger) *model.Member {
	if ac.HouseholdID == "" {
		writeError(w, http.StatusForbidden, "not in a household")
		return nil
	}
	member, err := ms.GetByUser(ac.HouseholdID, ac.UserID)
	if err != nil {
		logger.Error("member lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check permissions")
		return nil
	}
	if member == nil {
		writeError(w, http.StatusForbidden, "no member profile in this household")
		return nil
	}
	return member
}

// requireManager is callerMember plus a manager role check.
func requireManager(w http.ResponseWriter, ms *store.MemberStore, ac auth.AuthContext, logger *slog.Logger) *model.Member {
	member := callerMember(w, ms, ac, logger)
	if member == nil {
		return nil
	}
	if member.Role != model.RoleManager {
		writeError(w, http.StatusForbidden, "manager role required")
		return nil
	}
	return member
}
