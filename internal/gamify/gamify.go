// Package gamify computes the derived progression values shown on the
// leaderboard and profile screens. Nothing here is persisted; members carry
// raw XP and these functions turn it into levels, progress bars, and ranks.
package gamify

import (
	"sort"

	"github.com/ewhitfield/questboard/internal/model"
)

// XPPerLevel is the fixed width of every level band.
const XPPerLevel = 1000

// Level returns the level for a given XP total: 0-999 XP is level 1,
// 1000-1999 is level 2, and so on.
func Level(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// Progress returns how far through the current level band the XP total is,
// as a percentage in [0, 100).
func Progress(xp int) float64 {
	if xp < 0 {
		xp = 0
	}
	return float64(xp%XPPerLevel) / 10
}

// XPToNext returns the XP still needed to reach the next level.
func XPToNext(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return XPPerLevel - xp%XPPerLevel
}

// Entry is a member annotated with its leaderboard position and level
// progress.
type Entry struct {
	model.Member
	Rank     int     `json:"rank"`
	Progress float64 `json:"progress"`
}

// Leaderboard sorts members by XP descending and annotates each with rank
// and level progress. The sort is stable: equal-XP members keep their input
// order. Ranks use competition numbering, so equal-XP members share a rank.
func Leaderboard(members []model.Member) []Entry {
	sorted := make([]model.Member, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].XP > sorted[j].XP
	})

	entries := make([]Entry, len(sorted))
	for i, m := range sorted {
		rank := i + 1
		if i > 0 && m.XP == sorted[i-1].XP {
			rank = entries[i-1].Rank
		}
		entries[i] = Entry{Member: m, Rank: rank, Progress: Progress(m.XP)}
	}
	return entries
}

// Rank returns the position a member with the given XP holds among the
// members: one more than the count of members with strictly higher XP.
func Rank(members []model.Member, xp int) int {
	rank := 1
	for _, m := range members {
		if m.XP > xp {
			rank++
		}
	}
	return rank
}
