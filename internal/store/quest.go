package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ewhitfield/questboard/internal/gamify"
	"github.com/ewhitfield/questboard/internal/model"
)

// ErrQuestNotOpen is returned by Claim when the quest has already been
// claimed or completed. A quest's status never moves backward.
var ErrQuestNotOpen = errors.New("quest is not open")

type QuestStore struct {
	db *sql.DB
}

func NewQuestStore(db *sql.DB) *QuestStore {
	return &QuestStore{db: db}
}

func scanQuest(scanner interface{ Scan(...any) error }) (*model.Quest, error) {
	var q model.Quest
	var assigneeID sql.NullInt64
	var dueDate sql.NullTime
	var steps string

	err := scanner.Scan(
		&q.ID, &q.HouseholdID, &q.Title, &q.Description, &q.XP, &q.Difficulty,
		&q.Type, &q.Status, &assigneeID, &steps, &dueDate, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assigneeID.Valid {
		q.AssigneeID = &assigneeID.Int64
	}
	if dueDate.Valid {
		q.DueDate = &dueDate.Time
	}
	if err := json.Unmarshal([]byte(steps), &q.Steps); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	if q.Steps == nil {
		q.Steps = []string{}
	}
	return &q, nil
}

const questCols = `id, household_id, title, description, xp, difficulty, type, status, assignee_id, steps, due_date, created_at, updated_at`

func encodeSteps(steps []string) (string, error) {
	if steps == nil {
		steps = []string{}
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return "", fmt.Errorf("encode steps: %w", err)
	}
	return string(data), nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.UTC(), Valid: true}
}

func (s *QuestStore) Create(householdID, title, description string, xp, difficulty int, questType, status string, assigneeID *int64, steps []string, dueDate *time.Time) (*model.Quest, error) {
	encoded, err := encodeSteps(steps)
	if err != nil {
		return nil, err
	}

	result, err := s.db.Exec(
		`INSERT INTO quests (household_id, title, description, xp, difficulty, type, status, assignee_id, steps, due_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		householdID, title, description, xp, difficulty, questType, status,
		nullInt64(assigneeID), encoded, nullTime(dueDate),
	)
	if err != nil {
		return nil, fmt.Errorf("insert quest: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *QuestStore) GetByID(id int64) (*model.Quest, error) {
	row := s.db.QueryRow(`SELECT `+questCols+` FROM quests WHERE id = ?`, id)
	q, err := scanQuest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quest: %w", err)
	}
	return q, nil
}

func (s *QuestStore) ListByHousehold(householdID string) ([]model.Quest, error) {
	rows, err := s.db.Query(
		`SELECT `+questCols+` FROM quests WHERE household_id = ? ORDER BY id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	defer rows.Close()

	var quests []model.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quest: %w", err)
		}
		quests = append(quests, *q)
	}
	return quests, rows.Err()
}

func (s *QuestStore) Update(id int64, title, description string, xp, difficulty int, questType, status string, assigneeID *int64, steps []string, dueDate *time.Time) (*model.Quest, error) {
	encoded, err := encodeSteps(steps)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(
		`UPDATE quests SET title = ?, description = ?, xp = ?, difficulty = ?, type = ?, status = ?, assignee_id = ?, steps = ?, due_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, description, xp, difficulty, questType, status,
		nullInt64(assigneeID), encoded, nullTime(dueDate), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update quest: %w", err)
	}
	return s.GetByID(id)
}

func (s *QuestStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM quests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete quest: %w", err)
	}
	return nil
}

// Claim moves an open quest to in-progress and assigns it to the claiming
// member. The guard on status lives in the UPDATE itself, so two racing
// claims cannot both succeed: the loser sees zero rows affected and gets
// ErrQuestNotOpen.
func (s *QuestStore) Claim(id, memberID int64) (*model.Quest, error) {
	result, err := s.db.Exec(
		`UPDATE quests SET status = ?, assignee_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		model.QuestInProgress, memberID, id, model.QuestOpen,
	)
	if err != nil {
		return nil, fmt.Errorf("claim quest: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrQuestNotOpen
	}
	return s.GetByID(id)
}

// Complete marks a quest completed and credits its XP reward to the assignee,
// recomputing the assignee's level, all in one transaction. Completing an
// already-completed quest is a no-op that returns the stored representation
// unchanged.
func (s *QuestStore) Complete(id int64) (*model.Quest, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+questCols+` FROM quests WHERE id = ?`, id)
	q, err := scanQuest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quest: %w", err)
	}

	if q.Status == model.QuestCompleted {
		return q, nil
	}

	if _, err := tx.Exec(
		`UPDATE quests SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.QuestCompleted, id,
	); err != nil {
		return nil, fmt.Errorf("complete quest: %w", err)
	}

	if q.AssigneeID != nil {
		var xp int
		err := tx.QueryRow(`SELECT xp FROM members WHERE id = ?`, *q.AssigneeID).Scan(&xp)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("get assignee xp: %w", err)
		}
		if err == nil {
			newXP := xp + q.XP
			if _, err := tx.Exec(
				`UPDATE members SET xp = ?, level = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				newXP, gamify.Level(newXP), *q.AssigneeID,
			); err != nil {
				return nil, fmt.Errorf("award xp: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// ListOverdue returns uncompleted quests whose due date has passed.
func (s *QuestStore) ListOverdue(now time.Time) ([]model.Quest, error) {
	rows, err := s.db.Query(
		`SELECT `+questCols+` FROM quests WHERE status != ? AND due_date IS NOT NULL AND due_date < ?`,
		model.QuestCompleted, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list overdue quests: %w", err)
	}
	defer rows.Close()

	var quests []model.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quest: %w", err)
		}
		quests = append(quests, *q)
	}
	return quests, rows.Err()
}

// ListDueWithin returns uncompleted quests due between now and now+window.
func (s *QuestStore) ListDueWithin(now time.Time, window time.Duration) ([]model.Quest, error) {
	rows, err := s.db.Query(
		`SELECT `+questCols+` FROM quests WHERE status != ? AND due_date IS NOT NULL AND due_date >= ? AND due_date < ?`,
		model.QuestCompleted, now.UTC(), now.Add(window).UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list due quests: %w", err)
	}
	defer rows.Close()

	var quests []model.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quest: %w", err)
		}
		quests = append(quests, *q)
	}
	return quests, rows.Err()
}
