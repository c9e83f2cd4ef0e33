package store

import (
	"database/sql"
	"fmt"

	"github.com/ewhitfield/questboard/internal/model"
)

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	err := scanner.Scan(
		&m.ID, &m.HouseholdID, &m.UserID, &m.Name, &m.Avatar, &m.Title,
		&m.Role, &m.XP, &m.Level, &m.Streak, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const memberCols = `id, household_id, user_id, name, avatar, title, role, xp, level, streak, created_at, updated_at`

func (s *MemberStore) Add(householdID, userID, name, avatar, title, role string) (*model.Member, error) {
	result, err := s.db.Exec(
		`INSERT INTO members (household_id, user_id, name, avatar, title, role) VALUES (?, ?, ?, ?, ?, ?)`,
		householdID, userID, name, avatar, title, role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) GetByID(id int64) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// GetByUser finds the member profile a user holds in a household, if any.
func (s *MemberStore) GetByUser(householdID, userID string) (*model.Member, error) {
	row := s.db.QueryRow(
		`SELECT `+memberCols+` FROM members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by user: %w", err)
	}
	return m, nil
}

func (s *MemberStore) ListByHousehold(householdID string) ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM members WHERE household_id = ? ORDER BY id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *MemberStore) Update(id int64, name, avatar, title, role string, xp, level, streak int) (*model.Member, error) {
	_, err := s.db.Exec(
		`UPDATE members SET name = ?, avatar = ?, title = ?, role = ?, xp = ?, level = ?, streak = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, avatar, title, role, xp, level, streak, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return s.GetByID(id)
}

// Remove deletes a member. Any quest assigned to the member has its assignee
// cleared first, in the same transaction, so no quest is ever left pointing
// at a missing member.
func (s *MemberStore) Remove(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE quests SET assignee_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE assignee_id = ?`,
		id,
	); err != nil {
		return fmt.Errorf("clear quest assignments: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM members WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}

	return tx.Commit()
}
