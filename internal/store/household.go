package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ewhitfield/questboard/internal/model"
)

// defaultOwnerTitle is given to the member profile created for a household's
// founder.
const defaultOwnerTitle = "Household Owner"

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Name, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const householdCols = `id, name, created_at, updated_at`

// CreateWithOwner inserts a household, stamps the creator's household
// reference, and adds the creator as its first member with the manager role.
// All three writes happen in one transaction so a crash can never leave a
// household without its founding member.
func (s *HouseholdStore) CreateWithOwner(name, userID, memberName, avatar string) (*model.Household, *model.Member, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	if _, err := tx.Exec(`INSERT INTO households (id, name) VALUES (?, ?)`, id, name); err != nil {
		return nil, nil, fmt.Errorf("insert household: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE users SET household_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id, userID,
	); err != nil {
		return nil, nil, fmt.Errorf("stamp creator household: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO members (household_id, user_id, name, avatar, title, role) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, memberName, avatar, defaultOwnerTitle, model.RoleManager,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("insert owner member: %w", err)
	}
	memberID, err := result.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}

	household, err := s.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, memberID)
	member, err := scanMember(row)
	if err != nil {
		return nil, nil, fmt.Errorf("get owner member: %w", err)
	}
	return household, member, nil
}

func (s *HouseholdStore) GetByID(id string) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) Update(id, name string) (*model.Household, error) {
	_, err := s.db.Exec(
		`UPDATE households SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update household: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM households WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return nil
}
