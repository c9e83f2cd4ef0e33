package store

import (
	"database/sql"
	"fmt"

	"github.com/ewhitfield/questboard/internal/model"
)

type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func scanNotification(scanner interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	var memberID sql.NullInt64
	var read int

	err := scanner.Scan(
		&n.ID, &n.HouseholdID, &n.QuestID, &memberID, &n.Type, &n.Message,
		&read, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if memberID.Valid {
		n.MemberID = &memberID.Int64
	}
	n.Read = read != 0
	return &n, nil
}

const notificationCols = `id, household_id, quest_id, member_id, type, message, read, created_at`

func (s *NotificationStore) Create(householdID string, questID int64, memberID *int64, ntype, message string) (*model.Notification, error) {
	result, err := s.db.Exec(
		`INSERT INTO notifications (household_id, quest_id, member_id, type, message) VALUES (?, ?, ?, ?, ?)`,
		householdID, questID, nullInt64(memberID), ntype, message,
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *NotificationStore) GetByID(id int64) (*model.Notification, error) {
	row := s.db.QueryRow(`SELECT `+notificationCols+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

func (s *NotificationStore) ListByHousehold(householdID string) ([]model.Notification, error) {
	rows, err := s.db.Query(
		`SELECT `+notificationCols+` FROM notifications WHERE household_id = ? ORDER BY created_at DESC, id DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (s *NotificationStore) MarkRead(id int64) (*model.Notification, error) {
	_, err := s.db.Exec(`UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return s.GetByID(id)
}

// ExistsForQuest reports whether a notification of the given type has already
// been recorded for the quest. The overdue sweep uses this to avoid piling up
// duplicates on every pass.
func (s *NotificationStore) ExistsForQuest(questID int64, ntype string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notifications WHERE quest_id = ? AND type = ?`,
		questID, ntype,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count notifications: %w", err)
	}
	return count > 0, nil
}

func (s *NotificationStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}
