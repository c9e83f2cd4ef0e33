package store

import (
	"testing"

	"github.com/ewhitfield/questboard/internal/database"
	"github.com/ewhitfield/questboard/internal/model"
)

func setupNotificationTestDB(t *testing.T) (*NotificationStore, *QuestStore, string) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := NewUserStore(db)
	hs := NewHouseholdStore(db)
	u, err := us.Create("alex", "pw")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, _, err := hs.CreateWithOwner("Basecamp", u.ID, "alex", "")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return NewNotificationStore(db), NewQuestStore(db), h.ID
}

func TestNotificationCreateAndList(t *testing.T) {
	ns, qs, hid := setupNotificationTestDB(t)

	q, _ := qs.Create(hid, "Dishes", "", 150, 3, model.QuestTypeMountain, model.QuestOpen, nil, nil, nil)

	n, err := ns.Create(hid, q.ID, nil, model.NotificationOverdue, `Quest "Dishes" is overdue`)
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if n.Read {
		t.Error("new notification should be unread")
	}
	if n.Type != model.NotificationOverdue {
		t.Errorf("type = %q, want %q", n.Type, model.NotificationOverdue)
	}

	list, err := ns.ListByHousehold(hid)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(list) != 1 || list[0].ID != n.ID {
		t.Fatalf("list = %v, want just notification %d", list, n.ID)
	}
}

func TestNotificationMarkRead(t *testing.T) {
	ns, qs, hid := setupNotificationTestDB(t)

	q, _ := qs.Create(hid, "Dishes", "", 150, 3, model.QuestTypeMountain, model.QuestOpen, nil, nil, nil)
	n, _ := ns.Create(hid, q.ID, nil, model.NotificationFallingBehind, "Falling behind on Dishes")

	updated, err := ns.MarkRead(n.ID)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !updated.Read {
		t.Error("expected read = true")
	}
}

func TestNotificationExistsForQuest(t *testing.T) {
	ns, qs, hid := setupNotificationTestDB(t)

	q, _ := qs.Create(hid, "Dishes", "", 150, 3, model.QuestTypeMountain, model.QuestOpen, nil, nil, nil)

	exists, err := ns.ExistsForQuest(q.ID, model.NotificationOverdue)
	if err != nil {
		t.Fatalf("exists for quest: %v", err)
	}
	if exists {
		t.Error("expected no notification yet")
	}

	ns.Create(hid, q.ID, nil, model.NotificationOverdue, "overdue")

	exists, err = ns.ExistsForQuest(q.ID, model.NotificationOverdue)
	if err != nil {
		t.Fatalf("exists for quest: %v", err)
	}
	if !exists {
		t.Error("expected notification to exist")
	}

	// Type is part of the key: a falling_behind lookup still misses.
	exists, _ = ns.ExistsForQuest(q.ID, model.NotificationFallingBehind)
	if exists {
		t.Error("falling_behind should not match an overdue notification")
	}
}
