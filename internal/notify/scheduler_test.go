package notify

import (
	"log/slog"
	"testing"
	"time"

	"github.com/ewhitfield/questboard/internal/database"
	"github.com/ewhitfield/questboard/internal/model"
	"github.com/ewhitfield/questboard/internal/store"
	"github.com/ewhitfield/questboard/internal/websocket"
)

func setupScheduler(t *testing.T) (*Scheduler, *store.QuestStore, *store.NotificationStore, string) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := store.NewUserStore(db)
	hs := store.NewHouseholdStore(db)
	u, err := us.Create("alex", "pw")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, _, err := hs.CreateWithOwner("Basecamp", u.ID, "alex", "")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	qs := store.NewQuestStore(db)
	ns := store.NewNotificationStore(db)
	hub := websocket.NewHub(slog.Default())
	sched := NewScheduler(qs, ns, hub, slog.Default(), time.Minute, 24*time.Hour)
	return sched, qs, ns, h.ID
}

func TestSweepRaisesOverdueAndDueSoon(t *testing.T) {
	sched, qs, ns, hid := setupScheduler(t)

	now := time.Now().UTC()
	past := now.Add(-2 * time.Hour)
	soon := now.Add(6 * time.Hour)
	far := now.Add(72 * time.Hour)

	overdueQuest, err := qs.Create(hid, "Overdue", "", 100, 2, model.QuestTypeMountain, model.QuestOpen, nil, nil, &past)
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}
	dueSoonQuest, err := qs.Create(hid, "Due soon", "", 100, 2, model.QuestTypeOcean, model.QuestOpen, nil, nil, &soon)
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}
	if _, err := qs.Create(hid, "Due later", "", 100, 2, model.QuestTypeOcean, model.QuestOpen, nil, nil, &far); err != nil {
		t.Fatalf("create quest: %v", err)
	}

	sched.Sweep(now)

	notifications, err := ns.ListByHousehold(hid)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) != 2 {
		t.Fatalf("got %d notifications, want 2", len(notifications))
	}

	byQuest := map[int64]string{}
	for _, n := range notifications {
		byQuest[n.QuestID] = n.Type
	}
	if byQuest[overdueQuest.ID] != model.NotificationOverdue {
		t.Errorf("quest %d type = %q, want %q", overdueQuest.ID, byQuest[overdueQuest.ID], model.NotificationOverdue)
	}
	if byQuest[dueSoonQuest.ID] != model.NotificationFallingBehind {
		t.Errorf("quest %d type = %q, want %q", dueSoonQuest.ID, byQuest[dueSoonQuest.ID], model.NotificationFallingBehind)
	}
}

func TestSweepDoesNotDuplicate(t *testing.T) {
	sched, qs, ns, hid := setupScheduler(t)

	now := time.Now().UTC()
	past := now.Add(-2 * time.Hour)
	if _, err := qs.Create(hid, "Overdue", "", 100, 2, model.QuestTypeMountain, model.QuestOpen, nil, nil, &past); err != nil {
		t.Fatalf("create quest: %v", err)
	}

	sched.Sweep(now)
	sched.Sweep(now.Add(time.Minute))
	sched.Sweep(now.Add(2 * time.Minute))

	notifications, err := ns.ListByHousehold(hid)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifications))
	}
}

func TestSweepSkipsCompletedQuests(t *testing.T) {
	sched, qs, ns, hid := setupScheduler(t)

	now := time.Now().UTC()
	past := now.Add(-2 * time.Hour)
	q, err := qs.Create(hid, "Done already", "", 100, 2, model.QuestTypeMountain, model.QuestOpen, nil, nil, &past)
	if err != nil {
		t.Fatalf("create quest: %v", err)
	}
	if _, err := qs.Complete(q.ID); err != nil {
		t.Fatalf("complete quest: %v", err)
	}

	sched.Sweep(now)

	notifications, err := ns.ListByHousehold(hid)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) != 0 {
		t.Fatalf("got %d notifications, want 0", len(notifications))
	}
}

func TestStartStop(t *testing.T) {
	sched, _, _, _ := setupScheduler(t)

	sched.Start(t.Context())
	sched.Stop()
	// Stopping twice must not panic or hang.
	sched.Stop()
}
