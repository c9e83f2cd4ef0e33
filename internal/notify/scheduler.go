package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ewhitfield/questboard/internal/model"
	"github.com/ewhitfield/questboard/internal/store"
	"github.com/ewhitfield/questboard/internal/websocket"
)

// Scheduler periodically scans quests and raises notifications for the ones
// past their due date or coming due soon. Each quest gets at most one
// notification per type, so repeated sweeps never duplicate rows.
type Scheduler struct {
	mu            sync.RWMutex
	quests        *store.QuestStore
	notifications *store.NotificationStore
	hub           *websocket.Hub
	logger        *slog.Logger
	interval      time.Duration
	dueSoonWindow time.Duration
	cancel        context.CancelFunc
	done          chan struct{}
}

// NewScheduler creates a notification scheduler.
func NewScheduler(qs *store.QuestStore, ns *store.NotificationStore, hub *websocket.Hub, logger *slog.Logger, interval, dueSoonWindow time.Duration) *Scheduler {
	return &Scheduler{
		quests:        qs,
		notifications: ns,
		hub:           hub,
		logger:        logger,
		interval:      interval,
		dueSoonWindow: dueSoonWindow,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(time.Now().UTC())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Sweep runs one scan at the given time. Exported so a sweep can be forced
// without waiting for the ticker.
func (s *Scheduler) Sweep(now time.Time) {
	overdue, err := s.quests.ListOverdue(now)
	if err != nil {
		s.logger.Error("list overdue quests", "error", err)
	} else {
		for i := range overdue {
			s.raise(&overdue[i], model.NotificationOverdue, fmt.Sprintf("%q is overdue", overdue[i].Title))
		}
	}

	dueSoon, err := s.quests.ListDueWithin(now, s.dueSoonWindow)
	if err != nil {
		s.logger.Error("list due-soon quests", "error", err)
		return
	}
	for i := range dueSoon {
		s.raise(&dueSoon[i], model.NotificationFallingBehind, fmt.Sprintf("%q is due soon", dueSoon[i].Title))
	}
}

func (s *Scheduler) raise(quest *model.Quest, ntype, message string) {
	exists, err := s.notifications.ExistsForQuest(quest.ID, ntype)
	if err != nil {
		s.logger.Error("check notification", "error", err, "quest_id", quest.ID)
		return
	}
	if exists {
		return
	}

	notification, err := s.notifications.Create(quest.HouseholdID, quest.ID, quest.AssigneeID, ntype, message)
	if err != nil {
		s.logger.Error("create notification", "error", err, "quest_id", quest.ID)
		return
	}

	s.hub.Broadcast(quest.HouseholdID, websocket.NewMessage("notification", "created", notification.ID, map[string]any{
		"quest_id": quest.ID,
		"type":     ntype,
	}))
}
