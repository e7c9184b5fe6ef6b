package village

import (
	"container/heap"
	"sort"
	"time"

	"github.com/napolitain/village-sim/internal/models"
)

// queuedEvent is an active event with its insertion sequence
type queuedEvent struct {
	event    models.ActiveEvent
	sequence int64
}

// eventHeap implements heap.Interface for a min-heap of active events
type eventHeap []queuedEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	// Sort by expiry first
	if !h[i].event.ExpiresAt.Equal(h[j].event.ExpiresAt) {
		return h[i].event.ExpiresAt.Before(h[j].event.ExpiresAt)
	}
	// Then by insertion order for stability
	return h[i].sequence < h[j].sequence
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(queuedEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// EventQueue holds active events ordered by (expiry, insertion order)
type EventQueue struct {
	h        eventHeap
	sequence int64
}

// NewEventQueue creates a new empty event queue
func NewEventQueue() *EventQueue {
	q := &EventQueue{
		h: make(eventHeap, 0),
	}
	heap.Init(&q.h)
	return q
}

// Push adds an active event
func (q *EventQueue) Push(e models.ActiveEvent) {
	q.sequence++
	heap.Push(&q.h, queuedEvent{event: e, sequence: q.sequence})
}

// PopExpired removes and returns every event that has expired at now, in
// expiry order
func (q *EventQueue) PopExpired(now time.Time) []models.ActiveEvent {
	var expired []models.ActiveEvent
	for len(q.h) > 0 && q.h[0].event.IsExpired(now) {
		expired = append(expired, heap.Pop(&q.h).(queuedEvent).event)
	}
	return expired
}

// Active reports whether an instance of the definition is running
func (q *EventQueue) Active(definitionID string) bool {
	for _, qe := range q.h {
		if qe.event.Definition.ID == definitionID {
			return true
		}
	}
	return false
}

// Len returns the number of active events
func (q *EventQueue) Len() int {
	return len(q.h)
}

// Events returns a copy of the active events in start order
func (q *EventQueue) Events() []models.ActiveEvent {
	ordered := make([]queuedEvent, len(q.h))
	copy(ordered, q.h)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].sequence < ordered[j].sequence
	})

	result := make([]models.ActiveEvent, len(ordered))
	for i, qe := range ordered {
		result[i] = qe.event
	}
	return result
}

// SettleEvents applies the rewards of every event expired at now. It returns
// the still-running events in their original order, the updated balances and
// one settlement per expired event. Events already removed are never paid
// again, so calling it repeatedly with its own output is idempotent.
func SettleEvents(now time.Time, active []models.ActiveEvent, balances models.Resources) ([]models.ActiveEvent, models.Resources, []models.Settlement) {
	q := NewEventQueue()
	for _, e := range active {
		q.Push(e)
	}

	expired := q.PopExpired(now)
	settlements := make([]models.Settlement, 0, len(expired))
	for _, e := range expired {
		balances = balances.Add(e.Definition.Rewards.Resources())
		settlements = append(settlements, models.Settlement{
			EventID:    e.ID,
			Definition: e.Definition.ID,
			BuildingID: e.BuildingID,
			ExpiredAt:  e.ExpiresAt,
			Rewards:    e.Definition.Rewards,
		})
	}

	return q.Events(), balances, settlements
}
