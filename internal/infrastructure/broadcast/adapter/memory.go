package adapter

import (
	"context"
	"sync"

	"github.com/yasirimran733/campus-connect/internal/infrastructure/broadcast/port"
)

// MemoryBroadcaster is the in-process broadcast backend, suitable for a single
// api instance. A single mutex guards membership and publishing: group count
// scales with active conversations, so contention stays low, and holding the
// lock through Publish keeps payloads from two senders from interleaving.
type MemoryBroadcaster struct {
	mu          sync.Mutex
	groups      map[string]map[string]port.Subscriber // group -> subscriber key -> subscriber
	memberships map[string]map[string]struct{}        // subscriber key -> set of groups
}

// NewMemoryBroadcaster constructs an initialized MemoryBroadcaster.
func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{
		groups:      make(map[string]map[string]port.Subscriber),
		memberships: make(map[string]map[string]struct{}),
	}
}

var _ port.Broadcaster = (*MemoryBroadcaster)(nil)

func (b *MemoryBroadcaster) Join(group string, sub port.Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	members := b.groups[group]
	if members == nil {
		members = make(map[string]port.Subscriber)
		b.groups[group] = members
	}
	members[sub.Key()] = sub

	joined := b.memberships[sub.Key()]
	if joined == nil {
		joined = make(map[string]struct{})
		b.memberships[sub.Key()] = joined
	}
	joined[group] = struct{}{}
}

func (b *MemoryBroadcaster) Leave(group string, sub port.Subscriber) {
	b.mu.Lock()
	b.leaveLocked(group, sub.Key())
	b.mu.Unlock()
}

func (b *MemoryBroadcaster) LeaveAll(sub port.Subscriber) {
	b.mu.Lock()
	for group := range b.memberships[sub.Key()] {
		b.leaveLocked(group, sub.Key())
	}
	b.mu.Unlock()
}

func (b *MemoryBroadcaster) Publish(_ context.Context, group string, payload []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0
	for _, sub := range b.groups[group] {
		if err := sub.Deliver(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

func (b *MemoryBroadcaster) Close() error {
	b.mu.Lock()
	b.groups = make(map[string]map[string]port.Subscriber)
	b.memberships = make(map[string]map[string]struct{})
	b.mu.Unlock()
	return nil
}

func (b *MemoryBroadcaster) leaveLocked(group, key string) {
	members := b.groups[group]
	if members == nil {
		return
	}
	delete(members, key)
	if len(members) == 0 {
		delete(b.groups, group)
	}
	if joined, ok := b.memberships[key]; ok {
		delete(joined, group)
		if len(joined) == 0 {
			delete(b.memberships, key)
		}
	}
}
