package adapter

import (
	"context"
	"sync"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yasirimran733/campus-connect/internal/infrastructure/broadcast/port"
)

// RedisBroadcaster fans payloads out across api instances through Redis
// pub/sub, one channel per group. Local members are tracked the same way the
// in-memory backend tracks them; delivery always flows through the pub/sub
// loop, so payloads reach local and remote members along the same path and
// Redis's per-channel ordering carries the per-group publish order.
type RedisBroadcaster struct {
	client *redis.Client
	pubsub *redis.PubSub
	log    *logrus.Logger

	mu          sync.Mutex
	groups      map[string]map[string]port.Subscriber
	memberships map[string]map[string]struct{}
}

// NewRedisBroadcaster subscribes on the given client and starts the dispatch
// loop. The client is shared with the rest of the application and not closed
// here.
func NewRedisBroadcaster(client *redis.Client, log *logrus.Logger) *RedisBroadcaster {
	b := &RedisBroadcaster{
		client:      client,
		pubsub:      client.Subscribe(context.Background()),
		log:         log,
		groups:      make(map[string]map[string]port.Subscriber),
		memberships: make(map[string]map[string]struct{}),
	}
	go b.dispatch()
	return b
}

var _ port.Broadcaster = (*RedisBroadcaster)(nil)

func (b *RedisBroadcaster) Join(group string, sub port.Subscriber) {
	b.mu.Lock()
	members := b.groups[group]
	first := members == nil
	if first {
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
	b.mu.Unlock()

	if first {
		if err := b.pubsub.Subscribe(context.Background(), group); err != nil {
			b.log.WithError(err).WithField("group", group).Error("broadcast: redis subscribe failed")
		}
	}
}

func (b *RedisBroadcaster) Leave(group string, sub port.Subscriber) {
	b.mu.Lock()
	empty := b.leaveLocked(group, sub.Key())
	b.mu.Unlock()

	if empty {
		if err := b.pubsub.Unsubscribe(context.Background(), group); err != nil {
			b.log.WithError(err).WithField("group", group).Error("broadcast: redis unsubscribe failed")
		}
	}
}

func (b *RedisBroadcaster) LeaveAll(sub port.Subscriber) {
	b.mu.Lock()
	var emptied []string
	for group := range b.memberships[sub.Key()] {
		if b.leaveLocked(group, sub.Key()) {
			emptied = append(emptied, group)
		}
	}
	b.mu.Unlock()

	if len(emptied) > 0 {
		if err := b.pubsub.Unsubscribe(context.Background(), emptied...); err != nil {
			b.log.WithError(err).Error("broadcast: redis unsubscribe failed")
		}
	}
}

// Publish sends the payload through Redis; local members receive it via the
// dispatch loop like everyone else. The return value counts subscribed
// instances, which callers only use as a delivered-anywhere signal.
func (b *RedisBroadcaster) Publish(ctx context.Context, group string, payload []byte) int {
	n, err := b.client.Publish(ctx, group, payload).Result()
	if err != nil {
		b.log.WithError(err).WithField("group", group).Error("broadcast: redis publish failed")
		return 0
	}
	return int(n)
}

func (b *RedisBroadcaster) Close() error {
	return b.pubsub.Close()
}

// dispatch runs until the pubsub connection closes, delivering each incoming
// payload to the local members of its channel. Single goroutine: per-group
// publish order is preserved at every member.
func (b *RedisBroadcaster) dispatch() {
	for msg := range b.pubsub.Channel() {
		b.mu.Lock()
		subs := make([]port.Subscriber, 0, len(b.groups[msg.Channel]))
		for _, sub := range b.groups[msg.Channel] {
			subs = append(subs, sub)
		}
		b.mu.Unlock()

		for _, sub := range subs {
			_ = sub.Deliver([]byte(msg.Payload))
		}
	}
}

func (b *RedisBroadcaster) leaveLocked(group, key string) (groupEmptied bool) {
	members := b.groups[group]
	if members == nil {
		return false
	}
	delete(members, key)
	if len(members) == 0 {
		delete(b.groups, group)
		groupEmptied = true
	}
	if joined, ok := b.memberships[key]; ok {
		delete(joined, group)
		if len(joined) == 0 {
			delete(b.memberships, key)
		}
	}
	return groupEmptied
}
