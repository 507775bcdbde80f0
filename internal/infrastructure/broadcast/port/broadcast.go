package port

import "context"

// Subscriber is the handle a connection registers with the broadcast layer.
// Deliver must not block: implementations enqueue and fail fast.
type Subscriber interface {
	// Key uniquely identifies the subscriber across all groups.
	Key() string

	// Deliver hands a published payload to the subscriber.
	Deliver(payload []byte) error
}

// Broadcaster is a named-group publish/subscribe primitive decoupled from the
// connection mechanism. One group exists per conversation; a payload published
// to a group reaches every current member, the publisher included when it is
// itself a member.
//
// Contract:
//   - Join is idempotent; joining twice equals joining once.
//   - Leave of a non-member is a no-op, never an error.
//   - Publish is serialized per group: two publishes cannot interleave at the
//     members. A member leaving concurrently with a publish may or may not
//     receive it; clients reconcile via history fetch on reconnect.
//   - LeaveAll is the mandatory teardown hook: a closing connection must drop
//     every membership before it is discarded.
type Broadcaster interface {
	Join(group string, sub Subscriber)
	Leave(group string, sub Subscriber)
	LeaveAll(sub Subscriber)

	// Publish delivers payload to the group's members and reports how many
	// local deliveries were accepted.
	Publish(ctx context.Context, group string, payload []byte) int

	// Close releases backend resources. Members are not notified.
	Close() error
}
