package task

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	qadapter "github.com/yasirimran733/campus-connect/internal/infrastructure/queue/adapter"
	qport "github.com/yasirimran733/campus-connect/internal/infrastructure/queue/port"
	repoAdapter "github.com/yasirimran733/campus-connect/internal/pkg/chat/persistence/repository/adapter"
)

// DedupeConversationsTaskType is the queue task name for the conversation
// uniqueness repair job. The advisory lock in the repository makes duplicate
// (pair, item) conversations rare, but a create race across instances can
// still slip one through; this job merges them into the oldest row.
const DedupeConversationsTaskType = "chat:dedupe_conversations"

// RegisterDedupeConversationsTask binds the repair handler to the worker server.
func RegisterDedupeConversationsTask(srv qport.Server, pool *pgxpool.Pool, log *logrus.Logger) {
	srv.Register(DedupeConversationsTaskType, func(ctx context.Context, t qport.Task) error {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		repo := repoAdapter.NewPgChatRepository(pool)
		merged, err := repo.MergeDuplicateConversations(ctx)
		if err != nil {
			return err
		}
		if merged > 0 {
			log.WithField("merged", merged).Info("chat: merged duplicate conversations")
		}
		return nil
	})
}

// EnqueueDedupeRepair schedules a repair run shortly after a conversation was
// created. Best effort: a nil client or a full queue just means the next
// create tries again, and the uniqueness TTL coalesces bursts into one run.
func EnqueueDedupeRepair(ctx context.Context, client qport.Client) {
	if client == nil {
		return
	}
	_, _ = client.Enqueue(ctx, qport.Task{Type: DedupeConversationsTaskType}, qport.EnqueueOption{
		Queue:     qadapter.MaintenanceQueue,
		ProcessIn: time.Minute,
		UniqueTTL: 10 * time.Minute,
		MaxRetry:  3,
	})
}
