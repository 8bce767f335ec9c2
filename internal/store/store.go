package store

import (
	"context"

	"github.com/me/capsched/pkg/model"
)

// Store is the durable mirror of the engine's in-memory state. The engine
// writes through it on every state transition but never reads it back
// during normal operation; the in-memory indexes stay authoritative. Read
// methods exist for reconciliation tooling and tests.
type Store interface {
	// Work sessions
	CreateSession(ctx context.Context, ses *model.WorkSession) error
	UpdateSession(ctx context.Context, ses *model.WorkSession) error
	GetSession(ctx context.Context, id string) (*model.WorkSession, error)
	ListSessionsByAgent(ctx context.Context, agentID string) ([]*model.WorkSession, error)

	// Time blocks
	CreateTimeBlock(ctx context.Context, blk *model.TimeBlock) error
	UpdateTimeBlock(ctx context.Context, blk *model.TimeBlock) error
	GetTimeBlock(ctx context.Context, id string) (*model.TimeBlock, error)
	ListTimeBlocksByAgent(ctx context.Context, agentID string) ([]*model.TimeBlock, error)

	// Work requests
	CreateRequest(ctx context.Context, req *model.WorkRequest) error
	UpdateRequest(ctx context.Context, req *model.WorkRequest) error
	GetRequest(ctx context.Context, id string) (*model.WorkRequest, error)
	ListRequestsByAgent(ctx context.Context, agentID string) ([]*model.WorkRequest, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
