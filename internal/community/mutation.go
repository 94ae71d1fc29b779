package community

import "github.com/BloggingApp/community-service/internal/feedcache"

type MutationKind string

const (
	MutationLike   MutationKind = "like"
	MutationSave   MutationKind = "save"
	MutationDelete MutationKind = "delete"
	MutationReport MutationKind = "report"
)

type MutationState int

const (
	MutationPending MutationState = iota
	MutationSettled
	MutationRolledBack
)

func (s MutationState) String() string {
	switch s {
	case MutationPending:
		return "pending"
	case MutationSettled:
		return "settled"
	case MutationRolledBack:
		return "rolled back"
	}
	return "unknown"
}

// Mutation records one optimistic change attempt and the image it rolls back to.
type Mutation struct {
	Kind     MutationKind
	PostID   int64
	State    MutationState
	Snapshot feedcache.Snapshot
}
