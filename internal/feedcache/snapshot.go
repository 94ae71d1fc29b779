package feedcache

import "github.com/BloggingApp/community-service/internal/model"

// Field selects the viewer-owned fields a snapshot covers.
type Field uint8

const (
	// FieldLike covers IsLiked and Likes.
	FieldLike Field = 1 << iota
	// FieldSave covers IsSaved.
	FieldSave
)

// Snapshot is the pre-mutation value of the fields one mutation touches. Restoring it
// writes only those fields back onto the current body, so server-confirmed changes to
// the rest of the post survive a rollback.
type Snapshot struct {
	PostID  int64
	Fields  Field
	IsLiked bool
	Likes   int64
	IsSaved bool
}

func (s *Store) Snapshot(id int64, fields Field) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return Snapshot{}, false
	}

	return Snapshot{
		PostID:  id,
		Fields:  fields,
		IsLiked: post.IsLiked,
		Likes:   post.Likes,
		IsSaved: post.IsSaved,
	}, true
}

// Restore puts the snapshot fields back. It reports false when the post has left the
// cache since the snapshot was taken, in which case nothing is written.
func (s *Store) Restore(snap Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[snap.PostID]
	if !ok {
		return false
	}
	snap.apply(&post)
	s.posts[snap.PostID] = post

	return true
}

func (snap Snapshot) apply(post *model.Post) {
	if snap.Fields&FieldLike != 0 {
		post.IsLiked = snap.IsLiked
		post.Likes = snap.Likes
	}
	if snap.Fields&FieldSave != 0 {
		post.IsSaved = snap.IsSaved
	}
}
