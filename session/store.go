package session

import "context"

// Store defines persistence for sessions. Load reports found=false for an
// unknown id rather than an error; the pipeline only requires iteration
// over the trials of a returned session and never assumes a storage format.
type Store interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, s Session) error
	Load(ctx context.Context, id string) (Session, bool, error)
	List(ctx context.Context) ([]string, error)
}
