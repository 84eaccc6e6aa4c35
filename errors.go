package tiercache

import (
	"errors"
	"fmt"
)

// Construction errors. New fails fast when a required collaborator is
// missing; none of these are recoverable at runtime.
var (
	ErrNoName        = errors.New("tiercache: name is required")
	ErrNoLocalStore  = errors.New("tiercache: local store is required")
	ErrNoRemoteStore = errors.New("tiercache: remote store is required")
	ErrNoBus         = errors.New("tiercache: bus is required")
)

// RemoveError reports a Remove whose authoritative delete failed. PublishErr
// is set as well when the follow-up invalidation broadcast also failed, in
// which case peers keep their stale copies until their own TTLs lapse.
type RemoveError struct {
	Key        string
	RemoteErr  error
	PublishErr error
}

func (e *RemoveError) Error() string {
	switch {
	case e.RemoteErr != nil && e.PublishErr != nil:
		return fmt.Sprintf("remove %q failed: remote delete and publish failed: delete=%v; publish=%v",
			e.Key, e.RemoteErr, e.PublishErr)
	case e.RemoteErr != nil:
		return fmt.Sprintf("remove %q: remote delete failed: %v", e.Key, e.RemoteErr)
	default:
		return fmt.Sprintf("remove %q: unknown error", e.Key)
	}
}

func (e *RemoveError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.RemoteErr != nil {
		errs = append(errs, e.RemoteErr)
	}
	if e.PublishErr != nil {
		errs = append(errs, e.PublishErr)
	}
	return errs
}
