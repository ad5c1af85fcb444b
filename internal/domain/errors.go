package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the catalog has no data for the requested id.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyFollowed is returned when a tenant already follows an item.
	ErrAlreadyFollowed = errors.New("already followed")
	// ErrNotFollowed is returned when a tenant does not follow an item.
	ErrNotFollowed = errors.New("not followed")
)

// FetchError is a transient catalog failure (transport, timeout, bad status).
type FetchError struct {
	Op         string
	ExternalID int64
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Op, e.ExternalID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DispatchError is a failed delivery to one channel.
type DispatchError struct {
	ChannelID string
	Err       error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to channel %s: %v", e.ChannelID, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
