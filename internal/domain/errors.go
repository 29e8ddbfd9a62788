package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoSources = errors.New("no sources configured")

// MetadataError is returned when package lists or the status database
// cannot be read or parsed. A cache that failed to open must not be used.
type MetadataError struct {
	Path string
	Err  error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("reading metadata %s: %v", e.Path, e.Err)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

type FailedItem struct {
	ID          uint32
	Description string
	Status      uint32
	Text        string
}

// FetchError is returned by a refresh that could not run, or that ran and
// had at least one item fail with a hard status.
type FetchError struct {
	Items []FailedItem
	Err   error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("update failed: %v", e.Err)
	}

	msgs := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		if it.Text != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s", it.Description, it.Text))
		} else {
			msgs = append(msgs, it.Description)
		}
	}
	return fmt.Sprintf("failed to fetch %d index file(s): %s", len(e.Items), strings.Join(msgs, "; "))
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
