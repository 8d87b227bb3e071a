package model

import (
	"errors"
	"fmt"
)

var (
	ErrNodeNotFound      = errors.New("node not found")
	ErrUnknownNodeType   = errors.New("unknown node type")
	ErrInvalidConnection = errors.New("invalid connection")
	ErrNodeNotDeletable  = errors.New("node cannot be deleted")
)

// GraphError explains why a graph edit was refused.
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &GraphError{Kind: ErrInvalidConnection, Msg: fmt.Sprintf(format, args...)}
}

func notFound(id NodeID) error {
	return fmt.Errorf("%w: %d", ErrNodeNotFound, id)
}
