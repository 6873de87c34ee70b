// Package application holds the contracts shared by command and query
// handlers of every bounded context.
package application

import "context"

// Command represents a request that has side effects, such as delivering a
// report or writing the mirror.
type Command interface {
	CommandName() string
}

// CommandHandler handles a specific command type.
type CommandHandler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// Query represents a read-only request.
type Query interface {
	QueryName() string
}

// QueryHandler handles a specific query type.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
