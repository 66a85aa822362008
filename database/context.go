package database

import (
	"context"
	"time"
)

// Database operation timeouts.
const (
	DefaultDBTimeout = 10 * time.Second
	LongDBTimeout    = 30 * time.Second
)

// NewContext creates a context with the default timeout for database
// operations.
//
//	ctx, cancel := database.NewContext()
//	defer cancel()
func NewContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), DefaultDBTimeout)
}

// NewLongContext creates a context with a longer timeout for heavy
// operations such as storing a full scan result.
func NewLongContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), LongDBTimeout)
}
