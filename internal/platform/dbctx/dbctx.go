package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Repositories use Tx when set so multi-step use cases commit atomically.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}
