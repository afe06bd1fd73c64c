package service

import (
	"context"
	"time"

	"studentengagement/api/internal/database"
)

// TxRunner is the part of *database.Gateway the services depend on.
type TxRunner interface {
	Querier() database.DBTX
	WithTx(ctx context.Context, fn func(ctx context.Context, tx database.DBTX) error) error
}

func utcNow() time.Time {
	return time.Now().UTC()
}
