package store

import (
	"context"

	"github.com/bimakw/dex-gateway/internal/domain/entities"
)

// StoreName is the fixed key the tracked transaction set is persisted
// under, so records survive a process restart.
const StoreName = "tx-storage"

// TxStore is the persistence surface for the transaction tracker. The
// tracker saves its full record set on every mutation and loads it once
// at startup; the store never interprets the records.
type TxStore interface {
	Load(ctx context.Context) ([]entities.TxRecord, error)
	Save(ctx context.Context, records []entities.TxRecord) error
}
