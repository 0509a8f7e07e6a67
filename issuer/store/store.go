package store

import (
	"context"
	"math/big"

	"certgen/issuer/types"
)

// Interface CA-scoped serial allocation and issuance records
//
// caKeyID identifies the CA (hex encoded subject key id); serial allocation
// must be atomic across concurrent invocations against the same CA.
type Interface interface {
	// NextSerial allocate the next certificate serial, creating the counter on
	// first use
	NextSerial(ctx context.Context, caKeyID string) (*big.Int, error)

	CreateRecord(ctx context.Context, rec *types.Record) (*types.Record, error)
	ListRecord(ctx context.Context, caKeyID string, opts RecordListOpt) ([]*types.Record, error)
}

type RecordListOpt struct {
	CommonName string
	Serial     string
	Status     types.Status
}
