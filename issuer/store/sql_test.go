package store

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"certgen/issuer/types"
	"certgen/pkg/testutils"
)

func TestSQLStoreNextSerial(t *testing.T) {
	testutils.ForOneSQLDriver(t, "sqlite", func(t *testing.T, dbURL string, reset func()) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		s, err := NewSQL(dbURL)
		require.NoError(t, err)

		first, err := s.NextSerial(ctx, "ca1")
		require.NoError(t, err)

		second, err := s.NextSerial(ctx, "ca1")
		require.NoError(t, err)
		require.Equal(t, new(big.Int).Add(first, big.NewInt(1)), second)

		// counters are scoped per CA
		other, err := s.NextSerial(ctx, "ca2")
		require.NoError(t, err)
		require.NotEqual(t, second, other)
	})
}

func TestSQLStoreRecords(t *testing.T) {
	testutils.ForOneSQLDriver(t, "sqlite", func(t *testing.T, dbURL string, reset func()) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		s, err := NewSQL(dbURL)
		require.NoError(t, err)

		rec, err := s.CreateRecord(ctx, &types.Record{
			CAKeyID:    "ca1",
			Serial:     "1000",
			CommonName: "server.example.test",
			Status:     types.StatusIssued,
		})
		require.NoError(t, err)
		require.NotEmpty(t, rec.ID)

		records, err := s.ListRecord(ctx, "ca1", RecordListOpt{})
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "server.example.test", records[0].CommonName)
		require.Equal(t, types.StatusIssued, records[0].Status)

		records, err = s.ListRecord(ctx, "ca1", RecordListOpt{CommonName: "no-such.example.test"})
		require.NoError(t, err)
		require.Empty(t, records)
	})
}
