package store

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"certgen/issuer/types"
	"certgen/pkg/helper"
)

func TestFileStoreNextSerial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	caCertPath := filepath.Join(t.TempDir(), "ca.crt")
	s := NewFile(caCertPath)

	first, err := s.NextSerial(ctx, "ca1")
	require.NoError(t, err)

	second, err := s.NextSerial(ctx, "ca1")
	require.NoError(t, err)

	require.Equal(t, new(big.Int).Add(first, big.NewInt(1)), second)

	// counter survives reopening the store
	third, err := NewFile(caCertPath).NextSerial(ctx, "ca1")
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Add(second, big.NewInt(1)), third)
}

func TestFileStoreSeededSerialFile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	caCertPath := filepath.Join(t.TempDir(), "ca.crt")
	require.NoError(t, helper.WriteFile(caCertPath+".srl", []byte("0f\n"), 0644))

	serial, err := NewFile(caCertPath).NextSerial(ctx, "ca1")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(15), serial)
}

func TestFileStoreRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewFile(filepath.Join(t.TempDir(), "ca.crt"))

	for _, cn := range []string{"a.example.test", "b.example.test"} {
		rec, err := s.CreateRecord(ctx, &types.Record{
			CAKeyID:    "ca1",
			Serial:     "1000",
			CommonName: cn,
			Status:     types.StatusIssued,
		})
		require.NoError(t, err)
		require.NotEmpty(t, rec.ID)
		require.False(t, rec.Created.IsZero())
	}

	_, err := s.CreateRecord(ctx, &types.Record{
		CAKeyID:    "ca1",
		Serial:     "1001",
		CommonName: "c.example.test",
		Status:     types.StatusRevoked,
	})
	require.NoError(t, err)

	records, err := s.ListRecord(ctx, "ca1", RecordListOpt{})
	require.NoError(t, err)
	require.Len(t, records, 3)

	records, err = s.ListRecord(ctx, "ca1", RecordListOpt{CommonName: "a.example.test"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "a.example.test", records[0].CommonName)

	records, err = s.ListRecord(ctx, "ca1", RecordListOpt{Status: types.StatusRevoked})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "c.example.test", records[0].CommonName)
	require.False(t, records[0].Created.IsZero())

	records, err = s.ListRecord(ctx, "other-ca", RecordListOpt{})
	require.NoError(t, err)
	require.Empty(t, records)
}
