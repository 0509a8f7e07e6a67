package store

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"github.com/whitekid/goxp/log"

	"certgen/issuer/types"
	"certgen/pkg/helper"
	"certgen/pkg/helper/x509x"
)

// fileStoreImpl serial counter and issuance log as sidecar files next to the
// CA certificate, openssl style: <ca-cert>.srl holds the next serial in hex,
// <ca-cert>.index holds one JSON record per line
type fileStoreImpl struct {
	serialPath string
	indexPath  string
	lockPath   string
}

var _ Interface = (*fileStoreImpl)(nil)

const lockRetryDelay = 10 * time.Millisecond

// NewFile file-backed store scoped to the given CA certificate path
func NewFile(caCertPath string) Interface {
	return &fileStoreImpl{
		serialPath: caCertPath + ".srl",
		indexPath:  caCertPath + ".index",
		lockPath:   caCertPath + ".lock",
	}
}

// NextSerial read-increment-write under an exclusive file lock so concurrent
// invocations against the same CA never allocate the same serial
func (f *fileStoreImpl) NextSerial(ctx context.Context, caKeyID string) (*big.Int, error) {
	lock := flock.New(f.lockPath)
	if _, err := lock.TryLockContext(ctx, lockRetryDelay); err != nil {
		return nil, errors.Wrap(err, "fail to lock serial file")
	}
	defer lock.Unlock()

	serial, err := f.readSerial()
	if err != nil {
		return nil, err
	}

	next := new(big.Int).Add(serial, big.NewInt(1))
	if err := helper.WriteFile(f.serialPath, []byte(next.Text(16)+"\n"), 0644); err != nil {
		return nil, errors.Wrap(err, "fail to update serial file")
	}

	return serial, nil
}

func (f *fileStoreImpl) readSerial() (*big.Int, error) {
	data, err := os.ReadFile(f.serialPath)
	switch {
	case os.IsNotExist(err):
		// first issuance against this CA; seed randomly like openssl -CAcreateserial
		log.Debugf("creating serial file %s", f.serialPath)
		return x509x.RandomSerial(), nil

	case err != nil:
		return nil, errors.Wrap(err, "fail to read serial file")
	}

	serial, ok := new(big.Int).SetString(strings.TrimSpace(string(data)), 16)
	if !ok {
		return nil, errors.Errorf("corrupt serial file: %s", f.serialPath)
	}

	return serial, nil
}

func (f *fileStoreImpl) CreateRecord(ctx context.Context, rec *types.Record) (*types.Record, error) {
	lock := flock.New(f.lockPath)
	if _, err := lock.TryLockContext(ctx, lockRetryDelay); err != nil {
		return nil, errors.Wrap(err, "fail to lock index file")
	}
	defer lock.Unlock()

	r := *rec
	r.ID = shortuuid.New()
	r.Created = time.Now().UTC()

	fd, err := os.OpenFile(f.indexPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "fail to append issuance record")
	}
	defer fd.Close()

	if err := json.NewEncoder(fd).Encode(&r); err != nil {
		return nil, errors.Wrap(err, "fail to append issuance record")
	}

	return &r, nil
}

func (f *fileStoreImpl) ListRecord(ctx context.Context, caKeyID string, opts RecordListOpt) ([]*types.Record, error) {
	fd, err := os.Open(f.indexPath)
	switch {
	case os.IsNotExist(err):
		return nil, nil
	case err != nil:
		return nil, errors.Wrap(err, "fail to read issuance records")
	}
	defer fd.Close()

	records := []*types.Record{}
	dec := json.NewDecoder(fd)
	for {
		rec := &types.Record{}
		if err := dec.Decode(rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Wrap(err, "fail to read issuance records")
		}

		if caKeyID != "" && rec.CAKeyID != caKeyID {
			continue
		}
		if opts.CommonName != "" && rec.CommonName != opts.CommonName {
			continue
		}
		if opts.Serial != "" && rec.Serial != opts.Serial {
			continue
		}
		if opts.Status != "" && rec.Status != opts.Status {
			continue
		}

		records = append(records, rec)
	}

	return records, nil
}
