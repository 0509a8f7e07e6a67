package store

import (
	"context"
	"math/big"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"github.com/whitekid/goxp/fx"
	"github.com/whitekid/goxp/log"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"certgen/issuer/store/models"
	"certgen/issuer/types"
	"certgen/pkg/helper/gormx"
	"certgen/pkg/helper/x509x"
)

// sqlStoreImpl CA serial and issuance records in a SQL database
type sqlStoreImpl struct {
	db *gorm.DB
}

var _ Interface = (*sqlStoreImpl)(nil)

// NewSQL create new SQL store
func NewSQL(dburl string) (Interface, error) {
	db, err := gormx.Open(dburl, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: "certgen_",
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "fail to open store")
	}

	if err := models.Migrate(db); err != nil {
		return nil, errors.Wrap(err, "fail to open store")
	}

	return &sqlStoreImpl{
		db: db,
	}, nil
}

// NextSerial allocate inside a transaction; the database serializes writers
func (s *sqlStoreImpl) NextSerial(ctx context.Context, caKeyID string) (*big.Int, error) {
	log.Debugf("NextSerial(): ca=%s", caKeyID)

	var serial *big.Int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		counter := &models.SerialCounter{}
		r := tx.Where(&models.SerialCounter{CAKeyID: caKeyID}).First(counter)
		switch {
		case errors.Is(r.Error, gorm.ErrRecordNotFound):
			counter = &models.SerialCounter{
				CAKeyID: caKeyID,
				Next:    x509x.RandomSerial().Text(16),
			}
			if r := tx.Create(counter); r.Error != nil {
				return gormx.ConvertSQLError(r.Error)
			}

		case r.Error != nil:
			return gormx.ConvertSQLError(r.Error)
		}

		cur, ok := new(big.Int).SetString(counter.Next, 16)
		if !ok {
			return errors.Errorf("corrupt serial counter: ca=%s", caKeyID)
		}

		counter.Next = new(big.Int).Add(cur, big.NewInt(1)).Text(16)
		if r := tx.Save(counter); r.Error != nil {
			return gormx.ConvertSQLError(r.Error)
		}

		serial = cur
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "fail to allocate serial")
	}

	return serial, nil
}

func (s *sqlStoreImpl) CreateRecord(ctx context.Context, rec *types.Record) (*types.Record, error) {
	log.Debugf("CreateRecord(): ca=%s, cn=%s, serial=%s", rec.CAKeyID, rec.CommonName, rec.Serial)

	issuance := &models.Issuance{
		ID:        shortuuid.New(),
		CAKeyID:   rec.CAKeyID,
		Serial:    rec.Serial,
		CN:        rec.CommonName,
		Status:    rec.Status.String(),
		NotBefore: rec.NotBefore,
		NotAfter:  rec.NotAfter,
	}

	if r := s.db.WithContext(ctx).Create(issuance); r.Error != nil {
		return nil, errors.Wrap(gormx.ConvertSQLError(r.Error), "fail to create issuance record")
	}

	return issuanceToRecord(issuance), nil
}

func (s *sqlStoreImpl) ListRecord(ctx context.Context, caKeyID string, opts RecordListOpt) ([]*types.Record, error) {
	w := &models.Issuance{
		CAKeyID: caKeyID,
		CN:      opts.CommonName,
		Serial:  opts.Serial,
		Status:  opts.Status.String(),
	}

	var results []*models.Issuance
	if r := s.db.WithContext(ctx).Order("created_at").Find(&results, w); r.Error != nil {
		return nil, errors.Wrap(gormx.ConvertSQLError(r.Error), "fail to list issuance records")
	}

	return fx.Map(results, issuanceToRecord), nil
}

func issuanceToRecord(x *models.Issuance) *types.Record {
	return &types.Record{
		ID:         x.ID,
		CAKeyID:    x.CAKeyID,
		Serial:     x.Serial,
		CommonName: x.CN,
		Status:     types.Status(x.Status),
		NotBefore:  x.NotBefore,
		NotAfter:   x.NotAfter,
		Created:    x.CreatedAt,
	}
}
