package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"harambee/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

// New returns a LedgerStore backed by db. The connection should be opened
// with gorm.Config{TranslateError: true} so unique violations surface as
// ErrDuplicate.
func New(db *gorm.DB) LedgerStore {
	return &gormStore{db: db}
}

func (s *gormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *gormStore) WithTx(ctx context.Context, fn func(tx LedgerStore) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrInUse
	}
	// Drivers without a translator still report the constraint in the message.
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value") {
		return ErrDuplicate
	}
	if strings.Contains(msg, "FOREIGN KEY constraint failed") || strings.Contains(msg, "violates foreign key constraint") {
		return ErrInUse
	}
	return err
}

func (s *gormStore) first(ctx context.Context, dest any, query string, args ...any) error {
	return translate(s.conn(ctx).Where(query, args...).First(dest).Error)
}

// deleteWhere removes rows of model matching the condition and reports
// ErrNotFound when nothing was deleted.
func (s *gormStore) deleteWhere(ctx context.Context, model any, query string, args ...any) error {
	res := s.conn(ctx).Where(query, args...).Delete(model)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) exists(ctx context.Context, model any, query string, args ...any) (bool, error) {
	var count int64
	if err := s.conn(ctx).Model(model).Where(query, args...).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// dateRange applies an inclusive calendar-day window on column.
func dateRange(q *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where(column+" >= ?", models.TruncateDate(*from))
	}
	if to != nil {
		q = q.Where(column+" < ?", models.TruncateDate(*to).AddDate(0, 0, 1))
	}
	return q
}

// sumRow scans a COALESCE(SUM(amount), 0), COUNT(*) projection.
func sumRow(q *gorm.DB) (Totals, error) {
	var (
		amount decimal.Decimal
		count  int64
	)
	row := q.Select("COALESCE(SUM(amount), 0), COUNT(*)").Row()
	if err := row.Scan(&amount, &count); err != nil {
		return Totals{}, err
	}
	return Totals{Amount: amount.Round(2), Count: count}, nil
}
