// Package store persists normalized series with gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"avseries/internal/timeseries"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned by Open for drivers other than sqlite and postgres.
var ErrUnknownDriver = errors.New("store: unknown driver")

// upsertBatchSize keeps sqlite below its bound-variable limit.
const upsertBatchSize = 500

// SeriesModel is one stored bar. Adjustment columns are NULL for
// unadjusted series.
type SeriesModel struct {
	ID       uint      `gorm:"primaryKey"`
	Symbol   string    `gorm:"size:32;not null;uniqueIndex:series_sym_int_time,priority:1"`
	Interval string    `gorm:"size:16;not null;uniqueIndex:series_sym_int_time,priority:2"`
	Time     time.Time `gorm:"not null;uniqueIndex:series_sym_int_time,priority:3"`

	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume int64   `gorm:"not null;default:0"`

	AdjustedClose    *float64
	DividendAmount   *float64
	SplitCoefficient *float64
}

func (SeriesModel) TableName() string {
	return "series"
}

// Store reads and writes series.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open connects with driver (sqlite or postgres) to dsn.
func Open(driver, dsn string) (*Store, error) {
	driver = strings.ToLower(driver)
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite && strings.Contains(dsn, ":memory:") {
		// each connection would see its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return New(db), nil
}

// Migrate creates or updates the series table.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&SeriesModel{})
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toModels(ts timeseries.TimeSeries) []SeriesModel {
	ms := make([]SeriesModel, 0, len(ts.Data))
	for _, d := range ts.Data {
		m := SeriesModel{
			Symbol:   ts.Symbol,
			Interval: string(ts.Interval),
			Time:     d.Timestamp.UTC(),
			Open:     d.Open,
			High:     d.High,
			Low:      d.Low,
			Close:    d.Close,
			Volume:   d.Volume,
		}
		if a := d.Adjustment; a != nil {
			m.AdjustedClose = &a.AdjustedClose
			m.DividendAmount = &a.DividendAmount
			m.SplitCoefficient = &a.SplitCoefficient
		}
		ms = append(ms, m)
	}
	return ms
}

// UpsertSeries inserts or updates every bar of ts keyed by (symbol,
// interval, time). Adjustment columns are only overwritten by adjusted
// bars, so storing a raw series never erases earlier adjustments.
func (s *Store) UpsertSeries(ctx context.Context, ts timeseries.TimeSeries) error {
	if len(ts.Data) == 0 {
		return nil
	}
	var plain, adjusted []SeriesModel
	for _, m := range toModels(ts) {
		if m.AdjustedClose != nil {
			adjusted = append(adjusted, m)
		} else {
			plain = append(plain, m)
		}
	}

	conflict := []clause.Column{{Name: "symbol"}, {Name: "interval"}, {Name: "time"}}
	base := []string{"open", "high", "low", "close", "volume"}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(plain) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   conflict,
				DoUpdates: clause.AssignmentColumns(base),
			}).CreateInBatches(&plain, upsertBatchSize).Error
			if err != nil {
				return err
			}
		}
		if len(adjusted) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   conflict,
				DoUpdates: clause.AssignmentColumns(append(base, "adjusted_close", "dividend_amount", "split_coefficient")),
			}).CreateInBatches(&adjusted, upsertBatchSize).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// FindSeries returns the stored bars for symbol and interval oldest first.
// limit > 0 keeps only the most recent limit bars.
func (s *Store) FindSeries(ctx context.Context, symbol string, interval timeseries.Interval, limit int) (timeseries.TimeSeries, error) {
	var rows []SeriesModel
	q := s.db.WithContext(ctx).
		Where(&SeriesModel{Symbol: symbol, Interval: string(interval)}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "time"}, Desc: true})
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return timeseries.TimeSeries{}, err
	}

	data := make([]timeseries.AssetTradeInfo, len(rows))
	for i, m := range rows {
		d := timeseries.AssetTradeInfo{
			Timestamp: m.Time.UTC(),
			Open:      m.Open,
			High:      m.High,
			Low:       m.Low,
			Close:     m.Close,
			Volume:    m.Volume,
		}
		if m.AdjustedClose != nil {
			d.Adjustment = &timeseries.Adjustment{AdjustedClose: *m.AdjustedClose}
			if m.DividendAmount != nil {
				d.Adjustment.DividendAmount = *m.DividendAmount
			}
			if m.SplitCoefficient != nil {
				d.Adjustment.SplitCoefficient = *m.SplitCoefficient
			}
		}
		// rows are newest first
		data[len(rows)-1-i] = d
	}
	return timeseries.New(symbol, interval, data), nil
}

// Symbols lists the distinct symbols stored for interval.
func (s *Store) Symbols(ctx context.Context, interval timeseries.Interval) ([]string, error) {
	var out []string
	err := s.db.WithContext(ctx).
		Model(&SeriesModel{}).
		Where(&SeriesModel{Interval: string(interval)}).
		Distinct().
		Order("symbol").
		Pluck("symbol", &out).Error
	return out, err
}
