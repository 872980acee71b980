package currency

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"moneta/internal/errors"
	"moneta/internal/models"
)

// minorUnits lists the ISO 4217 exceptions to two decimal places.
var minorUnits = map[string]int32{
	"JPY": 0, "KRW": 0, "VND": 0, "CLP": 0,
	"KWD": 3, "BHD": 3, "OMR": 3, "JOD": 3, "TND": 3,
}

// MinorUnits returns the number of decimal places for a currency code.
func MinorUnits(code string) int32 {
	if units, ok := minorUnits[code]; ok {
		return units
	}
	return 2
}

// Converter resolves exchange rates through a write-through cache backed by
// the exchange_rates table. Historical rates are immutable once cached;
// same-day rates expire after the TTL. Concurrent requests for the same
// (base, quote, date) collapse into a single provider call.
type Converter struct {
	db       *gorm.DB
	provider RateProvider
	ttl      time.Duration
	group    singleflight.Group

	// now is swappable in tests.
	now func() time.Time
}

// NewConverter creates a converter over the given cache store and provider.
func NewConverter(db *gorm.DB, provider RateProvider, ttl time.Duration) *Converter {
	return &Converter{db: db, provider: provider, ttl: ttl, now: time.Now}
}

// Rate returns the base→quote rate for the given day, from cache when fresh.
func (c *Converter) Rate(ctx context.Context, base, quote string, date time.Time) (decimal.Decimal, error) {
	if base == quote {
		return decimal.NewFromInt(1), nil
	}

	day := date.Format("2006-01-02")
	today := c.now().UTC().Format("2006-01-02")

	var cached models.ExchangeRate
	err := c.db.WithContext(ctx).
		Where("base = ? AND quote = ? AND date = ?", base, quote, day).
		First(&cached).Error
	if err == nil {
		// Past days never change; only a same-day rate can go stale.
		if day != today || c.now().Sub(cached.FetchedAt) < c.ttl {
			return cached.Rate, nil
		}
	} else if err != gorm.ErrRecordNotFound {
		return decimal.Zero, errors.Wrap(errors.ErrInternalServer, err)
	}

	return c.fetchAndCache(ctx, base, quote, date, day)
}

func (c *Converter) fetchAndCache(ctx context.Context, base, quote string, date time.Time, day string) (decimal.Decimal, error) {
	v, err, _ := c.group.Do(base+"|"+quote+"|"+day, func() (interface{}, error) {
		rate, err := c.provider.FetchRate(ctx, base, quote, date)
		if err != nil {
			return nil, errors.Wrap(errors.ErrRateUnavailable, err)
		}
		record := models.ExchangeRate{
			Base:      base,
			Quote:     quote,
			Date:      day,
			Rate:      rate,
			FetchedAt: c.now(),
		}
		if err := c.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "base"}, {Name: "quote"}, {Name: "date"}},
				DoUpdates: clause.AssignmentColumns([]string{"rate", "fetched_at"}),
			}).
			Create(&record).Error; err != nil {
			return nil, errors.Wrap(errors.ErrInternalServer, err)
		}
		return rate, nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return v.(decimal.Decimal), nil
}

// Convert converts an amount between currencies on the given day, rounding
// to the target currency's minor units with banker's rounding.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount.RoundBank(MinorUnits(to)), nil
	}
	rate, err := c.Rate(ctx, from, to, date)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate).RoundBank(MinorUnits(to)), nil
}
