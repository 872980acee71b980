package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"moneta/internal/categorize"
	"moneta/internal/currency"
	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// transactionService handles ledger reads and category management.
type transactionService struct {
	db        *gorm.DB
	engine    *categorize.Engine
	converter *currency.Converter
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, engine *categorize.Engine, converter *currency.Converter) TransactionServicer {
	return &transactionService{db: db, engine: engine, converter: converter}
}

// GetTransactions lists ledger transactions, newest first. Transactions
// whose normalization was deferred get one retry on the way out.
func (s *transactionService) GetTransactions(ctx context.Context, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	query := s.db.Model(&models.Transaction{})
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.FromDate != nil {
		query = query.Where("booking_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("booking_date <= ?", *filter.ToDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var txs []models.Transaction
	err := query.Order("booking_date DESC, id ASC").
		Scopes(pagination.Paginate(page)).
		Find(&txs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range txs {
		s.ensureNormalized(ctx, &txs[i])
	}

	resp := pagination.NewPageResponse(txs, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetTransactionByID returns one transaction by fingerprint.
func (s *transactionService) GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := s.find(id)
	if err != nil {
		return nil, err
	}
	s.ensureNormalized(ctx, tx)
	return tx, nil
}

// ensureNormalized retries a deferred currency normalization. Failure is
// still not fatal; the amount just stays unnormalized for now.
func (s *transactionService) ensureNormalized(ctx context.Context, tx *models.Transaction) {
	if tx.NormalizedAmount != nil {
		return
	}

	var account models.Account
	if err := s.db.First(&account, "id = ?", tx.AccountID).Error; err != nil {
		return
	}

	v, err := s.converter.Convert(ctx, tx.Amount, tx.Currency, account.Currency, tx.BookingDate)
	if err != nil {
		return
	}
	tx.NormalizedAmount = &v
	if err := s.db.Model(tx).Update("normalized_amount", v).Error; err != nil {
		logger.Get().Warnw("failed to persist normalized amount", "transaction_id", tx.ID, "error", err)
	}
}

// OverrideCategory pins a transaction to a user-chosen category. The
// override outlives re-imports and recategorization runs.
func (s *transactionService) OverrideCategory(id, category string) (*models.Transaction, error) {
	if !s.engine.RuleSet().HasCategory(category) {
		return nil, apperrors.WithMessage(apperrors.ErrUnknownCategory, "no category named "+category)
	}

	tx, err := s.find(id)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(dbtx *gorm.DB) error {
		override := models.UserOverride{TransactionID: id, Category: category}
		if err := dbtx.Save(&override).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		tx.Category = category
		tx.CategorySource = models.CategorySourceOverride
		if err := dbtx.Save(tx).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// ClearOverride removes a user override and re-runs the cascade for the
// transaction.
func (s *transactionService) ClearOverride(id string) (*models.Transaction, error) {
	tx, err := s.find(id)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(dbtx *gorm.DB) error {
		if err := dbtx.Delete(&models.UserOverride{}, "transaction_id = ?", id).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		tx.Category, tx.CategorySource = s.engine.Categorize(categorize.Input{
			Description:  tx.Description,
			Counterparty: tx.Counterparty,
			MCC:          tx.MCC,
			Amount:       tx.Amount,
			BookingDate:  tx.BookingDate,
		})
		if err := dbtx.Save(tx).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// Recategorize re-runs the rule cascade over every transaction that is not
// pinned by an override, and returns how many changed category.
func (s *transactionService) Recategorize() (int64, error) {
	var txs []models.Transaction
	err := s.db.Where("category_source <> ?", models.CategorySourceOverride).Find(&txs).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var changed int64
	err = s.db.Transaction(func(dbtx *gorm.DB) error {
		for i := range txs {
			tx := &txs[i]
			category, source := s.engine.Categorize(categorize.Input{
				Description:  tx.Description,
				Counterparty: tx.Counterparty,
				MCC:          tx.MCC,
				Amount:       tx.Amount,
				BookingDate:  tx.BookingDate,
			})
			if category == tx.Category && source == tx.CategorySource {
				continue
			}
			tx.Category = category
			tx.CategorySource = source
			if err := dbtx.Save(tx).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// AddMerchantRule pins a merchant to a category in the active rule set and
// recategorizes the ledger with the updated rules.
func (s *transactionService) AddMerchantRule(merchant, category string) (int64, error) {
	if merchant == "" {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "merchant is required")
	}
	rs := s.engine.RuleSet()
	if err := rs.AddMerchantRule(merchant, category); err != nil {
		return 0, err
	}
	engine, err := categorize.NewEngine(rs, s.engine.Heuristics())
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	s.engine = engine
	return s.Recategorize()
}

// GetSpendingComparison sums expense spend per category for the given month
// and the month before it. Spend prefers normalized amounts so multi-currency
// accounts aggregate in the home currency.
func (s *transactionService) GetSpendingComparison(month string) ([]CategoryComparison, error) {
	var start time.Time
	if month == "" {
		now := time.Now().UTC()
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else {
		var err error
		start, err = time.Parse("2006-01", month)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be YYYY-MM")
		}
	}
	prev := start.AddDate(0, -1, 0)
	end := start.AddDate(0, 1, 0)

	current, err := s.spendByCategory(start, end)
	if err != nil {
		return nil, err
	}
	previous, err := s.spendByCategory(prev, start)
	if err != nil {
		return nil, err
	}

	categories := make([]string, 0, len(current)+len(previous))
	for c := range current {
		categories = append(categories, c)
	}
	for c := range previous {
		if _, ok := current[c]; !ok {
			categories = append(categories, c)
		}
	}
	sort.Strings(categories)

	comparison := make([]CategoryComparison, 0, len(categories))
	for _, category := range categories {
		spent := current[category].Round(2)
		prevSpent := previous[category].Round(2)
		entry := CategoryComparison{
			Category:      category,
			Month:         start.Format("2006-01"),
			Spent:         spent,
			PreviousSpent: prevSpent,
			Change:        spent.Sub(prevSpent),
		}
		if prevSpent.IsPositive() {
			pct, _ := spent.Sub(prevSpent).Div(prevSpent).Mul(decimal.NewFromInt(100)).Round(1).Float64()
			entry.ChangePct = &pct
		}
		comparison = append(comparison, entry)
	}
	return comparison, nil
}

func (s *transactionService) spendByCategory(start, end time.Time) (map[string]decimal.Decimal, error) {
	var txs []models.Transaction
	err := s.db.
		Where("booking_date >= ? AND booking_date < ? AND amount < 0", start, end).
		Find(&txs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	spend := make(map[string]decimal.Decimal)
	for i := range txs {
		amount := txs[i].Amount.Abs()
		if txs[i].NormalizedAmount != nil {
			amount = txs[i].NormalizedAmount.Abs()
		}
		spend[txs[i].Category] = spend[txs[i].Category].Add(amount)
	}
	return spend, nil
}

func (s *transactionService) find(id string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.First(&tx, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &tx, nil
}
