package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// budgetService handles monthly category budgets.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget sets a monthly limit for a category. One budget per category.
func (s *budgetService) CreateBudget(category string, monthlyLimit decimal.Decimal, currency string) (*models.Budget, error) {
	if category == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	if !monthlyLimit.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly limit must be positive")
	}
	if currency == "" {
		currency = "EUR"
	}

	budget := &models.Budget{
		Category:     category,
		MonthlyLimit: monthlyLimit,
		Currency:     strings.ToUpper(currency),
	}
	if err := s.db.Create(budget).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "a budget for this category already exists")
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// GetBudgets lists budgets, paginated.
func (s *budgetService) GetBudgets(page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	var total int64
	if err := s.db.Model(&models.Budget{}).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	err := s.db.Order("category ASC").
		Scopes(pagination.Paginate(page)).
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(budgets, page.Page, page.PageSize, total)
	return &resp, nil
}

// UpdateBudget changes a budget's monthly limit.
func (s *budgetService) UpdateBudget(id string, monthlyLimit decimal.Decimal) (*models.Budget, error) {
	if !monthlyLimit.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly limit must be positive")
	}
	budget, err := s.find(id)
	if err != nil {
		return nil, err
	}
	budget.MonthlyLimit = monthlyLimit
	if err := s.db.Save(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// DeleteBudget removes a budget. The ledger is untouched.
func (s *budgetService) DeleteBudget(id string) error {
	budget, err := s.find(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetProgress computes consumption for every budget in the given month.
// Spend prefers normalized amounts so multi-currency accounts aggregate in
// the home currency.
func (s *budgetService) GetProgress(month string) ([]BudgetProgress, error) {
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
	end := start.AddDate(0, 1, 0)

	var budgets []models.Budget
	if err := s.db.Order("category ASC").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	progress := make([]BudgetProgress, 0, len(budgets))
	for _, budget := range budgets {
		var txs []models.Transaction
		err := s.db.
			Where("category = ? AND booking_date >= ? AND booking_date < ? AND amount < 0",
				budget.Category, start, end).
			Find(&txs).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var spent decimal.Decimal
		for i := range txs {
			if txs[i].NormalizedAmount != nil {
				spent = spent.Add(txs[i].NormalizedAmount.Abs())
			} else {
				spent = spent.Add(txs[i].Amount.Abs())
			}
		}

		percentage, _ := spent.Div(budget.MonthlyLimit).Mul(decimal.NewFromInt(100)).Round(1).Float64()
		progress = append(progress, BudgetProgress{
			BudgetID:   budget.ID,
			Category:   budget.Category,
			Month:      start.Format("2006-01"),
			Limit:      budget.MonthlyLimit,
			Spent:      spent.Round(2),
			Remaining:  budget.MonthlyLimit.Sub(spent).Round(2),
			Percentage: percentage,
			Status:     budgetStatus(spent, budget.MonthlyLimit),
		})
	}
	return progress, nil
}

// budgetStatus buckets consumption: near from 80% of the limit, over from
// 100%.
func budgetStatus(spent, limit decimal.Decimal) BudgetStatus {
	switch {
	case spent.GreaterThanOrEqual(limit):
		return BudgetStatusOver
	case spent.GreaterThanOrEqual(limit.Mul(decimal.NewFromFloat(0.8))):
		return BudgetStatusNear
	default:
		return BudgetStatusUnder
	}
}

func (s *budgetService) find(id string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.First(&budget, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}
