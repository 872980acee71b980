package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount creates a new ledger account.
func (s *accountService) CreateAccount(name, currency string, source models.AccountSource) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if currency == "" {
		currency = "EUR"
	}
	if source == "" {
		source = models.AccountSourceImport
	}

	account := &models.Account{
		Name:     name,
		Currency: strings.ToUpper(currency),
		Source:   source,
	}
	if err := s.db.Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, apperrors.Wrap(apperrors.ErrDuplicateName, err)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// GetAccounts returns all accounts, paginated.
func (s *accountService) GetAccounts(page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	var total int64
	if err := s.db.Model(&models.Account{}).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	err := s.db.Order("created_at ASC").
		Scopes(pagination.Paginate(page)).
		Find(&accounts).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(accounts, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetAccountByID returns a single account.
func (s *accountService) GetAccountByID(id string) (*models.Account, error) {
	var account models.Account
	if err := s.db.First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// UpdateAccount renames an account.
func (s *accountService) UpdateAccount(id, name string) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	account, err := s.GetAccountByID(id)
	if err != nil {
		return nil, err
	}
	account.Name = name
	if err := s.db.Save(account).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, apperrors.Wrap(apperrors.ErrDuplicateName, err)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// DeleteAccount soft-deletes an account. Its transactions stay in the
// ledger for history but disappear from account listings.
func (s *accountService) DeleteAccount(id string) error {
	account, err := s.GetAccountByID(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(account).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
