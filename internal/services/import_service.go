package services

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"moneta/internal/bankformat"
	"moneta/internal/categorize"
	"moneta/internal/currency"
	apperrors "moneta/internal/errors"
	"moneta/internal/fingerprint"
	"moneta/internal/importer"
	"moneta/internal/logger"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// importService runs the statement ingestion pipeline. Imports into the
// same account are serialized with a per-account lock; different accounts
// import concurrently.
type importService struct {
	db        *gorm.DB
	engine    *categorize.Engine
	converter *currency.Converter
	locks     sync.Map
}

// NewImportService creates a new ImportServicer.
func NewImportService(db *gorm.DB, engine *categorize.Engine, converter *currency.Converter) ImportServicer {
	return &importService{db: db, engine: engine, converter: converter}
}

func (s *importService) accountLock(accountID string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(accountID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// ImportStatement runs the full pipeline on a raw statement file.
func (s *importService) ImportStatement(ctx context.Context, accountID string, raw []byte, formatHint string) (*ImportSummary, error) {
	account, err := s.getAccount(accountID)
	if err != nil {
		return nil, err
	}

	det, err := bankformat.Detect(raw, formatHint)
	if err != nil {
		return nil, err
	}

	rows, rowErrs, err := importer.Parse(raw, det, account.Currency)
	if err != nil {
		return nil, err
	}

	return s.ingest(ctx, account, det.Schema.Key, rows, rowErrs)
}

// ImportParsed ingests rows parsed by an external collaborator, entering
// the pipeline after the parsing stage.
func (s *importService) ImportParsed(ctx context.Context, accountID string, rows []importer.ParsedRow) (*ImportSummary, error) {
	account, err := s.getAccount(accountID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrEmptyImport
	}
	return s.ingest(ctx, account, "sync", rows, nil)
}

// ingest deduplicates, categorizes, normalizes, and commits a batch. The
// commit is all-or-nothing: either every new transaction and the batch
// record land, or none do.
func (s *importService) ingest(ctx context.Context, account *models.Account, format string, rows []importer.ParsedRow, rowErrs []importer.RowError) (*ImportSummary, error) {
	lock := s.accountLock(account.ID)
	lock.Lock()
	defer lock.Unlock()

	// Build the candidate transactions before opening the write
	// transaction: rate fetches may block on the network and must not
	// hold the single SQLite writer.
	candidates := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		tx := models.Transaction{
			ID:          fingerprint.Compute(account.ID, row.BookingDate, row.Amount, row.Description),
			AccountID:   account.ID,
			BookingDate: row.BookingDate,
			Amount:      row.Amount,
			Currency:    row.Currency,
			Description: row.Description,
			RawRow:      row.Raw,
		}
		tx.NormalizedAmount = s.normalize(ctx, &tx, account.Currency)
		s.assignCategory(&tx)
		candidates = append(candidates, tx)
	}

	summary := &ImportSummary{
		Format:    format,
		Rows:      len(rows) + len(rowErrs),
		Failed:    len(rowErrs),
		RowErrors: rowErrs,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range candidates {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&candidates[i])
			if res.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
			}
			if res.RowsAffected == 0 {
				summary.Duplicates++
			} else {
				summary.Imported++
			}
		}

		batch := &models.ImportBatch{
			AccountID:  account.ID,
			Format:     format,
			Rows:       summary.Rows,
			Imported:   summary.Imported,
			Duplicates: summary.Duplicates,
			Failed:     summary.Failed,
		}
		if err := tx.Create(batch).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		summary.BatchID = batch.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("statement imported",
		"account_id", account.ID,
		"format", format,
		"imported", summary.Imported,
		"duplicates", summary.Duplicates,
		"failed", summary.Failed,
	)
	return summary, nil
}

// normalize converts the amount into the account currency. A missing rate
// is not an import failure: the amount stays unnormalized and the read
// path retries later.
func (s *importService) normalize(ctx context.Context, tx *models.Transaction, homeCurrency string) *decimal.Decimal {
	if tx.Currency == homeCurrency {
		v := tx.Amount.RoundBank(currency.MinorUnits(homeCurrency))
		return &v
	}
	v, err := s.converter.Convert(ctx, tx.Amount, tx.Currency, homeCurrency, tx.BookingDate)
	if err != nil {
		logger.Get().Warnw("normalization deferred",
			"transaction_id", tx.ID,
			"currency", tx.Currency,
			"error", err,
		)
		return nil
	}
	return &v
}

// assignCategory applies a user override when one exists for the
// fingerprint, otherwise runs the rule cascade. Overrides are keyed by
// fingerprint, so a re-import after deletion restores the user's choice.
func (s *importService) assignCategory(tx *models.Transaction) {
	var override models.UserOverride
	err := s.db.First(&override, "transaction_id = ?", tx.ID).Error
	if err == nil {
		tx.Category = override.Category
		tx.CategorySource = models.CategorySourceOverride
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Get().Warnw("override lookup failed", "transaction_id", tx.ID, "error", err)
	}

	tx.Category, tx.CategorySource = s.engine.Categorize(categorize.Input{
		Description:  tx.Description,
		Counterparty: tx.Counterparty,
		MCC:          tx.MCC,
		Amount:       tx.Amount,
		BookingDate:  tx.BookingDate,
	})
}

// GetBatches lists import batches for an account, newest first.
func (s *importService) GetBatches(accountID string, page pagination.PageRequest) (*pagination.PageResponse[models.ImportBatch], error) {
	if _, err := s.getAccount(accountID); err != nil {
		return nil, err
	}
	page.Defaults()

	query := s.db.Model(&models.ImportBatch{}).Where("account_id = ?", accountID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var batches []models.ImportBatch
	err := query.Order("created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&batches).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(batches, page.Page, page.PageSize, total)
	return &resp, nil
}

func (s *importService) getAccount(id string) (*models.Account, error) {
	var account models.Account
	if err := s.db.First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}
