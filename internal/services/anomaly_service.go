package services

import (
	"time"

	"gorm.io/gorm"

	"moneta/internal/anomaly"
	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

// anomalyService recomputes spending anomaly flags from the ledger.
type anomalyService struct {
	db       *gorm.DB
	detector *anomaly.Detector

	// now is swappable in tests.
	now func() time.Time
}

// NewAnomalyService creates a new AnomalyServicer.
func NewAnomalyService(db *gorm.DB, detector *anomaly.Detector) AnomalyServicer {
	return &anomalyService{db: db, detector: detector, now: time.Now}
}

// DetectAnomalies runs the detector over the expense history inside the
// baseline window. Flags are derived fresh on every call; a zero ref means
// the current period.
func (s *anomalyService) DetectAnomalies(accountID string, ref time.Time) ([]anomaly.Flag, error) {
	if ref.IsZero() {
		ref = s.now()
	}

	query := s.db.Where("amount < 0")
	if accountID != "" {
		var account models.Account
		if err := s.db.First(&account, "id = ?", accountID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, apperrors.ErrAccountNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		query = query.Where("account_id = ?", accountID)
	}

	var txs []models.Transaction
	if err := query.Find(&txs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.detector.Detect(txs, ref.UTC()), nil
}
