package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/medprice-api/internal/models"
)

// ReportLogRepository appends and reads report audit entries. Rows are never updated.
type ReportLogRepository interface {
	Create(ctx context.Context, entry *models.ReportLog) error
	ListByReport(ctx context.Context, reportID uint, limit int) ([]models.ReportLog, error)
	LatestAutoWithDetail(ctx context.Context, reportID uint) (models.ReportLog, error)
}

type reportLogRepository struct {
	db *gorm.DB
}

// NewReportLogRepository constructs the report log repository.
func NewReportLogRepository(db *gorm.DB) ReportLogRepository {
	return &reportLogRepository{db: db}
}

func (r *reportLogRepository) Create(ctx context.Context, entry *models.ReportLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByReport returns entries newest first. A non-positive limit returns every entry.
func (r *reportLogRepository) ListByReport(ctx context.Context, reportID uint, limit int) ([]models.ReportLog, error) {
	query := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []models.ReportLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *reportLogRepository) LatestAutoWithDetail(ctx context.Context, reportID uint) (models.ReportLog, error) {
	var entry models.ReportLog
	err := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Where("auto = ?", true).
		Where("detail IS NOT NULL").
		Order("id DESC").
		First(&entry).Error
	if err != nil {
		return models.ReportLog{}, err
	}
	return entry, nil
}
