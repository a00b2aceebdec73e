package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/medprice-api/internal/models"
)

// ErrStatusConflict indicates the report status changed between read and write.
var ErrStatusConflict = errors.New("report status changed concurrently")

// ReportFilter narrows report list queries.
type ReportFilter struct {
	Statuses     []models.ReportStatus
	UserID       string
	ProviderID   *uint
	ActiveOnly   bool
	SortPriority bool
	Page         int
	PageSize     int
}

// ReportStateUpdate carries the fields written together with a status transition.
type ReportStateUpdate struct {
	Status         models.ReportStatus
	Memo           *string
	AutoScore      *float64
	DuplicateScore *float64
	Recommendation *string
	UpdatedAt      time.Time
}

// ReportRepository persists user price-correction reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (models.Report, error)
	List(ctx context.Context, filter ReportFilter) ([]models.Report, int64, error)
	ListRecentByProvider(ctx context.Context, providerID uint, excludeID uint, since time.Time) ([]models.Report, error)
	CompareAndSwap(ctx context.Context, id uint, expected models.ReportStatus, update ReportStateUpdate) (models.Report, error)
	Deactivate(ctx context.Context, id uint) error
	CountByStatus(ctx context.Context) (map[models.ReportStatus]int64, error)
	CountByPriority(ctx context.Context) (map[models.ReportPriority]int64, error)
	CountUpdatedSince(ctx context.Context, statuses []models.ReportStatus, since time.Time) (int64, error)
	CountAutoOutcomes(ctx context.Context) (autoDone int64, kept int64, err error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository constructs a report repository backed by GORM.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).Preload("Provider").First(&report, id).Error; err != nil {
		return models.Report{}, err
	}
	return report, nil
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter) ([]models.Report, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Report{})

	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.ProviderID != nil {
		query = query.Where("provider_id = ?", *filter.ProviderID)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.SortPriority {
		query = query.Order("CASE priority WHEN 'high' THEN 3 WHEN 'normal' THEN 2 WHEN 'low' THEN 1 ELSE 0 END DESC")
	}
	query = query.Order("updated_at DESC").Order("id DESC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var reports []models.Report
	if err := query.Preload("Provider").Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (r *reportRepository) ListRecentByProvider(ctx context.Context, providerID uint, excludeID uint, since time.Time) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Where("id <> ?", excludeID).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// CompareAndSwap applies update only while the row still holds the expected status.
func (r *reportRepository) CompareAndSwap(ctx context.Context, id uint, expected models.ReportStatus, update ReportStateUpdate) (models.Report, error) {
	values := map[string]interface{}{
		"status":     update.Status,
		"updated_at": update.UpdatedAt,
	}
	if update.Memo != nil {
		values["memo"] = *update.Memo
	}
	if update.AutoScore != nil {
		values["auto_score"] = *update.AutoScore
	}
	if update.DuplicateScore != nil {
		values["duplicate_score"] = *update.DuplicateScore
	}
	if update.Recommendation != nil {
		values["recommendation"] = *update.Recommendation
	}

	result := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id = ?", id).
		Where("status = ?", expected).
		Updates(values)
	if result.Error != nil {
		return models.Report{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Report{}, ErrStatusConflict
	}

	return r.GetByID(ctx, id)
}

func (r *reportRepository) Deactivate(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *reportRepository) CountByStatus(ctx context.Context) (map[models.ReportStatus]int64, error) {
	type row struct {
		Status models.ReportStatus
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Select("status, COUNT(*) AS total").
		Where("is_active = ?", true).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.ReportStatus]int64, len(rows))
	for _, item := range rows {
		counts[item.Status] = item.Total
	}
	return counts, nil
}

func (r *reportRepository) CountByPriority(ctx context.Context) (map[models.ReportPriority]int64, error) {
	type row struct {
		Priority models.ReportPriority
		Total    int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Select("priority, COUNT(*) AS total").
		Where("is_active = ?", true).
		Group("priority").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.ReportPriority]int64, len(rows))
	for _, item := range rows {
		counts[item.Priority] = item.Total
	}
	return counts, nil
}

func (r *reportRepository) CountUpdatedSince(ctx context.Context, statuses []models.ReportStatus, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("status IN ?", statuses).
		Where("updated_at >= ?", since).
		Count(&total).Error
	return total, err
}

// CountAutoOutcomes returns how many reports were ever auto-resolved and how many of those
// still sit in auto_done or completed.
func (r *reportRepository) CountAutoOutcomes(ctx context.Context) (int64, int64, error) {
	autoResolved := r.db.WithContext(ctx).
		Model(&models.ReportLog{}).
		Select("report_id").
		Where("auto = ?", true).
		Where("new_status = ?", models.ReportStatusAutoDone)

	var autoDone int64
	if err := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id IN (?)", autoResolved).
		Count(&autoDone).Error; err != nil {
		return 0, 0, err
	}

	var kept int64
	if err := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id IN (?)", autoResolved).
		Where("status IN ?", []models.ReportStatus{models.ReportStatusAutoDone, models.ReportStatusCompleted}).
		Count(&kept).Error; err != nil {
		return 0, 0, err
	}

	return autoDone, kept, nil
}
