package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/medprice-api/internal/models"
)

func setupReportTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:repo_"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Provider{},
		&models.Service{},
		&models.Price{},
		&models.UserProfile{},
		&models.Report{},
		&models.ReportLog{},
		&models.AutoWeights{},
	))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createReport(t *testing.T, db *gorm.DB, report models.Report) models.Report {
	t.Helper()
	if report.UserID == "" {
		report.UserID = "user-1"
	}
	if report.Status == "" {
		report.Status = models.ReportStatusPending
	}
	if report.Priority == "" {
		report.Priority = models.ReportPriorityNormal
	}
	if report.Content == "" {
		report.Content = "price changed"
	}
	report.IsActive = true
	require.NoError(t, db.Create(&report).Error)
	return report
}

func TestReportRepositoryCompareAndSwap(t *testing.T) {
	db := setupReportTestDB(t)
	repo := NewReportRepository(db)
	ctx := context.Background()

	report := createReport(t, db, models.Report{})
	score := 88.0
	level := "recommended"

	updated, err := repo.CompareAndSwap(ctx, report.ID, models.ReportStatusPending, ReportStateUpdate{
		Status:         models.ReportStatusAutoDone,
		AutoScore:      &score,
		Recommendation: &level,
		UpdatedAt:      time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusAutoDone, updated.Status)
	require.Equal(t, 88.0, updated.AutoScore)
	require.Equal(t, "recommended", updated.Recommendation)

	_, err = repo.CompareAndSwap(ctx, report.ID, models.ReportStatusPending, ReportStateUpdate{
		Status:    models.ReportStatusManualRequired,
		UpdatedAt: time.Now().UTC(),
	})
	require.ErrorIs(t, err, ErrStatusConflict)

	stored, err := repo.GetByID(ctx, report.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusAutoDone, stored.Status)
}

func TestReportRepositoryListFiltersAndSorts(t *testing.T) {
	db := setupReportTestDB(t)
	repo := NewReportRepository(db)
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	low := createReport(t, db, models.Report{Priority: models.ReportPriorityLow, UpdatedAt: base.Add(3 * time.Hour)})
	high := createReport(t, db, models.Report{Priority: models.ReportPriorityHigh, UpdatedAt: base})
	normal := createReport(t, db, models.Report{Priority: models.ReportPriorityNormal, UpdatedAt: base.Add(time.Hour), UserID: "user-2"})
	hidden := createReport(t, db, models.Report{Priority: models.ReportPriorityHigh, UpdatedAt: base})
	require.NoError(t, repo.Deactivate(context.Background(), hidden.ID))

	items, total, err := repo.List(context.Background(), ReportFilter{ActiveOnly: true, SortPriority: true})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Equal(t, []uint{high.ID, normal.ID, low.ID}, []uint{items[0].ID, items[1].ID, items[2].ID})

	items, _, err = repo.List(context.Background(), ReportFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Equal(t, low.ID, items[0].ID, "latest update first")

	items, total, err = repo.List(context.Background(), ReportFilter{ActiveOnly: true, UserID: "user-2"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, normal.ID, items[0].ID)

	paged, total, err := repo.List(context.Background(), ReportFilter{ActiveOnly: true, Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, paged, 1)

	require.ErrorIs(t, repo.Deactivate(context.Background(), 999), gorm.ErrRecordNotFound)
}

func TestReportRepositoryListRecentByProvider(t *testing.T) {
	db := setupReportTestDB(t)
	repo := NewReportRepository(db)
	now := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)
	provider := models.Provider{Name: "Busan Eye Center", Region: "busan", IsActive: true}
	other := models.Provider{Name: "Daegu Ortho", Region: "daegu", IsActive: true}
	require.NoError(t, db.Create(&provider).Error)
	require.NoError(t, db.Create(&other).Error)
	providerID := provider.ID
	otherProvider := other.ID

	current := createReport(t, db, models.Report{ProviderID: &providerID, CreatedAt: now})
	recent := createReport(t, db, models.Report{ProviderID: &providerID, CreatedAt: now.Add(-2 * time.Hour)})
	createReport(t, db, models.Report{ProviderID: &providerID, CreatedAt: now.Add(-80 * time.Hour)})
	createReport(t, db, models.Report{ProviderID: &otherProvider, CreatedAt: now})

	items, err := repo.ListRecentByProvider(context.Background(), providerID, current.ID, now.Add(-72*time.Hour))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, recent.ID, items[0].ID)
}

func TestReportRepositoryCounts(t *testing.T) {
	db := setupReportTestDB(t)
	repo := NewReportRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	kept := createReport(t, db, models.Report{Status: models.ReportStatusAutoDone, UpdatedAt: now})
	overridden := createReport(t, db, models.Report{Status: models.ReportStatusRejected, Priority: models.ReportPriorityHigh, UpdatedAt: now})
	createReport(t, db, models.Report{Status: models.ReportStatusCompleted, UpdatedAt: now.AddDate(0, 0, -10)})

	for _, id := range []uint{kept.ID, overridden.ID} {
		require.NoError(t, db.Create(&models.ReportLog{
			ReportID:  id,
			OldStatus: models.ReportStatusPending,
			NewStatus: models.ReportStatusAutoDone,
			Auto:      true,
		}).Error)
	}

	byStatus, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), byStatus[models.ReportStatusAutoDone])
	require.Equal(t, int64(1), byStatus[models.ReportStatusRejected])

	byPriority, err := repo.CountByPriority(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), byPriority[models.ReportPriorityNormal])
	require.Equal(t, int64(1), byPriority[models.ReportPriorityHigh])

	recent, err := repo.CountUpdatedSince(ctx, []models.ReportStatus{models.ReportStatusCompleted, models.ReportStatusAutoDone}, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Equal(t, int64(1), recent)

	autoResolved, stillResolved, err := repo.CountAutoOutcomes(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), autoResolved)
	require.Equal(t, int64(1), stillResolved)
}

func TestReportLogRepositoryIsAppendOnly(t *testing.T) {
	db := setupReportTestDB(t)
	repo := NewReportLogRepository(db)
	ctx := context.Background()

	manual := models.ReportLog{ReportID: 1, OldStatus: "pending", NewStatus: "manual_required"}
	require.NoError(t, repo.Create(ctx, &manual))
	auto := models.ReportLog{ReportID: 1, OldStatus: "pending", NewStatus: "auto_done", Auto: true, Detail: datatypes.JSON(`{"diff_summary":"status(pending→auto_done)"}`)}
	require.NoError(t, repo.Create(ctx, &auto))
	later := models.ReportLog{ReportID: 1, OldStatus: "auto_done", NewStatus: "rejected"}
	require.NoError(t, repo.Create(ctx, &later))

	entries, err := repo.ListByReport(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, later.ID, entries[0].ID)

	latest, err := repo.LatestAutoWithDetail(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, auto.ID, latest.ID)

	_, err = repo.LatestAutoWithDetail(ctx, 2)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = db.Model(&auto).Update("reason", "edited").Error
	require.ErrorIs(t, err, models.ErrReportLogImmutable)
	err = db.Delete(&auto).Error
	require.ErrorIs(t, err, models.ErrReportLogImmutable)
}

func TestAutoWeightsRepositoryUpsertsSingleton(t *testing.T) {
	db := setupReportTestDB(t)
	repo := NewAutoWeightsRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.Save(ctx, &models.AutoWeights{WeightSimilarity: 1.1, WeightProvider: 1, WeightDuplicate: 1, WeightPriority: 1}))
	require.NoError(t, repo.Save(ctx, &models.AutoWeights{WeightSimilarity: 0.9, WeightProvider: 1, WeightDuplicate: 1, WeightPriority: 1.2}))

	var count int64
	require.NoError(t, db.Model(&models.AutoWeights{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	stored, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 0.9, stored.WeightSimilarity)
	require.Equal(t, 1.2, stored.WeightPriority)
}

func TestProfileRepositoryTrustByIDs(t *testing.T) {
	db := setupReportTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.UserProfile{ID: "a", TrustScore: 0.5}).Error)
	require.NoError(t, db.Create(&models.UserProfile{ID: "b", TrustScore: 0.9}).Error)

	require.NoError(t, repo.UpdateTrust(ctx, "a", 0.43))

	scores, err := repo.TrustByIDs(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)
	require.Equal(t, map[string]float64{"a": 0.43, "b": 0.9}, scores)

	empty, err := repo.TrustByIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}
