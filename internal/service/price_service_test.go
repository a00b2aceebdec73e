package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/medprice-api/internal/dto"
	"github.com/noah-isme/medprice-api/internal/models"
)

func TestPriceSearchFiltersAndSorts(t *testing.T) {
	f := newReportFixture(t)

	busan := models.Provider{Name: "Busan Clinic", Region: "busan", IsActive: true}
	require.NoError(t, f.db.Create(&busan).Error)
	cheaper := 80000.0
	require.NoError(t, f.db.Create(&models.Price{ProviderID: busan.ID, ServiceID: &f.service.ID, Price: &cheaper}).Error)

	closed := models.Provider{Name: "Closed Clinic", Region: "seoul", IsActive: true}
	require.NoError(t, f.db.Create(&closed).Error)
	require.NoError(t, f.db.Model(&closed).Update("is_active", false).Error)
	hidden := 1000.0
	require.NoError(t, f.db.Create(&models.Price{ProviderID: closed.ID, ServiceID: &f.service.ID, Price: &hidden}).Error)

	svc := NewPriceService(f.prices, zerolog.Nop())

	sorted, err := svc.Search(context.Background(), dto.PriceSearchRequest{Query: "laser", Sort: "price"})
	require.NoError(t, err)
	require.Len(t, sorted.Items, 2)
	require.Equal(t, "Busan Clinic", sorted.Items[0].ProviderName)
	require.Equal(t, "Laser Toning", sorted.Items[0].ServiceName)
	require.Equal(t, 50, sorted.Pagination.PageSize)

	seoul, err := svc.Search(context.Background(), dto.PriceSearchRequest{Region: "seoul", PageSize: 500})
	require.NoError(t, err)
	require.Len(t, seoul.Items, 1)
	require.Equal(t, f.provider.Name, seoul.Items[0].ProviderName)
	require.Equal(t, 200, seoul.Pagination.PageSize)
}
