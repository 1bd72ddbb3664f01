package repository

import (
	"net/url"

	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/internal/query"
	"github.com/ikkim/userhub-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ProvinceListOptions = query.Options{
		AllowedSort:       []string{"id", "name"},
		AllowedRelations:  []string{"Regencies"},
		SearchableColumns: []string{"name"},
	}
	RegencyListOptions = query.Options{
		AllowedSort:       []string{"id", "name", "province_id"},
		AllowedRelations:  []string{"Province", "Districts"},
		SearchableColumns: []string{"name"},
		FilterableColumns: []string{"province_id"},
	}
	DistrictListOptions = query.Options{
		AllowedSort:       []string{"id", "name", "regency_id"},
		AllowedRelations:  []string{"Regency", "Villages"},
		SearchableColumns: []string{"name"},
		FilterableColumns: []string{"regency_id"},
	}
	VillageListOptions = query.Options{
		AllowedSort:       []string{"id", "name", "district_id"},
		AllowedRelations:  []string{"District"},
		SearchableColumns: []string{"name"},
		FilterableColumns: []string{"district_id"},
	}
)

type LocationRepository interface {
	ListProvinces(values url.Values) ([]model.Province, *query.Page, error)
	ListRegencies(values url.Values) ([]model.Regency, *query.Page, error)
	ListDistricts(values url.Values) ([]model.District, *query.Page, error)
	ListVillages(values url.Values) ([]model.Village, *query.Page, error)
}

type locationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) ListProvinces(values url.Values) ([]model.Province, *query.Page, error) {
	var provinces []model.Province
	page, err := r.list(&model.Province{}, "provinces", values, ProvinceListOptions, &provinces)
	return provinces, page, err
}

func (r *locationRepository) ListRegencies(values url.Values) ([]model.Regency, *query.Page, error) {
	var regencies []model.Regency
	page, err := r.list(&model.Regency{}, "regencies", values, RegencyListOptions, &regencies)
	return regencies, page, err
}

func (r *locationRepository) ListDistricts(values url.Values) ([]model.District, *query.Page, error) {
	var districts []model.District
	page, err := r.list(&model.District{}, "districts", values, DistrictListOptions, &districts)
	return districts, page, err
}

func (r *locationRepository) ListVillages(values url.Values) ([]model.Village, *query.Page, error) {
	var villages []model.Village
	page, err := r.list(&model.Village{}, "villages", values, VillageListOptions, &villages)
	return villages, page, err
}

func (r *locationRepository) list(m interface{}, table string, values url.Values, opts query.Options, dest interface{}) (*query.Page, error) {
	logger.Debug("Listing locations from database", map[string]interface{}{
		"table": table,
		"query": values.Encode(),
	})

	page, err := query.Paginate(r.db.Model(m), values, opts, dest)
	if err != nil {
		logger.Error("Failed to list locations from database", err, map[string]interface{}{
			"table": table,
		})
		return nil, err
	}

	logger.Debug("Locations listed from database", map[string]interface{}{
		"table": table,
		"total": page.Total,
	})
	return page, nil
}
