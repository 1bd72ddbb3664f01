package service

import (
	"net/url"

	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/internal/app/repository"
	"github.com/ikkim/userhub-backend/internal/query"
)

type LocationService interface {
	Provinces(values url.Values) ([]model.Province, *query.Page, error)
	Regencies(values url.Values) ([]model.Regency, *query.Page, error)
	Districts(values url.Values) ([]model.District, *query.Page, error)
	Villages(values url.Values) ([]model.Village, *query.Page, error)
}

type locationService struct {
	repo repository.LocationRepository
}

func NewLocationService(repo repository.LocationRepository) LocationService {
	return &locationService{repo: repo}
}

func (s *locationService) Provinces(values url.Values) ([]model.Province, *query.Page, error) {
	return s.repo.ListProvinces(values)
}

func (s *locationService) Regencies(values url.Values) ([]model.Regency, *query.Page, error) {
	return s.repo.ListRegencies(values)
}

func (s *locationService) Districts(values url.Values) ([]model.District, *query.Page, error) {
	return s.repo.ListDistricts(values)
}

func (s *locationService) Villages(values url.Values) ([]model.Village, *query.Page, error) {
	return s.repo.ListVillages(values)
}
