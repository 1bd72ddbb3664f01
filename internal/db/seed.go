package db

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const seedBatchSize = 500

// Seed file layout under the data directory.
const (
	provinceFile = "provinsi.json"
	regencyDir   = "kabupaten"
	districtDir  = "kecamatan"
	villageDir   = "kelurahan"
)

// regionCode accepts both "11" and 11 in the seed files.
type regionCode string

func (c *regionCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = regionCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("region id must be a string or number: %w", err)
	}
	*c = regionCode(n.String())
	return nil
}

type seedItem struct {
	ID   regionCode `json:"id"`
	Name string     `json:"nama"`
}

// LocationSeedResult counts the rows read from the seed files.
type LocationSeedResult struct {
	Provinces int
	Regencies int
	Districts int
	Villages  int
}

// SeedLocations loads the region hierarchy from dir. Child files are looked up
// per parent id and skipped when missing; rows that already exist are left alone.
func SeedLocations(conn *gorm.DB, dir string) (*LocationSeedResult, error) {
	logger.Info("Seeding location data...", map[string]interface{}{
		"dir": dir,
	})

	result := &LocationSeedResult{}

	provinceItems, err := readSeedFile(filepath.Join(dir, provinceFile))
	if err != nil {
		return nil, err
	}
	provinces := make([]model.Province, 0, len(provinceItems))
	for _, item := range provinceItems {
		provinces = append(provinces, model.Province{ID: string(item.ID), Name: item.Name})
	}
	if err := insertIgnoringExisting(conn, &provinces); err != nil {
		return nil, fmt.Errorf("failed to seed provinces: %w", err)
	}
	result.Provinces = len(provinces)

	for _, province := range provinces {
		items, err := readOptionalSeedFile(filepath.Join(dir, regencyDir, province.ID+".json"))
		if err != nil {
			return nil, err
		}
		regencies := make([]model.Regency, 0, len(items))
		for _, item := range items {
			regencies = append(regencies, model.Regency{ID: string(item.ID), ProvinceID: province.ID, Name: item.Name})
		}
		if err := insertIgnoringExisting(conn, &regencies); err != nil {
			return nil, fmt.Errorf("failed to seed regencies of province %s: %w", province.ID, err)
		}
		result.Regencies += len(regencies)

		for _, regency := range regencies {
			items, err := readOptionalSeedFile(filepath.Join(dir, districtDir, regency.ID+".json"))
			if err != nil {
				return nil, err
			}
			districts := make([]model.District, 0, len(items))
			for _, item := range items {
				districts = append(districts, model.District{ID: string(item.ID), RegencyID: regency.ID, Name: item.Name})
			}
			if err := insertIgnoringExisting(conn, &districts); err != nil {
				return nil, fmt.Errorf("failed to seed districts of regency %s: %w", regency.ID, err)
			}
			result.Districts += len(districts)

			for _, district := range districts {
				items, err := readOptionalSeedFile(filepath.Join(dir, villageDir, district.ID+".json"))
				if err != nil {
					return nil, err
				}
				villages := make([]model.Village, 0, len(items))
				for _, item := range items {
					villages = append(villages, model.Village{ID: string(item.ID), DistrictID: district.ID, Name: item.Name})
				}
				if err := insertIgnoringExisting(conn, &villages); err != nil {
					return nil, fmt.Errorf("failed to seed villages of district %s: %w", district.ID, err)
				}
				result.Villages += len(villages)
			}
		}
	}

	logger.Info("Location data seeded successfully", map[string]interface{}{
		"provinces": result.Provinces,
		"regencies": result.Regencies,
		"districts": result.Districts,
		"villages":  result.Villages,
	})
	return result, nil
}

func insertIgnoringExisting[T any](conn *gorm.DB, rows *[]T) error {
	if len(*rows) == 0 {
		return nil
	}
	return conn.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, seedBatchSize).Error
}

func readSeedFile(path string) ([]seedItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	var items []seedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return items, nil
}

func readOptionalSeedFile(path string) ([]seedItem, error) {
	items, err := readSeedFile(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return items, err
}
