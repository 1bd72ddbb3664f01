package model

// Location IDs are the official region codes from the seed data, e.g. "11",
// "1101", "1101010", "1101010001".

type Province struct {
	ID   string `gorm:"primaryKey;size:2" json:"id"`
	Name string `gorm:"size:255;not null;index" json:"name"`

	Regencies []Regency `gorm:"foreignKey:ProvinceID" json:"regencies,omitempty"`
}

func (Province) TableName() string {
	return "provinces"
}

type Regency struct {
	ID         string `gorm:"primaryKey;size:4" json:"id"`
	ProvinceID string `gorm:"size:2;not null;index" json:"province_id"`
	Name       string `gorm:"size:255;not null;index" json:"name"`

	Province  *Province  `gorm:"foreignKey:ProvinceID" json:"province,omitempty"`
	Districts []District `gorm:"foreignKey:RegencyID" json:"districts,omitempty"`
}

func (Regency) TableName() string {
	return "regencies"
}

type District struct {
	ID        string `gorm:"primaryKey;size:7" json:"id"`
	RegencyID string `gorm:"size:4;not null;index" json:"regency_id"`
	Name      string `gorm:"size:255;not null;index" json:"name"`

	Regency  *Regency  `gorm:"foreignKey:RegencyID" json:"regency,omitempty"`
	Villages []Village `gorm:"foreignKey:DistrictID" json:"villages,omitempty"`
}

func (District) TableName() string {
	return "districts"
}

type Village struct {
	ID         string `gorm:"primaryKey;size:10" json:"id"`
	DistrictID string `gorm:"size:7;not null;index" json:"district_id"`
	Name       string `gorm:"size:255;not null;index" json:"name"`

	District *District `gorm:"foreignKey:DistrictID" json:"district,omitempty"`
}

func (Village) TableName() string {
	return "villages"
}
