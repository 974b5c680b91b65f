package models

import "time"

// Base carries the columns every table shares. Deleted is a soft-delete tag
// only; no query path filters on it implicitly.
type Base struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
	Deleted   bool      `gorm:"column:deleted;not null;default:false"`
}

// All lists every model in dependency order, for AutoMigrate in tests.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Product{},
		&ProductImage{},
		&Cart{},
		&CartItem{},
		&Order{},
	}
}
