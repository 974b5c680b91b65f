package models

import "gorm.io/gorm"

// Category groups products. Names are unique after normalization.
type Category struct {
	Base
	Name string `gorm:"column:name;type:varchar(100);not null;uniqueIndex:categories_name_key"`
}

func (Category) TableName() string { return "categories" }

// BeforeSave normalizes the name on every insert and update.
func (c *Category) BeforeSave(tx *gorm.DB) error {
	c.Name = NormalizeName(c.Name)
	return nil
}

func (c Category) DisplayName() string {
	return DisplayName(c.Name)
}
