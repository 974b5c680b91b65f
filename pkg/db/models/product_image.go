package models

// ProductImage is one entry in a product's gallery.
type ProductImage struct {
	Base
	ProductID int64   `gorm:"column:product_id;not null;index"`
	Image     string  `gorm:"column:image;type:varchar(255);not null"`
	Caption   *string `gorm:"column:caption;type:varchar(255)"`
}

func (ProductImage) TableName() string { return "product_images" }
