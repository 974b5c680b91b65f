package models

import (
	"strings"

	pkgerrors "github.com/angelmondragon/shopeasy-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MissingImageMessage is returned when a product is created without any image source.
const MissingImageMessage = "an image or an image URL is required when creating a product"

// Product is a catalog entry. Stock is only mutated by checkout.
type Product struct {
	Base
	Name        string          `gorm:"column:name;type:varchar(200);not null"`
	Description string          `gorm:"column:description;type:text;not null;default:''"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	Image       *string         `gorm:"column:image;type:varchar(255)"`
	ImageURL    *string         `gorm:"column:image_url;type:text"`
	OnPromotion bool            `gorm:"column:on_promotion;not null;default:false"`
	Featured    bool            `gorm:"column:featured;not null;default:false"`
	InCarousel  bool            `gorm:"column:in_carousel;not null;default:false"`
	CategoryID  *int64          `gorm:"column:category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	Images      []ProductImage  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (Product) TableName() string { return "products" }

// BeforeSave normalizes the name on every insert and update.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.Name = NormalizeName(p.Name)
	return nil
}

// BeforeCreate requires an image source for new products. Updates skip this
// check, so an edit may clear both sources.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if !p.HasImageSource() {
		return pkgerrors.Field("image", MissingImageMessage)
	}
	return nil
}

// HasImageSource reports whether either an upload reference or an external URL is set.
func (p *Product) HasImageSource() bool {
	return nonEmpty(p.Image) || nonEmpty(p.ImageURL)
}

func (p Product) DisplayName() string {
	return DisplayName(p.Name)
}

func nonEmpty(value *string) bool {
	return value != nil && strings.TrimSpace(*value) != ""
}
