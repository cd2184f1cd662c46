package store

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency of prices loaded from the exchange.
const DefaultCurrency = "RUB"

// Share is a tracked security.
type Share struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Ticker string `gorm:"size:40;not null;index"`
	Name   string `gorm:"size:255"`
	Slug   string `gorm:"size:255;not null;uniqueIndex"`
	ISIN   string `gorm:"size:12"`

	Prices []Price `gorm:"constraint:OnDelete:CASCADE"`
}

// Price is one stored candle of a share. Date holds the exchange wall clock labelled UTC.
type Price struct {
	ID uint `gorm:"primaryKey"`

	ShareID uint      `gorm:"uniqueIndex:idx_price_share_date,priority:1;not null"`
	Date    time.Time `gorm:"uniqueIndex:idx_price_share_date,priority:2;not null"`

	Price    decimal.Decimal     `gorm:"type:decimal(20,6);not null"`
	Open     decimal.NullDecimal `gorm:"type:decimal(20,6)"`
	High     decimal.NullDecimal `gorm:"type:decimal(20,6)"`
	Low      decimal.NullDecimal `gorm:"type:decimal(20,6)"`
	Change   decimal.NullDecimal `gorm:"type:decimal(20,6)"`
	Volume   sql.NullFloat64
	Currency string `gorm:"size:10;not null"`
}
