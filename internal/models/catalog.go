package models

import (
	"github.com/shopspring/decimal"
)

type CatalogItem struct {
	Code    string
	Title   string
	Price   decimal.Decimal
	Payload string // link, key or text handed to the buyer
	Active  bool
}
