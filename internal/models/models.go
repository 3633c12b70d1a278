// Package models provides domain models for the market data toolkit.
package models

import (
	"time"
)

// Exchange represents a stock exchange.
type Exchange string

const (
	NSE Exchange = "NSE"
	BSE Exchange = "BSE"
	NFO Exchange = "NFO" // F&O
	MCX Exchange = "MCX" // Commodity
)

// OptionClass represents the class of an option contract.
type OptionClass string

const (
	Call OptionClass = "CALL"
	Put  OptionClass = "PUT"
)

// ParseOptionClass maps exchange-file spellings (CE/PE, C/P) to an OptionClass.
func ParseOptionClass(s string) (OptionClass, bool) {
	switch s {
	case "CALL", "CE", "C", "call", "ce":
		return Call, true
	case "PUT", "PE", "P", "put", "pe":
		return Put, true
	}
	return "", false
}

// ReferencePoint anchors a strike selection: the underlying's price for a
// symbol on a given date, produced upstream once per (symbol, period).
type ReferencePoint struct {
	Symbol         string
	AsOfDate       time.Time
	ReferencePrice float64
}

// Contract represents one option contract row: a (symbol, strike, class,
// trade date) observation with its prices and liquidity figures.
type Contract struct {
	Symbol       string
	StrikePrice  float64
	Class        OptionClass
	Expiry       time.Time
	TradeDate    time.Time
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Settle       float64
	LastPrice    float64
	Volume       int64
	OpenInterest int64
}

// PricePoint is one (trade date, close) observation in a contract's history.
type PricePoint struct {
	TradeDate time.Time
	Close     float64
	Volume    int64
}

// PriceSeries is an ascending-by-date sequence of price points for one
// (symbol, strike, class). It may be empty.
type PriceSeries []PricePoint

// IsSorted reports whether dates are strictly increasing.
func (s PriceSeries) IsSorted() bool {
	for i := 1; i < len(s); i++ {
		if !s[i].TradeDate.After(s[i-1].TradeDate) {
			return false
		}
	}
	return true
}

// Closes returns the close prices in series order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, p := range s {
		closes[i] = p.Close
	}
	return closes
}
