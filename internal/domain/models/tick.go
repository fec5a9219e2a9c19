package models

import "time"

// MarketTick is a single normalized market observation.
// Created by the ingest decoder and never mutated afterwards.
type MarketTick struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    int64     `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
	Exchange  string    `json:"exchange"`
	Bid       float64   `json:"bid,omitempty"`
	Ask       float64   `json:"ask,omitempty"`
	High      float64   `json:"high,omitempty"`
	Low       float64   `json:"low,omitempty"`
	Open      float64   `json:"open,omitempty"`
}

// Valid reports whether the tick can enter a window.
func (t *MarketTick) Valid() bool {
	return t != nil && t.Symbol != "" && t.Price > 0
}
