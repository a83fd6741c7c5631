package model

import "github.com/navid-fn/momentum/internal/models"

// SourceInfo summarises one source's catalog.
type SourceInfo struct {
	Name         string `json:"name"`
	Available    bool   `json:"available"`
	GeneratedAt  string `json:"generated_at,omitempty"`
	CutoffDate   string `json:"cutoff_date,omitempty"`
	TotalTickers int    `json:"total_tickers"`
	TotalRecords int    `json:"total_records"`
}

// LatestCandle is the newest candle of one series.
type LatestCandle struct {
	MCVID  string        `json:"mcv_id"`
	Ticker string        `json:"ticker"`
	Name   string        `json:"name,omitempty"`
	Candle models.Candle `json:"candle"`
}
