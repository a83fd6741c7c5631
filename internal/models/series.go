package models

import "time"

// DateLayout is the layout of Candle.Date and Catalog.CutoffDate.
const DateLayout = "2006-01-02"

// Series is the history of one instrument, keyed by its mcv_id.
type Series struct {
	// MCVID is the global key: ticker, currency and source (e.g., "BTC-KRW-UPBIT").
	MCVID string `json:"mcv_id"`

	// Ticker is the symbol shown to users ("BTC", "AAPL", "005930.KS").
	Ticker string `json:"ticker"`

	// Name is the English display name.
	Name string `json:"name,omitempty"`

	// KoName is the Korean display name.
	KoName string `json:"ko_name,omitempty"`

	// Category groups Korean equities by market ("kospi", "kosdaq").
	Category string `json:"category,omitempty"`

	// CoingeckoID is CoinGecko's internal coin id ("bitcoin").
	CoingeckoID string `json:"coingecko_id,omitempty"`

	// Market is Upbit's market code ("KRW-BTC").
	Market string `json:"market,omitempty"`

	// History is ascending by date.
	History []Candle `json:"history"`
}

// Latest returns the most recent candle, or false for an empty series.
func (s Series) Latest() (Candle, bool) {
	if len(s.History) == 0 {
		return Candle{}, false
	}
	return s.History[len(s.History)-1], true
}

// Catalog is the persisted document of one source.
type Catalog struct {
	GeneratedAt  string   `json:"generated_at"`
	CutoffDate   string   `json:"cutoff_date"`
	TotalTickers int      `json:"total_tickers"`
	TotalRecords int      `json:"total_records"`
	Data         []Series `json:"data"`
}

// NewCatalog returns an empty catalog whose cutoff is the backfill start.
func NewCatalog(cutoff time.Time) *Catalog {
	return &Catalog{
		CutoffDate: cutoff.Format(DateLayout),
		Data:       []Series{},
	}
}

// Index maps mcv_id to its position in Data.
func (c *Catalog) Index() map[string]int {
	idx := make(map[string]int, len(c.Data))
	for i, s := range c.Data {
		idx[s.MCVID] = i
	}
	return idx
}

// RefreshTotals recomputes total_tickers and total_records.
func (c *Catalog) RefreshTotals() {
	c.TotalTickers = len(c.Data)
	c.TotalRecords = 0
	for _, s := range c.Data {
		c.TotalRecords += len(s.History)
	}
}

// TickerInfo describes one instrument of a source's universe before any data is fetched.
type TickerInfo struct {
	MCVID       string `json:"mcv_id" validate:"required"`
	Ticker      string `json:"ticker" validate:"required"`
	Name        string `json:"name,omitempty"`
	KoName      string `json:"ko_name,omitempty"`
	Category    string `json:"category,omitempty"`
	CoingeckoID string `json:"coingecko_id,omitempty"`
	Market      string `json:"market,omitempty"`
}

// NewSeries starts a series for t with the given history.
func (t TickerInfo) NewSeries(history []Candle) Series {
	return Series{
		MCVID:       t.MCVID,
		Ticker:      t.Ticker,
		Name:        t.Name,
		KoName:      t.KoName,
		Category:    t.Category,
		CoingeckoID: t.CoingeckoID,
		Market:      t.Market,
		History:     history,
	}
}

// TickerEntry is one row of the companion ticker list.
type TickerEntry struct {
	MCVID       string `json:"mcv_id"`
	Ticker      string `json:"ticker"`
	Name        string `json:"name,omitempty"`
	KoName      string `json:"ko_name,omitempty"`
	Category    string `json:"category,omitempty"`
	CoingeckoID string `json:"coingecko_id,omitempty"`
}

// TickerList is the lightweight discovery document written next to the catalog.
type TickerList struct {
	GeneratedAt string        `json:"generated_at"`
	Tickers     []TickerEntry `json:"tickers"`
}

// TickerListFor builds the ticker list of a catalog.
func TickerListFor(c *Catalog) *TickerList {
	list := &TickerList{
		GeneratedAt: c.GeneratedAt,
		Tickers:     make([]TickerEntry, 0, len(c.Data)),
	}
	for _, s := range c.Data {
		list.Tickers = append(list.Tickers, TickerEntry{
			MCVID:       s.MCVID,
			Ticker:      s.Ticker,
			Name:        s.Name,
			KoName:      s.KoName,
			Category:    s.Category,
			CoingeckoID: s.CoingeckoID,
		})
	}
	return list
}
