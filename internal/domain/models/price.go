package models

import "time"

// PriceBar is one daily OHLCV record.
type PriceBar struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceHistory is a chronologically ordered run of bars for one symbol.
type PriceHistory struct {
	Symbol   string     `json:"symbol"`
	Provider string     `json:"provider"`
	Bars     []PriceBar `json:"bars"`
}

func (h *PriceHistory) Len() int { return len(h.Bars) }

func (h *PriceHistory) Closes() []float64 {
	out := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.Close
	}
	return out
}

func (h *PriceHistory) Volumes() []float64 {
	out := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.Volume
	}
	return out
}

// Dates formats bar dates as YYYY-MM-DD.
func (h *PriceHistory) Dates() []string {
	out := make([]string, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.Date.Format(time.DateOnly)
	}
	return out
}

// Last returns the most recent bar.
func (h *PriceHistory) Last() (PriceBar, bool) {
	if len(h.Bars) == 0 {
		return PriceBar{}, false
	}
	return h.Bars[len(h.Bars)-1], true
}

// StockInfo is the company profile shown next to the chart. Optional numbers
// are nil when the provider does not report them.
type StockInfo struct {
	Name        string   `json:"name"`
	Sector      string   `json:"sector"`
	Industry    string   `json:"industry"`
	MarketCap   *float64 `json:"market_cap"`
	PERatio     *float64 `json:"pe_ratio"`
	Description string   `json:"description"`
}

const (
	NotAvailable  = "N/A"
	NoDescription = "No description available"
)

// WithFallbacks fills empty text fields. The name falls back to the symbol.
func (s StockInfo) WithFallbacks(symbol string) StockInfo {
	if s.Name == "" {
		s.Name = symbol
	}
	if s.Sector == "" {
		s.Sector = NotAvailable
	}
	if s.Industry == "" {
		s.Industry = NotAvailable
	}
	if s.Description == "" {
		s.Description = NoDescription
	}
	return s
}
