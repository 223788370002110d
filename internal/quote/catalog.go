package quote

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Stock is one listed symbol the service knows how to quote.
type Stock struct {
	Symbol      string `json:"symbol"`
	YahooSymbol string `json:"yahoo_symbol"`
	CompanyName string `json:"company_name"`
}

// Catalog maps exchange symbols to provider symbols and company names. It is
// read-only after construction.
type Catalog struct {
	stocks []Stock
	index  map[string]int
}

var psxStocks = []Stock{
	{"OGDC", "OGDC.KA", "Oil & Gas Development Company"},
	{"PPL", "PPL.KA", "Pakistan Petroleum Limited"},
	{"PSO", "PSO.KA", "Pakistan State Oil"},
	{"HBL", "HBL.KA", "Habib Bank Limited"},
	{"UBL", "UBL.KA", "United Bank Limited"},
	{"MCB", "MCB.KA", "MCB Bank Limited"},
	{"ENGRO", "ENGRO.KA", "Engro Corporation"},
	{"FFC", "FFC.KA", "Fauji Fertilizer Company"},
	{"LUCK", "LUCK.KA", "Lucky Cement"},
	{"HUBC", "HUBC.KA", "Hub Power Company"},
	{"KEL", "KEL.KA", "K-Electric Limited"},
	{"TRG", "TRG.KA", "TRG Pakistan Limited"},
	{"EFERT", "EFERT.KA", "Engro Fertilizers"},
	{"MARI", "MARI.KA", "Mari Petroleum"},
	{"MEBL", "MEBL.KA", "Meezan Bank"},
	{"BAFL", "BAFL.KA", "Bank Alfalah"},
	{"NBP", "NBP.KA", "National Bank of Pakistan"},
	{"SNGP", "SNGP.KA", "Sui Northern Gas"},
	{"SSGC", "SSGC.KA", "Sui Southern Gas"},
	{"MLCF", "MLCF.KA", "Maple Leaf Cement"},
}

// NewCatalog builds a catalog from stocks. Later duplicates of a symbol win.
func NewCatalog(stocks []Stock) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(stocks))}
	for _, s := range stocks {
		s.Symbol = strings.ToUpper(strings.TrimSpace(s.Symbol))
		if s.Symbol == "" {
			return nil, fmt.Errorf("catalog entry without symbol")
		}
		if s.YahooSymbol == "" {
			s.YahooSymbol = s.Symbol
		}
		if s.CompanyName == "" {
			s.CompanyName = s.Symbol
		}
		if i, ok := c.index[s.Symbol]; ok {
			c.stocks[i] = s
			continue
		}
		c.index[s.Symbol] = len(c.stocks)
		c.stocks = append(c.stocks, s)
	}
	return c, nil
}

// DefaultCatalog returns the built-in Pakistan Stock Exchange listing.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(psxStocks)
	return c
}

// LoadCatalog reads a JSON array of stocks from path. An empty path yields
// the default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stock catalog: %w", err)
	}
	var stocks []Stock
	if err := json.Unmarshal(data, &stocks); err != nil {
		return nil, fmt.Errorf("parse stock catalog %s: %w", path, err)
	}
	return NewCatalog(stocks)
}

// Stocks returns the catalog in listing order.
func (c *Catalog) Stocks() []Stock {
	return append([]Stock(nil), c.stocks...)
}

// Lookup resolves symbol. Unknown symbols map to themselves.
func (c *Catalog) Lookup(symbol string) Stock {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if i, ok := c.index[symbol]; ok {
		return c.stocks[i]
	}
	return Stock{Symbol: symbol, YahooSymbol: symbol, CompanyName: symbol}
}
