package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// ChartResponse is the raw body of the Yahoo Finance v8 chart endpoint.
type ChartResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// ChartResult holds the metadata and candles for one symbol.
type ChartResult struct {
	Meta struct {
		Currency             string  `json:"currency"`
		Symbol               string  `json:"symbol"`
		ShortName            string  `json:"shortName"`
		LongName             string  `json:"longName"`
		RegularMarketPrice   float64 `json:"regularMarketPrice"`
		ChartPreviousClose   float64 `json:"chartPreviousClose"`
		PreviousClose        float64 `json:"previousClose"`
		RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
		RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
		RegularMarketVolume  int64   `json:"regularMarketVolume"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			Close  []*float64 `json:"close"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Candle is one parsed daily bar. Yahoo reports null for days without trades;
// those days are dropped by Candles.
type Candle struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Candles flattens the indicator arrays into bars.
func (r ChartResult) Candles() ([]Candle, error) {
	if len(r.Timestamp) == 0 {
		return nil, fmt.Errorf("no price data returned")
	}
	if len(r.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote indicators returned")
	}
	q := r.Indicators.Quote[0]
	n := len(r.Timestamp)
	if len(q.Close) != n || len(q.Open) != n || len(q.High) != n || len(q.Low) != n || len(q.Volume) != n {
		return nil, fmt.Errorf("mismatched data lengths")
	}

	candles := make([]Candle, 0, n)
	for i, ts := range r.Timestamp {
		if q.Close[i] == nil {
			continue
		}
		c := Candle{Date: time.Unix(ts, 0).UTC(), Close: *q.Close[i]}
		if q.Open[i] != nil {
			c.Open = *q.Open[i]
		}
		if q.High[i] != nil {
			c.High = *q.High[i]
		}
		if q.Low[i] != nil {
			c.Low = *q.Low[i]
		}
		if q.Volume[i] != nil {
			c.Volume = *q.Volume[i]
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// YahooClient fetches charts from Yahoo Finance.
type YahooClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewYahooClient creates a client whose requests time out after timeout.
func NewYahooClient(timeout time.Duration) *YahooClient {
	return &YahooClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultYahooBaseURL,
	}
}

// WithBaseURL points the client at another host, e.g. a test server.
func (c *YahooClient) WithBaseURL(baseURL string) *YahooClient {
	c.baseURL = baseURL
	return c
}

// Chart fetches daily bars for symbol. rng is a Yahoo range such as "1d" or "3mo".
func (c *YahooClient) Chart(ctx context.Context, symbol, rng string) (*ChartResult, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(rng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var body ChartResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("yahoo: decode %s (status %d): %w", symbol, resp.StatusCode, err)
	}
	if body.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error: %s: %s", body.Chart.Error.Code, body.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: unexpected status %d for %s", resp.StatusCode, symbol)
	}
	if len(body.Chart.Result) == 0 {
		return nil, fmt.Errorf("no results returned for symbol %s", symbol)
	}
	return &body.Chart.Result[0], nil
}
