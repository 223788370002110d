// internal/api/api_integration_test.go
package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "estocks/internal"
	"estocks/internal/domain"
)

// testApp is the global application instance for testing.
var testApp *app.Application

// testServer is the httptest server.
var testServer *httptest.Server

// TestMain boots the full application against a PostgreSQL test database.
// Set TEST_DB_NAME to run these tests; without it they are skipped.
func TestMain(m *testing.M) {
	if os.Getenv("TEST_DB_NAME") == "" {
		fmt.Fprintln(os.Stderr, "TEST_DB_NAME not set, skipping API integration tests")
		os.Exit(0)
	}
	setupEnvVars()

	testApp = app.NewApplication()
	if err := testApp.Initialize(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize test application: %v\n", err)
		os.Exit(1)
	}

	testServer = httptest.NewServer(testApp.HTTPHandler)
	code := m.Run()
	testServer.Close()

	if err := testApp.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shutdown test application: %v\n", err)
		os.Exit(1)
	}

	os.Exit(code)
}

// setupEnvVars points the application at the test database.
func setupEnvVars() {
	os.Setenv("DB_NAME", os.Getenv("TEST_DB_NAME"))
	defaults := map[string]string{
		"DB_HOST":            "localhost",
		"DB_PORT":            "5432",
		"DB_USER":            "user",
		"DB_PASSWORD":        "password",
		"DB_SSLMODE":         "disable",
		"DB_CONNECT_RETRIES": "1",
		"DB_MIGRATE":         "true",
		"LOG_LEVEL":          "error",
		"REDIS_ADDR":         "",
	}
	for key, value := range defaults {
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// clearDatabase truncates the per-user tables. Seeded funds are kept.
func clearDatabase(t *testing.T) {
	_, err := testApp.DB.Exec("TRUNCATE TABLE fund_investments, wallets, users RESTART IDENTITY CASCADE;")
	require.NoError(t, err)
}

// makeRequest sends an HTTP request to the test server with an optional bearer token.
func makeRequest(t *testing.T, method, path, token string, body io.Reader) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, testServer.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload), string(raw))
	}
	return resp, payload
}

// signUp registers and logs in a user, funds the wallet and returns the session token.
func signUp(t *testing.T, username string, balance decimal.Decimal) string {
	t.Helper()
	creds := fmt.Sprintf(`{"username":%q,"password":"password123"}`, username)

	resp, _ := makeRequest(t, http.MethodPost, "/api/v1/auth/register", "", strings.NewReader(creds))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := makeRequest(t, http.MethodPost, "/api/v1/auth/login", "", strings.NewReader(creds))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := body["token"].(string)

	if balance.IsPositive() {
		resp, _ = makeRequest(t, http.MethodPost, "/api/v1/wallet/deposit", token,
			strings.NewReader(fmt.Sprintf(`{"amount":"%s"}`, balance)))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	return token
}

// firstFund returns a seeded fund.
func firstFund(t *testing.T) domain.Fund {
	t.Helper()
	funds, err := testApp.FundRepository.ListFunds(context.Background(), testApp.DB)
	require.NoError(t, err)
	require.NotEmpty(t, funds, "migrations should seed funds")
	return funds[0]
}

func walletBalance(t *testing.T, token string) decimal.Decimal {
	t.Helper()
	resp, body := makeRequest(t, http.MethodGet, "/api/v1/wallet", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	balance, err := decimal.NewFromString(body["balance"].(string))
	require.NoError(t, err)
	return balance
}

func countInvestments(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, testApp.DB.Get(&n, "SELECT COUNT(*) FROM fund_investments"))
	return n
}

func TestAccountIntegration(t *testing.T) {
	clearDatabase(t)

	t.Run("RegisterLoginDeposit", func(t *testing.T) {
		token := signUp(t, "alice", decimal.NewFromInt(10000))
		assert.True(t, decimal.NewFromInt(10000).Equal(walletBalance(t, token)))
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		resp, _ := makeRequest(t, http.MethodPost, "/api/v1/auth/register", "",
			strings.NewReader(`{"username":"alice","password":"password123"}`))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		resp, _ := makeRequest(t, http.MethodPost, "/api/v1/auth/login", "",
			strings.NewReader(`{"username":"alice","password":"wrongpassword"}`))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("DepositOverflowIsBadRequest", func(t *testing.T) {
		token := signUp(t, "whale", decimal.RequireFromString("9999999999999999"))

		resp, _ := makeRequest(t, http.MethodPost, "/api/v1/wallet/deposit", token,
			strings.NewReader(`{"amount":"9999999999999999"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.True(t, decimal.RequireFromString("9999999999999999").Equal(walletBalance(t, token)))
	})

	t.Run("DepositBeyondStoredScale", func(t *testing.T) {
		token := signUp(t, "dust", decimal.Zero)

		resp, _ := makeRequest(t, http.MethodPost, "/api/v1/wallet/deposit", token,
			strings.NewReader(`{"amount":"0.00004"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.True(t, walletBalance(t, token).IsZero())
	})

	t.Run("WalletRequiresLogin", func(t *testing.T) {
		resp, body := makeRequest(t, http.MethodGet, "/api/v1/wallet", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.NotEmpty(t, body["login_url"])
	})
}

func TestInvestIntegration(t *testing.T) {
	clearDatabase(t)
	fund := firstFund(t)

	t.Run("SuccessfulInvest", func(t *testing.T) {
		token := signUp(t, "investor", decimal.NewFromInt(10000))

		resp, body := makeRequest(t, http.MethodPost, "/api/v1/investments/invest", token,
			strings.NewReader(fmt.Sprintf(`{"fund_id":%d,"amount":5000}`, fund.ID)))

		require.Equal(t, http.StatusCreated, resp.StatusCode, body)
		assert.Contains(t, body["message"], "Successfully invested PKR 5,000 in "+fund.Name)
		assert.True(t, decimal.NewFromInt(5000).Equal(walletBalance(t, token)))

		resp, mine := makeRequest(t, http.MethodGet, "/api/v1/investments/mine", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, mine["data"], 1)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		token := signUp(t, "poor", decimal.NewFromInt(100))
		before := countInvestments(t)

		resp, body := makeRequest(t, http.MethodPost, "/api/v1/investments/invest", token,
			strings.NewReader(fmt.Sprintf(`{"fund_id":%d,"amount":500}`, fund.ID)))

		assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
		assert.Equal(t, "Insufficient wallet balance to invest.", body["error"])
		assert.True(t, decimal.NewFromInt(100).Equal(walletBalance(t, token)))
		assert.Equal(t, before, countInvestments(t))
	})

	t.Run("AmountBeyondStoredScale", func(t *testing.T) {
		token := signUp(t, "precise", decimal.NewFromInt(100))
		before := countInvestments(t)

		resp, _ := makeRequest(t, http.MethodPost, "/api/v1/investments/invest", token,
			strings.NewReader(fmt.Sprintf(`{"fund_id":%d,"amount":"10.00005"}`, fund.ID)))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.True(t, decimal.NewFromInt(100).Equal(walletBalance(t, token)))
		assert.Equal(t, before, countInvestments(t))
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		before := countInvestments(t)
		resp, body := makeRequest(t, http.MethodPost, "/api/v1/investments/invest", "not-a-token",
			strings.NewReader(fmt.Sprintf(`{"fund_id":%d,"amount":10}`, fund.ID)))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "You must be logged in to invest.", body["error"])
		assert.Equal(t, before, countInvestments(t))
	})

	t.Run("UnknownFund", func(t *testing.T) {
		token := signUp(t, "lost", decimal.NewFromInt(100))
		resp, body := makeRequest(t, http.MethodPost, "/api/v1/investments/invest", token,
			strings.NewReader(`{"fund_id":999999,"amount":10}`))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Fund not found.", body["error"])
		assert.True(t, decimal.NewFromInt(100).Equal(walletBalance(t, token)))
	})

	t.Run("ConcurrentInvestsCannotOverdraw", func(t *testing.T) {
		token := signUp(t, "racer", decimal.NewFromInt(100))
		before := countInvestments(t)

		const attempts = 2
		codes := make([]int, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				req, _ := http.NewRequest(http.MethodPost, testServer.URL+"/api/v1/investments/invest",
					strings.NewReader(fmt.Sprintf(`{"fund_id":%d,"amount":80}`, fund.ID)))
				req.Header.Set("Authorization", "Bearer "+token)
				resp, err := http.DefaultClient.Do(req)
				if !assert.NoError(t, err) {
					return
				}
				resp.Body.Close()
				codes[i] = resp.StatusCode
			}(i)
		}
		wg.Wait()

		assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusPaymentRequired}, codes)
		assert.True(t, decimal.NewFromInt(20).Equal(walletBalance(t, token)))
		assert.Equal(t, before+1, countInvestments(t))
	})
}
