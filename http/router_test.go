package http

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-agent/domain"
	"finance-agent/repository"
	"finance-agent/service"
)

type fakeChat struct {
	reply domain.ChatReply
	err   error
	got   string
}

func (f *fakeChat) Chat(ctx context.Context, text string) (domain.ChatReply, error) {
	f.got = text
	return f.reply, f.err
}

type testFiles struct {
	debt   string
	spend  string
	income string
}

func writeFiles(t *testing.T) testFiles {
	t.Helper()
	dir := t.TempDir()
	files := testFiles{
		debt:   filepath.Join(dir, "debt_data.csv"),
		spend:  filepath.Join(dir, "personal_expense_dataset.csv"),
		income: filepath.Join(dir, "student_income_2024.csv"),
	}
	write := func(path, content string) {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write(files.debt, "name,balance,apr,min_payment\ncard,1000,30,50\nloan,500,0.05,50\n")
	write(files.spend, "Date,Category,Amount,Payment_Mode\n2024-01-05,Food,20,Cash\n2024-01-06,Rent,800,Card\n")
	write(files.income, "date,amount,source\n2024-01-10,500,Scholarship\n2024-02-01,200,Tutoring\n")
	return files
}

func newTestRouter(t *testing.T, files testFiles, chat ChatService, limiter *RateLimiter) http.Handler {
	t.Helper()
	logger, _ := test.NewNullLogger()

	spendRepo := repository.NewSQLSpendRepository(files.spend, logger)
	incomeRepo := repository.NewSQLIncomeRepository(files.income, logger)
	t.Cleanup(func() {
		spendRepo.Close()
		incomeRepo.Close()
	})

	return NewRouter(Handlers{
		Debt:   NewDebtHandler(service.NewDebtService(repository.NewCSVDebtRepository(files.debt), logger)),
		Spend:  NewSpendHandler(service.NewSpendService(spendRepo)),
		Income: NewIncomeHandler(service.NewIncomeService(incomeRepo)),
		Agent:  NewAgentHandler(chat),
	}, RouterConfig{Limiter: limiter}, logger)
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, writeFiles(t), &fakeChat{}, nil)

	w := do(t, h, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestID(t *testing.T) {
	h := newTestRouter(t, writeFiles(t), &fakeChat{}, nil)

	tests := []struct {
		name string
		sent string
		keep bool
	}{
		{"client id", "req-42_a.b", true},
		{"too long", strings.Repeat("a", 129), false},
		{"bad charset", "id\r\nX-Injected: 1", false},
		{"missing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if tt.sent != "" {
				req.Header.Set(RequestIDHeader, tt.sent)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			got := w.Header().Get(RequestIDHeader)
			if tt.keep {
				assert.Equal(t, tt.sent, got)
				return
			}
			_, err := uuid.Parse(got)
			assert.NoError(t, err)
		})
	}
}

func TestDebtList(t *testing.T) {
	h := newTestRouter(t, writeFiles(t), &fakeChat{}, nil)

	w := do(t, h, http.MethodGet, "/debt/list", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var debts []domain.Debt
	decode(t, w, &debts)
	require.Len(t, debts, 2)
	assert.InDelta(t, 0.30, debts[0].APR, 1e-12)
}

func TestDebtPlan(t *testing.T) {
	h := newTestRouter(t, writeFiles(t), &fakeChat{}, nil)

	w := do(t, h, http.MethodGet, "/debt/plan?strategy=snowball&extra_payment=200&schedule_months=500", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var res map[string]any
	decode(t, w, &res)
	assert.Equal(t, "snowball", res["strategy"])
	assert.Equal(t, 200.0, res["extra_payment"])
	assert.Equal(t, 113.2, res["total_interest_paid"])
	assert.Equal(t, "Schedule preview limited to first 60 months.", res["note"])
	assert.NotNil(t, res["payoff_months"])
}

func TestDebtPlan_Defaults(t *testing.T) {
	h := newTestRouter(t, writeFiles(t), &fakeChat{}, nil)

	w := do(t, h, http.MethodGet, "/debt/plan?strategy=avalanche-default", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var res domain.PayoffResult
	decode(t, w, &res)
	assert.Equal(t, domain.Avalanche, res.Strategy)
	assert.Equal(t, 0.0, res.ExtraPayment)
	assert.LessOrEqual(t, len(res.SchedulePreview), service.DefaultScheduleMonths)
}

func TestDebtPlan_BadParams(t *testing.T) {
	h := newTestRouter(t, writeFiles(t), &fakeChat{}, nil)

	for _, target := range []string{
		"/debt/plan?strategy=hybrid",
		"/debt/plan?extra_payment=lots",
		"/debt/plan?schedule_months=1.5",
		"/debt/compare?extra_payment=x",
		"/debt/plan?extra_payment=NaN",
		"/debt/plan?extra_payment=Inf",
		"/debt/compare?extra_payment=-Inf",
		"/debt/compare?extra_payment=1e400",
	} {
		w := do(t, h, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		var body errorBody
		decode(t, w, &body)
		assert.NotEmpty(t, body.Detail)
	}
}

func TestDebtCompare(t *testing.T) {
	h := newTestRouter(t, writeFiles(t), &fakeChat{}, nil)

	w := do(t, h, http.MethodGet, "/debt/compare?extra_payment=200", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var res domain.ComparisonResult
	decode(t, w, &res)
	require.NotNil(t, res.Recommended)
	assert.Equal(t, "avalanche", *res.Recommended)
	assert.Equal(t, 37.15, *res.InterestDifference)
}

func TestDebt_LoaderErrors(t *testing.T) {
	files := writeFiles(t)
	require.NoError(t, os.Remove(files.debt))
	h := newTestRouter(t, files, &fakeChat{}, nil)

	w := do(t, h, http.MethodGet, "/debt/plan", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"debt_data.csv not found on server"}`, w.Body.String())

	require.NoError(t, os.WriteFile(files.debt, []byte("name,balance\nx,1\n"), 0o644))
	w = do(t, h, http.MethodGet, "/debt/compare", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":"missing columns in CSV: [apr min_payment]"}`, w.Body.String())
}

func TestDebt_RejectsNonFiniteCells(t *testing.T) {
	files := writeFiles(t)
	require.NoError(t, os.WriteFile(files.debt, []byte("name,balance,apr,min_payment\ncard,NaN,30,50\n"), 0o644))
	h := newTestRouter(t, files, &fakeChat{}, nil)

	for _, target := range []string{"/debt/list", "/debt/plan", "/debt/compare"} {
		w := do(t, h, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.JSONEq(t, `{"detail":"line 2: balance \"NaN\" is not a number"}`, w.Body.String(), target)
	}
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	writeJSON(w, req, http.StatusOK, map[string]float64{"balance": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"internal server error"}`, w.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestRouter(t, writeFiles(t), &fakeChat{}, nil)

	w := do(t, h, http.MethodPost, "/debt/plan", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = do(t, h, http.MethodGet, "/agent/chat", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestSpendRoutes(t *testing.T) {
	h := newTestRouter(t, writeFiles(t), &fakeChat{}, nil)

	w := do(t, h, http.MethodGet, "/spend/summary?start=2024-01-01&end=2024-01-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary domain.SpendSummary
	decode(t, w, &summary)
	assert.EqualValues(t, 2, summary.NumTransactions)
	assert.Equal(t, 820.0, summary.TotalSpend)

	w = do(t, h, http.MethodGet, "/spend/top_categories?k=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cats []domain.CategorySpend
	decode(t, w, &cats)
	require.Len(t, cats, 1)
	assert.Equal(t, "Rent", cats[0].Category)

	w = do(t, h, http.MethodGet, "/spend/payment_split", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/spend/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":"q is required"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/spend/search?q=food", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var found []domain.Expense
	decode(t, w, &found)
	assert.Len(t, found, 1)

	w = do(t, h, http.MethodGet, "/spend/budget_advice?month=2024-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var advice domain.BudgetAdvice
	decode(t, w, &advice)
	assert.Equal(t, 410.0, advice.DailyAvgSpend)

	w = do(t, h, http.MethodGet, "/spend/budget_advice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/spend/summary?start=last-week", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIncomeRoutes(t *testing.T) {
	h := newTestRouter(t, writeFiles(t), &fakeChat{}, nil)

	w := do(t, h, http.MethodGet, "/income/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary domain.IncomeSummary
	decode(t, w, &summary)
	assert.Equal(t, 700.0, summary.TotalIncome)

	w = do(t, h, http.MethodGet, "/income/by_source", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/income/monthly", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var monthly []domain.MonthlyIncome
	decode(t, w, &monthly)
	assert.Len(t, monthly, 2)

	w = do(t, h, http.MethodGet, "/income/monthly?year=twenty", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/income/search?q=scholar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events []domain.IncomeEvent
	decode(t, w, &events)
	assert.Len(t, events, 1)
}

func TestAgentChat(t *testing.T) {
	chat := &fakeChat{reply: domain.ChatReply{Reply: "Spend less on rent."}}
	h := newTestRouter(t, writeFiles(t), chat, nil)

	w := do(t, h, http.MethodPost, "/agent/chat", []byte(`{"text":"advice?"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reply":"Spend less on rent."}`, w.Body.String())
	assert.Equal(t, "advice?", chat.got)

	w = do(t, h, http.MethodPost, "/agent/chat", []byte(`{not-json}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAgentChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"upstream", &domain.UpstreamError{Service: "agent", StatusCode: 401, Body: "expired"}, 401, "expired"},
		{"upstream bad status", &domain.UpstreamError{Service: "agent", StatusCode: 302, Body: "moved"}, 502, "moved"},
		{"not configured", domain.AgentNotConfigured("missing ORCH_AGENT_ENV_ID"), 500, "missing ORCH_AGENT_ENV_ID"},
		{"unexpected", context.DeadlineExceeded, 500, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, writeFiles(t), &fakeChat{err: tt.err}, nil)

			w := do(t, h, http.MethodPost, "/agent/chat", []byte(`{"text":"hi"}`))

			assert.Equal(t, tt.status, w.Code)
			var body errorBody
			decode(t, w, &body)
			assert.Equal(t, tt.detail, body.Detail)
		})
	}
}

func TestRateLimitedRoutes(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	h := newTestRouter(t, writeFiles(t), &fakeChat{}, limiter)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/debt/list", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/debt/list", nil).Code)

	w := do(t, h, http.MethodGet, "/debt/list", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", nil).Code)
}

func TestCORS(t *testing.T) {
	h := newTestRouter(t, writeFiles(t), &fakeChat{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
