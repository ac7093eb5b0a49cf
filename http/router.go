package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Debt   *DebtHandler
	Spend  *SpendHandler
	Income *IncomeHandler
	Agent  *AgentHandler
}

type RouterConfig struct {
	AllowedOrigins []string
	Limiter        *RateLimiter
	TrustedProxies TrustedProxies
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

// NewRouter wires every API route. Health checks skip rate limiting.
func NewRouter(h Handlers, cfg RouterConfig, log logrus.FieldLogger) http.Handler {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware(log))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusNotFound, errorBody{Detail: "Not Found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusMethodNotAllowed, errorBody{Detail: "Method Not Allowed"})
	})

	r.HandleFunc("/health", health).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	if cfg.Limiter != nil {
		api.Use(RateLimitMiddleware(cfg.Limiter, cfg.TrustedProxies))
	}

	debt := api.PathPrefix("/debt").Subrouter()
	debt.HandleFunc("/list", h.Debt.List).Methods(http.MethodGet)
	debt.HandleFunc("/plan", h.Debt.Plan).Methods(http.MethodGet)
	debt.HandleFunc("/compare", h.Debt.Compare).Methods(http.MethodGet)

	spend := api.PathPrefix("/spend").Subrouter()
	spend.HandleFunc("/summary", h.Spend.Summary).Methods(http.MethodGet)
	spend.HandleFunc("/top_categories", h.Spend.TopCategories).Methods(http.MethodGet)
	spend.HandleFunc("/payment_split", h.Spend.PaymentSplit).Methods(http.MethodGet)
	spend.HandleFunc("/search", h.Spend.Search).Methods(http.MethodGet)
	spend.HandleFunc("/budget_advice", h.Spend.BudgetAdvice).Methods(http.MethodGet)

	income := api.PathPrefix("/income").Subrouter()
	income.HandleFunc("/summary", h.Income.Summary).Methods(http.MethodGet)
	income.HandleFunc("/by_source", h.Income.BySource).Methods(http.MethodGet)
	income.HandleFunc("/monthly", h.Income.Monthly).Methods(http.MethodGet)
	income.HandleFunc("/search", h.Income.Search).Methods(http.MethodGet)

	agent := api.PathPrefix("/agent").Subrouter()
	agent.HandleFunc("/chat", h.Agent.Chat).Methods(http.MethodPost)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	})
	return c.Handler(r)
}
