package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"finance-agent/config"
	httpLayer "finance-agent/http"
	"finance-agent/repository"
	"finance-agent/service"
)

func main() {
	cfg := config.Load()
	logger := cfg.NewLogger()
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	tokenCache, closeCache := newTokenCache(cfg, logger)
	defer closeCache()

	debtRepo := repository.NewCSVDebtRepository(cfg.DebtCSVPath)
	spendRepo := repository.NewSQLSpendRepository(cfg.SpendCSVPath, logger)
	defer spendRepo.Close()
	incomeRepo := repository.NewSQLIncomeRepository(cfg.IncomeCSVPath, logger)
	defer incomeRepo.Close()

	debtService := service.NewDebtService(debtRepo, logger)
	spendService := service.NewSpendService(spendRepo)
	incomeService := service.NewIncomeService(incomeRepo)

	tokens := service.NewTokenProvider(service.TokenProviderConfig{
		APIKey:   cfg.OrchAPIKey,
		TokenURL: cfg.IAMTokenURL,
		Skew:     cfg.TokenRefreshSkew,
		Timeout:  cfg.IAMTimeout,
	}, tokenCache, logger)
	agentService := service.NewAgentService(service.AgentConfig{
		InstanceURL: cfg.OrchInstanceURL,
		AgentEnvID:  cfg.OrchAgentEnvID,
		Timeout:     cfg.AgentTimeout,
	}, tokens, logger)
	if cfg.OrchAPIKey == "" || cfg.OrchAgentEnvID == "" {
		logger.Warn("ORCH_API_KEY or ORCH_AGENT_ENV_ID not set; /agent/chat will fail")
	}

	trustedProxies, err := httpLayer.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimitTokens, cfg.RateLimitWindow)
	defer rateLimiter.Stop()

	router := httpLayer.NewRouter(httpLayer.Handlers{
		Debt:   httpLayer.NewDebtHandler(debtService),
		Spend:  httpLayer.NewSpendHandler(spendService),
		Income: httpLayer.NewIncomeHandler(incomeService),
		Agent:  httpLayer.NewAgentHandler(agentService),
	}, httpLayer.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Limiter:        rateLimiter,
		TrustedProxies: trustedProxies,
	}, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AgentTimeout + cfg.IAMTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.WithError(err).Error("Error starting server")
		return
	case <-quit:
		logger.Info("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Error during server shutdown")
	}

	logger.Info("Server exited")
}

// newTokenCache uses Redis when REDIS_ADDR is set so replicas share one
// IAM token, and an in-process cache otherwise.
func newTokenCache(cfg *config.Config, logger *logrus.Logger) (repository.CacheRepository, func()) {
	if cfg.RedisAddr == "" {
		return repository.NewMemoryCache(), func() {}
	}

	cache := repository.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		logger.WithError(err).Warn("Redis unreachable; token refreshes will not be shared until it recovers")
	} else {
		logger.WithField("addr", cfg.RedisAddr).Info("Using Redis token cache")
	}
	return cache, func() {
		if err := cache.Close(); err != nil {
			logger.WithError(err).Warn("closing redis client")
		}
	}
}
