// Package bridge предоставляет клиент для MT5 bridge сервиса (upstream data feed).
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"riskmonitor/pkg/ratelimit"
	"riskmonitor/pkg/retry"
)

// Ошибки клиента
var (
	// ErrSymbolUnavailable - bridge не смог отдать данные по символу.
	// Для движка мониторинга это штатная ситуация: проверка волатильности
	// по такому символу молча пропускается.
	ErrSymbolUnavailable = errors.New("symbol unavailable")
)

// Config содержит настройки HTTP клиента bridge
// Параметры connection pooling взяты из требований торгового ядра
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration // общий таймаут одного запроса (default: 5s)

	// Rate limiting исходящих запросов: один цикл мониторинга делает
	// до N запросов spread подряд (по одному на символ)
	RateLimit float64 // запросов в секунду (default: 20)
	RateBurst float64 // burst ёмкость (default: 40)

	// Connection pooling
	MaxIdleConns        int           // максимум idle соединений (default: 100)
	MaxIdleConnsPerHost int           // максимум idle соединений на хост (default: 10)
	IdleConnTimeout     time.Duration // таймаут простоя соединения (default: 90s)
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:             baseURL,
		RequestTimeout:      5 * time.Second,
		RateLimit:           20,
		RateBurst:           40,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
}

// Client - HTTP клиент MT5 bridge сервиса
//
// Назначение:
// Единственная точка доступа движка мониторинга к рыночным данным:
// - HealthCheck: готовность bridge и MT5 терминала (health gate цикла)
// - Spread: текущий относительный спред по символу
//
// Клиент сам ограничивает частоту исходящих запросов (token bucket)
// и повторяет транзиентные сетевые ошибки (exponential backoff).
// Таймауты запросов - ответственность клиента, не вызывающего кода.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *ratelimit.RateLimiter
	logger  *zap.Logger
}

// NewClient создаёт клиент bridge с настроенным transport
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 10
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.RequestTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		limiter: ratelimit.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		logger:  logger,
	}
}

// healthResponse - ответ GET /health
type healthResponse struct {
	Status         string `json:"status"`
	Service        string `json:"service"`
	MT5Initialized bool   `json:"mt5_initialized"`
}

// symbolInfoResponse - ответ GET /api/symbol-info/{symbol}
//
// Bridge отдаёт абсолютный спред (ask - bid) в ценовых единицах;
// относительный спред вычисляется на нашей стороне.
type symbolInfoResponse struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Spread float64 `json:"spread"`
}

// HealthCheck проверяет готовность upstream data feed
//
// Здоровым считается bridge, который отвечает 200, сообщает
// status=healthy и имеет инициализированное MT5 соединение.
// Любая ошибка (сеть, таймаут, не-200, кривой JSON) = нездоров.
func (c *Client) HealthCheck(ctx context.Context) bool {
	if err := c.limiter.Wait(ctx); err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("bridge health check failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false
	}

	return health.Status == "healthy" && health.MT5Initialized
}

// Spread возвращает относительный спред по символу: (ask - bid) / bid
//
// Транзиентные сетевые ошибки повторяются с backoff'ом;
// недоступный символ (не-200 от bridge) не повторяется и
// возвращается как ErrSymbolUnavailable.
func (c *Client) Spread(ctx context.Context, symbol string) (float64, error) {
	var info symbolInfoResponse

	cfg := retry.DefaultConfig()
	cfg.RetryIf = func(err error) bool {
		return !errors.Is(err, ErrSymbolUnavailable)
	}

	err := retry.Do(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return c.fetchSymbolInfo(ctx, symbol, &info)
	}, cfg)
	if err != nil {
		return 0, err
	}

	if info.Bid <= 0 {
		return 0, fmt.Errorf("%w: %s has no valid bid price", ErrSymbolUnavailable, symbol)
	}

	return (info.Ask - info.Bid) / info.Bid, nil
}

// fetchSymbolInfo выполняет один запрос symbol-info
func (c *Client) fetchSymbolInfo(ctx context.Context, symbol string, out *symbolInfoResponse) error {
	url := fmt.Sprintf("%s/api/symbol-info/%s", c.baseURL, strings.ToUpper(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Bridge отвечает 500 и на неизвестный символ, и на потерю
		// MT5 соединения - различить нельзя, поэтому не повторяем
		return fmt.Errorf("%w: %s (status %d)", ErrSymbolUnavailable, symbol, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
