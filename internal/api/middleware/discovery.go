// discovery.go — клиент OIDC discovery документа Azure AD.
// Документ кэшируется на OIDC_TTL (expirable.LRU), из него берётся
// jwks_uri для JWKS-хранилища аутентификатора.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// discoveryCacheKey — единственный ключ кэша discovery документа.
const discoveryCacheKey = "discovery"

// discoveryDocument — интересующая часть OIDC discovery документа.
type discoveryDocument struct {
	JWKSURI string `json:"jwks_uri"`
	Issuer  string `json:"issuer"`
}

// Discovery — TTL-кэшированный клиент OIDC discovery endpoint'а.
type Discovery struct {
	url    string
	client *http.Client
	cache  *expirable.LRU[string, discoveryDocument]
	logger *slog.Logger
}

// NewDiscovery создаёт клиента discovery документа с TTL-кэшем.
func NewDiscovery(url string, ttl time.Duration, logger *slog.Logger) *Discovery {
	return &Discovery{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		cache:  expirable.NewLRU[string, discoveryDocument](1, nil, ttl),
		logger: logger.With(slog.String("component", "oidc_discovery")),
	}
}

// JWKSURI возвращает jwks_uri из discovery документа (через кэш).
func (d *Discovery) JWKSURI(ctx context.Context) (string, error) {
	doc, err := d.fetch(ctx)
	if err != nil {
		return "", err
	}
	return doc.JWKSURI, nil
}

// fetch возвращает discovery документ из кэша либо запрашивает его.
func (d *Discovery) fetch(ctx context.Context) (discoveryDocument, error) {
	if doc, ok := d.cache.Get(discoveryCacheKey); ok {
		return doc, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return discoveryDocument{}, fmt.Errorf("запрос discovery документа: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Error("Ошибка запроса discovery документа",
			slog.String("url", d.url),
			slog.String("error", err.Error()),
		)
		return discoveryDocument{}, fmt.Errorf("запрос discovery документа: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return discoveryDocument{}, fmt.Errorf("discovery endpoint вернул статус %d", resp.StatusCode)
	}

	var doc discoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return discoveryDocument{}, fmt.Errorf("разбор discovery документа: %w", err)
	}
	if doc.JWKSURI == "" {
		return discoveryDocument{}, fmt.Errorf("discovery документ не содержит jwks_uri")
	}

	d.cache.Add(discoveryCacheKey, doc)
	return doc, nil
}
