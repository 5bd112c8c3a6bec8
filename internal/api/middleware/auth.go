// auth.go — JWT middleware аутентификации SDS.
// Bearer-токены Azure AD валидируются по RS256 через JWKS
// (jwks_uri берётся из OIDC discovery документа). Требования к токену:
// audience = AUDIENCE, issuer tenant'а, claim azp (становится subject),
// пересечение roles с allowlist. Публичные endpoints (ping, health,
// status, metrics) — без аутентификации.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/bigkaa/sds/internal/api/errors"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeySubject — ключ контекста для subject (claim azp).
const ContextKeySubject contextKey = "jwt_subject"

// Детали ответов аутентификатора.
const (
	detailBadScheme    = "Incorrect authorisation scheme"
	detailInvalidToken = "Invalid or expired token"
	detailMissingAzp   = "Token is missing azp claim"
	detailMissingRole  = "Required role missing"
)

// roleAllowlist — роли, дающие доступ к data-plane маршрутам.
var roleAllowlist = []string{"LAA_SDS.ALL", "SDS.READ"}

// Claims — структура JWT claims SDS.
type Claims struct {
	jwt.RegisteredClaims
	// Azp — authorized party, идентификатор клиентского приложения
	Azp string `json:"azp"`
	// Roles — app-роли, назначенные приложению в Azure AD
	Roles []string `json:"roles"`
}

// HasAllowedRole сообщает, пересекаются ли roles с allowlist.
func (c *Claims) HasAllowedRole() bool {
	for _, role := range c.Roles {
		for _, allowed := range roleAllowlist {
			if role == allowed {
				return true
			}
		}
	}
	return false
}

// Authenticator — middleware аутентификации по JWT.
type Authenticator struct {
	jwks     keyfunc.Keyfunc
	audience string
	issuer   string
	logger   *slog.Logger
}

// AuthConfig — параметры создания аутентификатора.
type AuthConfig struct {
	// URL OIDC discovery документа
	DiscoveryURL string
	// TTL кэша discovery документа
	DiscoveryTTL time.Duration
	// Ожидаемый audience токена
	Audience string
	// Ожидаемый issuer токена
	Issuer string
	// Интервал фонового обновления JWKS
	RefreshInterval time.Duration
}

// NewAuthenticator создаёт аутентификатор: запрашивает discovery
// документ, поднимает JWKS-хранилище с фоновым обновлением и keyfunc.
// NoErrorReturnFirstHTTPReq позволяет стартовать при недоступном
// JWKS endpoint'е (одновременный запуск pod-ов).
func NewAuthenticator(ctx context.Context, authCfg AuthConfig, logger *slog.Logger) (*Authenticator, error) {
	discovery := NewDiscovery(authCfg.DiscoveryURL, authCfg.DiscoveryTTL, logger)
	jwksURI, err := discovery.JWKSURI(ctx)
	if err != nil {
		return nil, err
	}

	storage, err := jwkset.NewStorageFromHTTP(jwksURI, jwkset.HTTPClientStorageOptions{
		Ctx:                       ctx,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           authCfg.RefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURI),
			)
		},
	})
	if err != nil {
		return nil, err
	}

	k, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, err
	}

	return &Authenticator{
		jwks:     k,
		audience: authCfg.Audience,
		issuer:   authCfg.Issuer,
		logger:   logger.With(slog.String("component", "jwt_auth")),
	}, nil
}

// NewAuthenticatorWithKeyfunc создаёт аутентификатор с готовой keyfunc.
// Используется в тестах для подстановки mock JWKS.
func NewAuthenticatorWithKeyfunc(kf keyfunc.Keyfunc, audience, issuer string, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		jwks:     kf,
		audience: audience,
		issuer:   issuer,
		logger:   logger.With(slog.String("component", "jwt_auth")),
	}
}

// Middleware возвращает HTTP middleware аутентификации.
// Схема bearer (без учёта регистра) → 401; невалидная подпись,
// audience, issuer или неизвестный kid → 401; отсутствие azp → 403;
// roles без пересечения с allowlist → 403. Subject = azp.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				apierrors.Unauthorized(w, detailBadScheme)
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, a.jwks.KeyfuncCtx(r.Context()),
				jwt.WithValidMethods([]string{"RS256"}),
				jwt.WithAudience(a.audience),
				jwt.WithIssuer(a.issuer),
				jwt.WithExpirationRequired(),
			)
			if err != nil || !token.Valid {
				a.logger.Debug("JWT валидация не пройдена",
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, detailInvalidToken)
				return
			}

			if claims.Azp == "" {
				apierrors.Forbidden(w, detailMissingAzp)
				return
			}
			if !claims.HasAllowedRole() {
				apierrors.Forbidden(w, detailMissingRole)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Azp)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubjectFromContext извлекает subject (azp) из контекста запроса.
// Возвращает пустую строку, если subject не найден.
func SubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(ContextKeySubject).(string)
	return subject
}
