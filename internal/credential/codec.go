// Package credential кодирует токен сессии в cookie администратора и обратно.
package credential

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maynagashev/kdramahub/internal/models"
)

// Окружения и имена cookie.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	// Префикс __Host- в продакшене: cookie только с Secure, без Domain и с Path=/.
	productionCookieName  = "__Host-admin-session"
	developmentCookieName = "admin-session"

	issuer = "kdramahub"
)

// Config - явная конфигурация cookie сессии.
type Config struct {
	Name       string        // Имя cookie
	Secure     bool          // Передавать только по HTTPS
	SigningKey []byte        // Ключ подписи содержимого cookie (HS256)
	MaxAge     time.Duration // Время жизни cookie, по умолчанию models.SessionTTL
}

// ConfigFor возвращает конфигурацию cookie для окружения.
func ConfigFor(env string, signingKey []byte) Config {
	if env == EnvProduction {
		return Config{Name: productionCookieName, Secure: true, SigningKey: signingKey, MaxAge: models.SessionTTL}
	}
	return Config{Name: developmentCookieName, Secure: false, SigningKey: signingKey, MaxAge: models.SessionTTL}
}

// Codec преобразует токен сессии в заголовок Set-Cookie и обратно.
// Не обращается к хранилищу.
type Codec struct {
	cfg Config
	now func() time.Time
}

// NewCodec создает кодек с заданной конфигурацией.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Name == "" {
		return nil, errors.New("не задано имя cookie сессии")
	}
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("не задан ключ подписи cookie сессии")
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = models.SessionTTL
	}
	return &Codec{cfg: cfg, now: time.Now}, nil
}

// Name возвращает имя cookie.
func (c *Codec) Name() string {
	return c.cfg.Name
}

// Encode возвращает значение заголовка Set-Cookie с токеном сессии.
func (c *Codec) Encode(token string) string {
	value, err := c.sign(token)
	if err != nil {
		// Неподписанный токен клиенту не отдаем
		log.Printf("[Credential] Ошибка подписи cookie: %v", err)
		return c.EncodeClear()
	}
	return c.cookie(value, int(c.cfg.MaxAge/time.Second)).String()
}

// EncodeClear возвращает значение заголовка Set-Cookie, удаляющее cookie у клиента.
func (c *Codec) EncodeClear() string {
	cookie := c.cookie("", -1) // MaxAge < 0 сериализуется как Max-Age=0
	cookie.Expires = time.Unix(0, 0)
	return cookie.String()
}

// Decode извлекает токен сессии из заголовка Cookie.
// Отсутствующее, поврежденное, поддельное или истекшее значение дает ok = false.
func (c *Codec) Decode(rawCookieHeader string) (string, bool) {
	if rawCookieHeader == "" {
		return "", false
	}
	r := &http.Request{Header: http.Header{"Cookie": {rawCookieHeader}}}
	return c.DecodeRequest(r)
}

// DecodeRequest извлекает токен сессии из cookie запроса.
func (c *Codec) DecodeRequest(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(c.cfg.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	token, err := c.verify(cookie.Value)
	if err != nil {
		log.Printf("[Credential] Отклонено значение cookie %s: %v", c.cfg.Name, err)
		return "", false
	}
	return token, true
}

// Present сообщает, прислал ли клиент cookie сессии (даже невалидную).
func (c *Codec) Present(r *http.Request) bool {
	if r == nil {
		return false
	}
	cookie, err := r.Cookie(c.cfg.Name)
	return err == nil && cookie.Value != ""
}

func (c *Codec) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.cfg.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// sign упаковывает токен в подписанный JWT. Срок действия совпадает с Max-Age cookie.
func (c *Codec) sign(token string) (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   token,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.MaxAge)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи JWT: %w", err)
	}
	return signed, nil
}

func (c *Codec) verify(value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		// Убеждаемся, что метод подписи - HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return c.cfg.SigningKey, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("невалидный токен")
	}
	return claims.Subject, nil
}
