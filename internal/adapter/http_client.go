package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mkarpushin/go-journal-keeper/internal/config"
	"github.com/mkarpushin/go-journal-keeper/internal/logger"
)

// httpBackend delivers requests to the journal backend over HTTP. The bearer
// token is shared by concurrent senders, hence the RWMutex.
type httpBackend struct {
	client *resty.Client
	logger *logger.Logger

	mu    sync.RWMutex
	token string
}

// NewHTTPBackend constructs a resty-based [Backend] from the adapter config.
// Every request inherits the configured base URL and timeout; a timed-out
// attempt surfaces as ErrTransient so the sync engine treats it as retryable.
func NewHTTPBackend(cfg config.Adapter, log *logger.Logger) Backend {
	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.RequestTimeout)

	return &httpBackend{client: cli, logger: log}
}

// SetToken implements [Backend].
func (h *httpBackend) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token returns the currently installed bearer token, or "".
func (h *httpBackend) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Send implements [Backend].
func (h *httpBackend) Send(ctx context.Context, method, endpoint string, payload []byte) (Response, error) {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	if payload != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		// resty returns an error only when no HTTP response was obtained:
		// DNS failure, refused connection, timeout. All retryable.
		return Response{}, fmt.Errorf("%s %s: %w: %w", method, endpoint, ErrTransient, err)
	}

	out := Response{Status: resp.StatusCode(), Body: resp.Body()}
	return out, mapHTTPError(resp)
}

// UserID implements [Backend]. The token is parsed without signature
// verification: the client only needs the subject claim for scoping local
// records, the server re-validates the token on every request.
func (h *httpBackend) UserID() (int64, error) {
	token := h.Token()
	if token == "" {
		return 0, ErrNoToken
	}
	return parseUserIDFromJWT(token)
}

// mapHTTPError classifies a completed HTTP exchange into the package's error
// taxonomy. 2xx is success, 5xx and retryable 4xx statuses are transient,
// the remaining 4xx are terminal.
func mapHTTPError(resp *resty.Response) error {
	status := resp.StatusCode()
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body)
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: http %d: %s", ErrTransient, status, body)
	default:
		return fmt.Errorf("%w: http %d: %s", ErrTerminal, status, body)
	}
}

func parseUserIDFromJWT(tokenString string) (int64, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, err
	}

	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, err
	}
	return id, nil
}
