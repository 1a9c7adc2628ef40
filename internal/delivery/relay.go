package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/invoice-relay/i18n"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one relay call.
const DefaultTimeout = 30 * time.Second

// relay is the HTTP plumbing and persisted configuration shared by Webhook and Email.
type relay[C any] struct {
	name     string
	client   *http.Client
	timeout  time.Duration
	settings SettingsStore
	log      *zap.Logger

	mu  sync.RWMutex
	cfg C
}

func newRelay[C any](name string, settings SettingsStore, client *http.Client, timeout time.Duration, lg *zap.Logger) *relay[C] {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &relay[C]{name: name, client: client, timeout: timeout, settings: settings, log: lg.Named(name)}
}

func (r *relay[C]) Name() string { return r.name }

func (r *relay[C]) Config() C {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}

// UpdateConfig persists c and then makes it the active configuration.
func (r *relay[C]) UpdateConfig(ctx context.Context, c C) error {
	if err := r.settings.SaveSetting(ctx, r.name, c); err != nil {
		return fmt.Errorf("save %s settings: %w", r.name, err)
	}
	r.mu.Lock()
	r.cfg = c
	r.mu.Unlock()
	return nil
}

// Load restores the persisted configuration, if any.
func (r *relay[C]) Load(ctx context.Context) error {
	var c C
	ok, err := r.settings.LoadSetting(ctx, r.name, &c)
	if err != nil {
		return fmt.Errorf("load %s settings: %w", r.name, err)
	}
	if ok {
		r.mu.Lock()
		r.cfg = c
		r.mu.Unlock()
	}
	return nil
}

func (r *relay[C]) misconfigured(lang, code string, args ...any) *Failure {
	return &Failure{Kind: KindMisconfigured, Message: i18n.Tf(lang, r.name+"_"+code, args...)}
}

func (r *relay[C]) checkEndpoint(lang, endpoint string) *Failure {
	if strings.TrimSpace(endpoint) == "" {
		return r.misconfigured(lang, "not_configured")
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return r.misconfigured(lang, "invalid_url", endpoint)
	}
	return nil
}

// post sends one JSON request, without retry, and classifies anything but a 2xx.
func (r *relay[C]) post(ctx context.Context, lang, endpoint, origin string, payload any) *Failure {
	if f := r.checkEndpoint(lang, endpoint); f != nil {
		return f
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return &Failure{Kind: KindMisconfigured, Message: err.Error(), Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return r.misconfigured(lang, "invalid_url", endpoint)
	}
	req.Header.Set("Content-Type", "application/json")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		f := r.transportFailure(lang, err)
		r.log.Warn("relay call failed", zap.String("kind", string(f.Kind)), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return f
	}
	defer resp.Body.Close()
	// success bodies are not required to be JSON
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	r.log.Info("relay call", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)), zap.Int("bytes", len(body)))
	if origin != "" && !corsAllowed(resp.Header.Get("Access-Control-Allow-Origin"), origin) {
		return &Failure{Kind: KindCORSRejected, Message: i18n.Tf(lang, r.name+"_cors", origin), Status: resp.StatusCode}
	}
	return r.statusFailure(lang, resp.StatusCode)
}

func (r *relay[C]) transportFailure(lang string, err error) *Failure {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &Failure{Kind: KindTimeout, Message: i18n.Tf(lang, r.name+"_timeout", r.timeout), Err: err}
	}
	return &Failure{Kind: KindNetworkUnreachable, Message: i18n.T(lang, r.name+"_network"), Err: err}
}

func (r *relay[C]) statusFailure(lang string, status int) *Failure {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return &Failure{Kind: KindUnauthenticated, Message: i18n.T(lang, r.name+"_unauthenticated"), Status: status}
	case status == http.StatusBadRequest, status == http.StatusForbidden,
		status == http.StatusNotFound, status == http.StatusInternalServerError:
		return &Failure{Kind: KindHTTPStatus, Message: i18n.T(lang, fmt.Sprintf("%s_http_%d", r.name, status)), Status: status}
	default:
		return &Failure{Kind: KindHTTPStatus, Message: i18n.Tf(lang, r.name+"_http_other", status), Status: status}
	}
}

func corsAllowed(allow, origin string) bool {
	allow = strings.TrimSpace(allow)
	return allow == "*" || strings.EqualFold(strings.TrimRight(allow, "/"), strings.TrimRight(origin, "/"))
}
