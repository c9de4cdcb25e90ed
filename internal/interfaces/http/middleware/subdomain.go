package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"

	"github.com/storehub/backend/internal/domain/storefront"
	"github.com/storehub/backend/internal/interfaces/http/dto"
)

// SubdomainResolver decides whether a host label is a live storefront
type SubdomainResolver interface {
	Resolve(ctx context.Context, label string) (*storefront.Resolution, error)
}

// SubdomainConfig configures the storefront host rewrite
type SubdomainConfig struct {
	// BaseDomain like "shop.example.com"; empty disables the rewrite
	BaseDomain string
	// CatalogPrefix is the public catalog route, "/api/v1/catalog"
	CatalogPrefix string
	Resolver      SubdomainResolver
	Logger        *zap.Logger
}

// SubdomainHandler serves <slug>.<base domain> as the storefront of slug.
// It wraps the router so the path is rewritten to
// <CatalogPrefix>/<slug><path> before routing, and the request passes the
// middleware chain once. Reserved labels, unknown stores and other hosts
// pass through untouched.
func SubdomainHandler(next http.Handler, cfg SubdomainConfig) http.Handler {
	base := strings.ToLower(strings.Trim(cfg.BaseDomain, "."))
	if base == "" || cfg.Resolver == nil {
		return next
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	prefix := strings.TrimRight(cfg.CatalogPrefix, "/")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		label, ok := SubdomainLabel(r.Host, base)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		res, err := cfg.Resolver.Resolve(r.Context(), label)
		if err != nil {
			cfg.Logger.Error("Subdomain resolution failed", zap.String("label", label), zap.Error(err))
			body := render.JSON{Data: dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal,
				"Store temporarily unavailable", r.Header.Get(RequestIDHeader))}
			body.WriteContentType(w)
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = body.Render(w)
			return
		}
		if !res.Registered {
			next.ServeHTTP(w, r)
			return
		}

		path := r.URL.Path
		if path == "/" {
			path = ""
		}
		rewritten := r.Clone(r.Context())
		rewritten.URL.Path = prefix + "/" + res.Slug + path
		rewritten.URL.RawPath = ""
		rewritten.RequestURI = rewritten.URL.RequestURI()
		next.ServeHTTP(w, rewritten)
	})
}

// SubdomainLabel extracts the single label in front of base from host.
// "loja.shop.example.com:8080" with base "shop.example.com" yields "loja".
func SubdomainLabel(host, base string) (string, bool) {
	host = strings.ToLower(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	label, found := strings.CutSuffix(host, "."+base)
	if !found || label == "" || strings.Contains(label, ".") {
		return "", false
	}
	return label, true
}
