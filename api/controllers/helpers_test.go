package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/moritea/storefront/api/middleware"
	"github.com/moritea/storefront/internal/cart"
	"github.com/moritea/storefront/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: "debug", Output: io.Discard})
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func newRequest(ctx context.Context, method, target, body string, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if len(params) > 0 {
		routeCtx := chi.NewRouteContext()
		for k, v := range params {
			routeCtx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	}
	return req.WithContext(ctx)
}

func sessionContext(s *cart.Session) context.Context {
	return middleware.WithCartSession(context.Background(), s)
}

func newSession() *cart.Session {
	return cart.NewSession(context.Background(), "sess-test", nil, nil, nil)
}

func teaProduct(key, price string, stock *int) cart.Product {
	return cart.Product{Key: key, Name: "Tea " + key, Price: decimal.RequireFromString(price), Stock: stock}
}

func intPtr(n int) *int { return &n }

func stringBody(s string) io.Reader { return strings.NewReader(s) }
