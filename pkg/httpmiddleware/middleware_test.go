package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	var seen string
	handler := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get(HeaderRequestID))
}

func TestRequestID_ReusesValidUUID(t *testing.T) {
	id := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, id)

	handler := RequestID()(okHandler())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, id, w.Header().Get(HeaderRequestID))
}

func TestRequestID_ReplacesGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid\x00")

	handler := RequestID()(okHandler())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	got := w.Header().Get(HeaderRequestID)
	_, err := uuid.Parse(got)
	assert.NoError(t, err, "garbage replaced with a fresh UUID")
}

func TestRecovery(t *testing.T) {
	handler := Recovery()(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":500,"message":"internal error"}`, w.Body.String())
}

func TestCORS_CredentialedOrigin(t *testing.T) {
	handler := CORS(CORSConfig{
		AllowOrigins:     []string{"https://Shop.Example.com"},
		AllowCredentials: true,
	})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	// Matched case-insensitively, echoed in configured casing.
	assert.Equal(t, "https://Shop.Example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Values("Vary"), "Origin")
}

func TestCORS_UnknownOriginGetsNoGrant(t *testing.T) {
	handler := CORS(CORSConfig{
		AllowOrigins:     []string{"https://shop.example.com"},
		AllowCredentials: true,
	})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLogRequests_CarriesRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	// InjectLogger sets the base logger, so it must sit outside RequestID
	// for the id annotation to survive into the access log.
	handler := Wrap(okHandler(),
		InjectLogger(zap.New(core)),
		RequestID(),
		LogRequests(),
	)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, w.Header().Get(HeaderRequestID), fields["request_id"])
	assert.Equal(t, "/api/cart", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}

func TestWrap_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Wrap(okHandler(), mark("outer"), mark("inner"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, order)
}
