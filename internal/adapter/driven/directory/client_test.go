package directory_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crfernandes/persondir/internal/adapter/driven/audit"
	"github.com/crfernandes/persondir/internal/adapter/driven/directory"
	"github.com/crfernandes/persondir/internal/adapter/driven/secrets"
	"github.com/crfernandes/persondir/internal/domain/model"
	"github.com/crfernandes/persondir/internal/domain/port/driven"
)

func testSecrets(t *testing.T) secrets.Static {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	bundle, err := json.Marshal(map[string]string{
		"type":        "service_account",
		"project_id":  "training-admin",
		"private_key": string(keyPEM),
		"client_id":   "roster-reader@training-admin",
	})
	require.NoError(t, err)

	return secrets.Static{
		secrets.NameServiceAccount: string(bundle),
		secrets.NameDirectoryID:    "tenant-01",
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fastOptions keeps the rate limiter and retry delays short enough for tests.
func fastOptions() directory.Options {
	return directory.Options{
		MinInterval:   time.Millisecond,
		Timeout:       time.Second,
		RetryInterval: time.Millisecond,
	}
}

func newTestClient(t *testing.T, baseURL string, sink driven.AuditSink, opts directory.Options) *directory.Client {
	t.Helper()
	c, err := directory.New(context.Background(), baseURL, testSecrets(t), sink, quietLogger(), opts)
	require.NoError(t, err)
	return c
}

func rowsResponse(w http.ResponseWriter, rows []map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"rows": rows})
}

func TestNew_RejectsFilePathCredentials(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	store := testSecrets(t)
	store[secrets.NameServiceAccount] = "/etc/persondir/credentials.json"

	_, err := directory.New(context.Background(), srv.URL, store, nil, quietLogger(), fastOptions())
	require.ErrorIs(t, err, driven.ErrSecurity)
	assert.Zero(t, calls.Load(), "credential validation must not touch the network")
}

func TestNew_RejectsBadDirectoryID(t *testing.T) {
	store := testSecrets(t)
	store[secrets.NameDirectoryID] = "tenant um ../escape"

	_, err := directory.New(context.Background(), "http://localhost:1", store, nil, quietLogger(), fastOptions())
	assert.ErrorIs(t, err, driven.ErrSecurity)
}

func TestConnect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tenants/tenant-01/health", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil, fastOptions())
	require.NoError(t, c.Connect(context.Background()))
}

func TestConnect_RejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil, fastOptions())
	assert.ErrorIs(t, c.Connect(context.Background()), driven.ErrSecurity)
}

func TestFetchByIdentifier_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tenants/tenant-01/records", r.URL.Path)
		assert.Equal(t, "123456", r.URL.Query().Get("registration"))
		rowsResponse(w, []map[string]string{{
			"NOME COMPLETO": "MARIA SILVA SANTOS",
			"POSTO/GRAD":    "S2",
			"SEÇÃO":         "DTI",
			"CPF":           "52998224725",
			"EMAIL":         "maria@example.com",
		}})
	}))
	defer srv.Close()

	sink := audit.NewMemorySink()
	c := newTestClient(t, srv.URL, sink, fastOptions())

	rec, err := c.FetchByIdentifier(context.Background(), "123456")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "MARIA SILVA SANTOS", rec.FullName)
	assert.Equal(t, "S2", rec.RankGrade)
	assert.Equal(t, "DTI", rec.Unit)
	assert.Equal(t, "52998224725", rec.NationalID)
	assert.Equal(t, "123456", rec.Registration)
	assert.Equal(t, model.SensitiveHash("123456"), rec.RegistrationHash)

	entries := sink.ByOperation(model.OpRemoteFetch)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Detail, model.SensitiveHash("MARIA SILVA SANTOS"))
	assert.NotContains(t, entries[0].Detail, "MARIA")
	assert.NotContains(t, entries[0].Detail, "123456")
}

func TestFetchByIdentifier_AllowListBlocksBeforeNetwork(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, audit.NewMemorySink(), fastOptions())

	for _, id := range []string{"", "123456; DROP TABLE", "a b", "não", strings.Repeat("9", 21)} {
		_, err := c.FetchByIdentifier(context.Background(), id)
		assert.ErrorIs(t, err, driven.ErrSecurity, "id %q", id)
	}
	assert.Zero(t, calls.Load())
}

func TestFetchByIdentifier_Miss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rowsResponse(w, nil)
	}))
	defer srv.Close()

	sink := audit.NewMemorySink()
	c := newTestClient(t, srv.URL, sink, fastOptions())

	rec, err := c.FetchByIdentifier(context.Background(), "999999")
	require.NoError(t, err)
	assert.Nil(t, rec)

	entries := sink.ByOperation(model.OpFetchMiss)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Detail, model.SensitiveHash("999999"))
	assert.NotContains(t, entries[0].Detail, "999999")
}

func TestFetchByIdentifier_RetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		rowsResponse(w, []map[string]string{{"NOME COMPLETO": "JOSE LIMA"}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, audit.NewMemorySink(), fastOptions())

	rec, err := c.FetchByIdentifier(context.Background(), "123456")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "JOSE LIMA", rec.FullName)
	assert.Equal(t, int64(3), calls.Load())
}

func TestFetchByIdentifier_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sink := audit.NewMemorySink()
	c := newTestClient(t, srv.URL, sink, fastOptions())

	_, err := c.FetchByIdentifier(context.Background(), "123456")
	require.ErrorIs(t, err, driven.ErrFetch)
	assert.Equal(t, int64(3), calls.Load(), "default retry budget is three attempts")
	assert.Len(t, sink.ByOperation(model.OpFetchError), 1)
}

func TestFetchByIdentifier_ContextCanceledMidRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancel() // caller goes away while the client is backing off
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	opts := fastOptions()
	opts.RetryInterval = 50 * time.Millisecond
	c := newTestClient(t, srv.URL, audit.NewMemorySink(), opts)

	_, err := c.FetchByIdentifier(ctx, "123456")
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, driven.ErrFetch,
		"cancellation must not be reported as retry exhaustion")
}

func TestFetchByIdentifier_AuthFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, audit.NewMemorySink(), fastOptions())

	_, err := c.FetchByIdentifier(context.Background(), "123456")
	require.ErrorIs(t, err, driven.ErrSecurity)
	assert.Equal(t, int64(1), calls.Load())
}

func TestFetchByIdentifier_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rowsResponse(w, []map[string]string{{"NOME COMPLETO": "ANA COSTA"}})
	}))
	defer srv.Close()

	opts := fastOptions()
	opts.MinInterval = 120 * time.Millisecond
	c := newTestClient(t, srv.URL, audit.NewMemorySink(), opts)

	start := time.Now()
	_, err := c.FetchByIdentifier(context.Background(), "111111")
	require.NoError(t, err)
	_, err = c.FetchByIdentifier(context.Background(), "222222")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), opts.MinInterval,
		"back-to-back fetches must keep the minimum interval")
}

func TestFetchByIdentifier_DuplicateRowsTakeFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rowsResponse(w, []map[string]string{
			{"NOME COMPLETO": "PRIMEIRO NOME"},
			{"NOME COMPLETO": "SEGUNDO NOME"},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, audit.NewMemorySink(), fastOptions())

	rec, err := c.FetchByIdentifier(context.Background(), "123456")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "PRIMEIRO NOME", rec.FullName)
}

func TestMaskedView(t *testing.T) {
	rec := model.PersonRecord{
		FullName:      "MARIA SILVA SANTOS",
		NationalID:    "52998224725",
		Registration:  "123456",
		InternalEmail: "m.santos@mil.example",
		Email:         "ab@example.com",
		Phone:         "11987654321",
	}

	masked := directory.MaskedView(rec)

	assert.Equal(t, "MARIA SILVA SANTOS", masked.FullName)
	assert.Equal(t, "52****25", masked.NationalID)
	assert.Equal(t, "12****56", masked.Registration)
	assert.Equal(t, "m.***@mil.example", masked.InternalEmail)
	assert.Equal(t, "ab***@example.com", masked.Email)
	assert.Equal(t, "*****4321", masked.Phone)

	// Source record is untouched.
	assert.Equal(t, "52998224725", rec.NationalID)
}

func TestMaskedView_ShortValues(t *testing.T) {
	masked := directory.MaskedView(model.PersonRecord{
		NationalID:   "123",
		Registration: "",
		Phone:        "1234",
	})

	assert.Equal(t, "****", masked.NationalID)
	assert.Equal(t, "", masked.Registration)
	assert.Equal(t, "****", masked.Phone)
}
