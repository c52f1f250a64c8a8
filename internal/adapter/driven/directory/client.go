// Package directory implements the Directory port: a read-only client for
// the external personnel directory service, with service-account
// authentication, a per-instance rate limiter, and bounded retries.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gregjones/httpcache"

	"github.com/crfernandes/persondir/internal/adapter/driven/secrets"
	"github.com/crfernandes/persondir/internal/domain/model"
	"github.com/crfernandes/persondir/internal/domain/port/driven"
	"github.com/crfernandes/persondir/internal/tabular"
	"github.com/crfernandes/persondir/internal/validate"
)

const (
	defaultMinInterval = time.Second
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
	tokenLifetime      = time.Hour
	tokenRefreshSlack  = time.Minute
)

// identifierPattern is the allow-list for fetch identifiers and the
// directory ID: letters, digits, hyphen, underscore, at most 20 characters.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,20}$`)

// Compile-time interface satisfaction check.
var _ driven.Directory = (*Client)(nil)

// Options tune a Client. The zero value takes the documented defaults.
type Options struct {
	// Actor is recorded on audit entries emitted by this client.
	Actor string

	// MinInterval is the minimum gap between remote calls (default 1s).
	MinInterval time.Duration

	// Timeout bounds each individual remote attempt (default 10s).
	Timeout time.Duration

	// MaxAttempts is the total number of tries per fetch (default 3).
	MaxAttempts int

	// RetryInterval is the first backoff delay (default 1s; doubles each
	// retry). Tests shorten it.
	RetryInterval time.Duration

	// HTTPClient overrides the default transport. Intended for tests; the
	// default client wraps an in-memory conditional-request cache and the
	// per-attempt timeout.
	HTTPClient *http.Client
}

// Client fetches person records from the external read-only directory.
//
// Fetches on one Client are strictly serialized by its rate limiter. A
// Client is owned by one caller context; construct one per session.
type Client struct {
	baseURL     string
	directoryID string
	account     *secrets.ServiceAccount
	http        *http.Client
	limiter     *minIntervalLimiter
	sink        driven.AuditSink
	logger      *slog.Logger

	actor         string
	sessionID     string
	maxAttempts   int
	retryInterval time.Duration

	token    string
	tokenExp time.Time
}

// New constructs a Client. The target directory ID and the service-account
// bundle come only from the managed secret store; a file-path bundle fails
// with ErrSecurity before any network activity.
func New(ctx context.Context, baseURL string, store driven.SecretStore, sink driven.AuditSink, logger *slog.Logger, opts Options) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("%w: directory base URL is not configured", driven.ErrSecurity)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: directory base URL is malformed", driven.ErrSecurity)
	}

	account, err := secrets.LoadServiceAccount(ctx, store)
	if err != nil {
		return nil, err
	}

	directoryID, err := store.Get(ctx, secrets.NameDirectoryID)
	if err != nil {
		return nil, err
	}
	directoryID = validate.Sanitize(directoryID)
	if !identifierPattern.MatchString(directoryID) {
		return nil, fmt.Errorf("%w: directory ID fails the identifier allow-list", driven.ErrSecurity)
	}

	if opts.MinInterval <= 0 {
		opts.MinInterval = defaultMinInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = time.Second
	}
	if opts.Actor == "" {
		opts.Actor = "system"
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   opts.Timeout,
			Transport: httpcache.NewMemoryCacheTransport(),
		}
	}

	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		directoryID:   directoryID,
		account:       account,
		http:          httpClient,
		limiter:       newMinIntervalLimiter(opts.MinInterval),
		sink:          sink,
		logger:        logger,
		actor:         opts.Actor,
		sessionID:     uuid.NewString(),
		maxAttempts:   opts.MaxAttempts,
		retryInterval: opts.RetryInterval,
	}, nil
}

// bearerToken returns a signed service-account assertion, re-signing when
// the cached one is within the refresh slack of expiry.
func (c *Client) bearerToken() (string, error) {
	now := time.Now()
	if c.token != "" && now.Before(c.tokenExp.Add(-tokenRefreshSlack)) {
		return c.token, nil
	}

	exp := now.Add(tokenLifetime)
	claims := jwt.RegisteredClaims{
		Issuer:    c.account.ClientID,
		Subject:   c.account.ClientID,
		Audience:  jwt.ClaimStrings{c.baseURL},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.account.Key())
	if err != nil {
		return "", fmt.Errorf("%w: signing service-account assertion failed", driven.ErrSecurity)
	}

	c.token = token
	c.tokenExp = exp
	return token, nil
}

// Connect implements driven.Directory: it verifies the authenticated
// read-only session against the directory's health endpoint. Errors never
// contain credential content.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	status, _, err := c.get(ctx, fmt.Sprintf("%s/v1/tenants/%s/health", c.baseURL, c.directoryID))
	if err != nil {
		c.logger.Warn("directory connect failed", "session", c.sessionID)
		return fmt.Errorf("%w: connect: %v", driven.ErrFetch, err)
	}
	switch {
	case status == http.StatusOK:
		c.logger.Info("directory session established", "session", c.sessionID)
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		c.logger.Warn("directory rejected credentials", "session", c.sessionID, "status", status)
		return fmt.Errorf("%w: directory rejected the service-account credentials", driven.ErrSecurity)
	default:
		return fmt.Errorf("%w: connect: unexpected status %d", driven.ErrFetch, status)
	}
}

// FetchByIdentifier implements driven.Directory.
func (c *Client) FetchByIdentifier(ctx context.Context, rawID string) (*model.PersonRecord, error) {
	id := validate.Sanitize(rawID)
	if !identifierPattern.MatchString(id) {
		c.logger.Warn("fetch identifier fails the allow-list", "session", c.sessionID, "id_hash", model.SensitiveHash(rawID))
		return nil, fmt.Errorf("%w: identifier must be letters, digits, hyphen or underscore (max 20 chars)", driven.ErrSecurity)
	}

	// Hard precondition to every fetch: no two remote calls on this
	// instance closer together than the minimum interval.
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	rows, err := c.fetchRows(ctx, id)
	if err != nil {
		c.recordAudit(model.OpFetchError, model.SensitiveHash(id))
		return nil, err
	}

	if len(rows) == 0 {
		c.recordAudit(model.OpFetchMiss, model.SensitiveHash(id))
		return nil, nil
	}

	// Duplicate external rows are a data-quality condition, not an error:
	// take the first row in stable source order.
	rec := recordFromRemoteRow(rows[0])
	rec.Registration = id
	rec.StampHashes()

	// Keyed by the name hash, not the raw identifier.
	c.recordAudit(model.OpRemoteFetch, model.SensitiveHash(rec.FullName))

	return &rec, nil
}

// fetchRows performs the remote read with bounded exponential-backoff
// retries. Only transport errors and 5xx responses are retried; client-side
// rejections are permanent.
func (c *Client) fetchRows(ctx context.Context, id string) ([]map[string]string, error) {
	endpoint := fmt.Sprintf("%s/v1/tenants/%s/records?registration=%s", c.baseURL, c.directoryID, url.QueryEscape(id))

	var rows []map[string]string
	attempt := 0

	operation := func() error {
		attempt++

		status, body, err := c.get(ctx, endpoint)
		if err != nil {
			c.logger.Warn("directory attempt failed", "session", c.sessionID, "attempt", attempt)
			return fmt.Errorf("attempt %d: %w", attempt, err)
		}

		switch {
		case status == http.StatusOK:
			var payload struct {
				Rows []map[string]string `json:"rows"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				return backoff.Permanent(fmt.Errorf("%w: malformed directory response", driven.ErrFetch))
			}
			rows = payload.Rows
			return nil
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return backoff.Permanent(fmt.Errorf("%w: directory rejected the service-account credentials", driven.ErrSecurity))
		case status >= 500:
			c.logger.Warn("directory attempt failed", "session", c.sessionID, "attempt", attempt, "status", status)
			return fmt.Errorf("attempt %d: status %d", attempt, status)
		default:
			return backoff.Permanent(fmt.Errorf("%w: unexpected status %d", driven.ErrFetch, status))
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInterval
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(c.maxAttempts-1)), ctx))
	if err != nil {
		if errors.Is(err, driven.ErrSecurity) || errors.Is(err, driven.ErrFetch) {
			return nil, err
		}
		// Cancellation mid-retry is the caller's doing, not exhaustion.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %d attempts exhausted", driven.ErrFetch, c.maxAttempts)
	}

	return rows, nil
}

// get performs one authenticated read. The response body is fully consumed
// so the transport's cache and connection reuse work.
func (c *Client) get(ctx context.Context, endpoint string) (int, []byte, error) {
	token, err := c.bearerToken()
	if err != nil {
		return 0, nil, backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read directory response: %w", err)
	}

	return resp.StatusCode, body, nil
}

func (c *Client) recordAudit(op model.Operation, detail string) {
	if c.sink == nil {
		return
	}
	if err := c.sink.Record(op, c.actor, fmt.Sprintf("session=%s %s", c.sessionID, detail)); err != nil {
		c.logger.Warn("audit append failed", "error", err)
	}
}

// recordFromRemoteRow maps one directory row (keyed by source header
// variants) to a PersonRecord through the shared alias table. Keys are
// visited in sorted order so duplicate variants resolve deterministically.
func recordFromRemoteRow(row map[string]string) model.PersonRecord {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	canonical := make(map[string]string, len(row))
	for _, k := range keys {
		col, ok := tabular.Canonical(k)
		if !ok {
			continue
		}
		if _, taken := canonical[col]; taken {
			continue
		}
		canonical[col] = validate.Sanitize(row[k])
	}

	return model.PersonRecord{
		Sequence:      canonical[tabular.ColSequence],
		FullName:      canonical[tabular.ColFullName],
		WarName:       canonical[tabular.ColWarName],
		RankGrade:     canonical[tabular.ColRankGrade],
		Specialty:     canonical[tabular.ColSpecialty],
		Unit:          canonical[tabular.ColUnit],
		Qualification: canonical[tabular.ColQualification],
		BirthDate:     canonical[tabular.ColBirthDate],
		EnlistDate:    canonical[tabular.ColEnlistDate],
		LastPromoDate: canonical[tabular.ColLastPromoDate],
		InternalID:    canonical[tabular.ColInternalID],
		NationalID:    canonical[tabular.ColNationalID],
		Registration:  canonical[tabular.ColRegistration],
		InternalEmail: canonical[tabular.ColInternalEmail],
		Email:         canonical[tabular.ColEmail],
		Phone:         canonical[tabular.ColPhone],
	}
}
