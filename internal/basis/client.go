// Package basis is a client for the Alaska Legislature "Basis" api and the plaintext bill pages.
package basis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"akleg-data/internal/components/assert"
	"akleg-data/internal/components/telemetry"
	"akleg-data/internal/metrics"
	libtelemetry "akleg-data/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = libtelemetry.Tracer("akleg.internal.basis")

const (
	report_client_request = "client.request"
	report_client_retry   = "client.retry"
)

const DefaultBaseUrl = "https://www.akleg.gov/publicservice/basis"

const (
	userAgent   = "Mozilla/5.0 (compatible; MSIE 9.0; Windows NT 6.1; Trident/5.0)"
	maxAttempts = 3
)

// Config is the "basis" section of akleg.json5.
type Config struct {
	BaseUrl           string  `json:"base_url"`
	PlaintextUrl      string  `json:"plaintext_url"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	// the number of requests in flight while scraping
	Concurrency int         `json:"concurrency"`
	CacheDir    string      `json:"cache_dir"`
	CachePolicy CachePolicy `json:"cache_policy"`
}

func (c Config) withDefaults() Config {
	if c.BaseUrl == "" {
		c.BaseUrl = DefaultBaseUrl
	}
	if c.PlaintextUrl == "" {
		c.PlaintextUrl = DefaultPlaintextUrl
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 8
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	if c.CachePolicy == "" {
		c.CachePolicy = CachePreviousSessions
	}
	return c
}

// Client makes requests to the basis api, it is safe for concurrent use.
type Client struct {
	http    *resty.Client
	tel     telemetry.API
	metrics *metrics.Metrics

	// Backoff returns how long to wait before the given retry (0 indexed), it is replaced in tests.
	Backoff func(retry int) time.Duration
}

func DefaultBackoff(retry int) time.Duration {
	return time.Duration(float64(500*time.Millisecond) * float64(int(1)<<retry))
}

// NewClient creates a client, m may be nil.
func NewClient(config Config, tel telemetry.API, output telemetry.MessageOutput, m *metrics.Metrics) *Client {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("basis", tel)
	config = config.withDefaults()

	httpClient := resty.New()
	httpClient.SetBaseURL(strings.TrimSuffix(config.BaseUrl, "/"))
	httpClient.SetTimeout(time.Minute)
	httpClient.SetHeader("user-agent", userAgent)
	httpClient.SetHeader("X-Alaska-Legislature-Basis-Version", "1.4")
	httpClient.SetHeader("Accept-Encoding", "gzip;q=1.0")

	// the burst is the concurrency so a full round of workers is never delayed for no reason
	rateLimiter := rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Concurrency)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})
	telemetry.InstrumentResty(httpClient, tel, output)

	return &Client{
		http:    httpClient,
		tel:     tel,
		metrics: m,
		Backoff: DefaultBackoff,
	}
}

// classify turns a response body into the inner "Basis" object or one of the typed errors.
func classify(url string, body []byte) (map[string]json.RawMessage, error) {
	var envelope struct {
		Basis map[string]json.RawMessage `json:"Basis"`
	}
	err := json.Unmarshal(body, &envelope)
	if err == nil && envelope.Basis != nil {
		return envelope.Basis, nil
	}

	text := string(body)
	switch {
	case strings.Contains(text, "Invalid Session Number"):
		return nil, fmt.Errorf("%w: %s", ErrNotAvailable, url)
	case strings.Contains(text, "<Code>FaultException</Code>"):
		return nil, &ServerError{Url: url, Body: text}
	}
	if err == nil {
		err = errors.New("missing Basis envelope")
	}
	return nil, &MalformedResponseError{Url: url, Payload: text, Err: err}
}

func (c *Client) attempt(ctx context.Context, endpoint string, query Query) (map[string]json.RawMessage, error) {
	headers, err := query.headers()
	if err != nil {
		return nil, err
	}
	path := query.path(endpoint)

	res, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(path)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		// the api reports faults in the body with a 500 status, those are still classified
		if res.StatusCode() >= 500 {
			if _, classified := classify(path, res.Body()); classified != nil && !isMalformed(classified) {
				return nil, classified
			}
		}
		return nil, &StatusError{Url: path, Status: res.StatusCode()}
	}
	return classify(path, res.Body())
}

func isMalformed(err error) bool {
	var malformed *MalformedResponseError
	return errors.As(err, &malformed)
}

// request performs one query, retrying transient failures, and decodes the value under key.
func (c *Client) request(ctx context.Context, endpoint, key string, query Query, out any) error {
	ctx, span := tracer.Start(ctx, "basis."+endpoint)
	defer span.End()
	span.SetAttributes(
		attribute.Int("session", query.Session),
		attribute.String("queries", strings.Join(query.Queries, ",")),
	)

	var basis map[string]json.RawMessage
	var err error
	for i := 0; i < maxAttempts; i++ {
		basis, err = c.attempt(ctx, endpoint, query)
		if err == nil || !Transient(err) || ctx.Err() != nil {
			break
		}
		if i == maxAttempts-1 {
			err = fmt.Errorf("failed %d times: %w", maxAttempts, err)
			break
		}
		c.tel.ReportWarning(report_client_retry, endpoint, query.Session, i+1, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.Backoff(i)):
		}
	}

	switch {
	case errors.Is(err, ErrNotAvailable):
		c.metrics.IncrementFetch(endpoint, "not_available")
		return err
	case err != nil:
		c.metrics.IncrementFetch(endpoint, "error")
		c.tel.ReportBroken(report_client_request, err, endpoint, query.Session)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("fetch %s: %w", endpoint, err)
	}

	raw, ok := basis[key]
	if !ok || isNull(raw) {
		// an empty legislature omits the key entirely
		c.metrics.IncrementFetch(endpoint, "ok")
		return nil
	}
	err = json.Unmarshal(raw, out)
	if err != nil {
		c.metrics.IncrementFetch(endpoint, "error")
		err = &MalformedResponseError{Url: query.path(endpoint), Payload: string(raw), Err: err}
		c.tel.ReportBroken(report_client_request, err, endpoint, query.Session)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	c.metrics.IncrementFetch(endpoint, "ok")
	return nil
}

// Bills lists the bills of query.Session with their subjects.
func (c *Client) Bills(ctx context.Context, query Query) ([]RawBill, error) {
	var bills []RawBill
	err := c.request(ctx, "bills", "Bills", query, &bills)
	if err != nil {
		return nil, err
	}
	for i := range bills {
		bills[i].LegislatureNumber = int16(query.Session)
	}
	return bills, nil
}

// Members lists the members of query.Session, the members of legislatures 1 to 9 have never been
// digitized and are ErrNotAvailable without a request.
func (c *Client) Members(ctx context.Context, query Query) ([]RawMember, error) {
	if query.Session <= 9 {
		return nil, fmt.Errorf("%w: members of legislature %d", ErrNotAvailable, query.Session)
	}
	var members []RawMember
	err := c.request(ctx, "members", "Members", query, &members)
	if err != nil {
		return nil, err
	}
	for i := range members {
		members[i].LegislatureNumber = int16(query.Session)
	}
	return members, nil
}

// Session returns the single legislature of query.Session, the response key is not plural.
func (c *Client) Session(ctx context.Context, query Query) (RawSession, error) {
	var session RawSession
	err := c.request(ctx, "sessions", "Session", query, &session)
	if err != nil {
		return RawSession{}, err
	}
	if !session.Number.Valid {
		// legislatures that have not started yet come back empty
		return RawSession{}, fmt.Errorf("%w: legislature %d", ErrNotAvailable, query.Session)
	}
	session.LegislatureNumber = int16(session.Number.Value)
	return session, nil
}

// Committees and Meetings are not normalized, they are returned as they are sent.
func (c *Client) Committees(ctx context.Context, query Query) ([]json.RawMessage, error) {
	var committees []json.RawMessage
	err := c.request(ctx, "committees", "Committees", query, &committees)
	return committees, err
}

func (c *Client) Meetings(ctx context.Context, query Query) ([]json.RawMessage, error) {
	var meetings []json.RawMessage
	err := c.request(ctx, "meetings", "Meetings", query, &meetings)
	return meetings, err
}

// MemberVotes lists every choice the member made during the legislature.
func (c *Client) MemberVotes(ctx context.Context, legislature int, memberCode string) ([]RawVote, error) {
	if legislature <= 9 {
		return nil, fmt.Errorf("%w: votes of legislature %d", ErrNotAvailable, legislature)
	}
	var members []RawMemberVotes
	err := c.request(ctx, "members", "Members", Query{
		Session: legislature,
		Queries: []string{
			fmt.Sprintf("members;code=%s", memberCode),
			"Votes",
			"Bills",
		},
	}, &members)
	if err != nil {
		return nil, err
	}
	var votes []RawVote
	for _, m := range members {
		for _, v := range m.Votes {
			v.LegislatureNumber = int16(legislature)
			votes = append(votes, v)
		}
	}
	return votes, nil
}

// BillVersions lists the version letters and titles of one bill.
func (c *Client) BillVersions(ctx context.Context, legislature int, billNumber string) ([]RawVersion, error) {
	var bills []RawBill
	err := c.request(ctx, "bills", "Bills", Query{
		Session: legislature,
		Queries: []string{
			fmt.Sprintf("bills;bill=%s", strings.ReplaceAll(billNumber, " ", "")),
			"versions",
		},
	}, &bills)
	if err != nil {
		return nil, err
	}
	var versions []RawVersion
	for _, b := range bills {
		versions = append(versions, b.Versions...)
	}
	return versions, nil
}
