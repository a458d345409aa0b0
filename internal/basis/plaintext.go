package basis

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"akleg-data/internal/components/assert"
	"akleg-data/internal/components/telemetry"
	"akleg-data/internal/metrics"
	"akleg-data/lib/htmlutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_plaintext_fetch = "plaintext.fetch"
)

const DefaultPlaintextUrl = "https://www.akleg.gov/basis/Bill/Plaintext"

// the first try plus 5 retries
const plaintextAttempts = 6

// PlaintextClient downloads the text of bill versions from the "Plaintext" pages.
type PlaintextClient struct {
	http    *resty.Client
	tel     telemetry.API
	metrics *metrics.Metrics

	Backoff func(retry int) time.Duration
}

func NewPlaintextClient(baseUrl string, tel telemetry.API, output telemetry.MessageOutput, m *metrics.Metrics) *PlaintextClient {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("basis", tel)
	if baseUrl == "" {
		baseUrl = DefaultPlaintextUrl
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(strings.TrimSuffix(baseUrl, "/"))
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	httpClient.SetHeader("user-agent", "Mozilla/5.0")
	// some versions are several megabytes and the server is slow to send them
	httpClient.SetTimeout(time.Minute)
	telemetry.InstrumentResty(httpClient, tel, output)

	return &PlaintextClient{
		http:    httpClient,
		tel:     tel,
		metrics: m,
		Backoff: DefaultBackoff,
	}
}

var (
	billTypeRegex   = regexp.MustCompile(`[A-Z]{2,3}`)
	billDigitsRegex = regexp.MustCompile(`\d+`)
)

// FormatBillNumber turns "HB 169", "HB169" or "SJR 2" into the zero padded form the plaintext pages
// use, eg. "HB0169".
func FormatBillNumber(billNumber string) (string, error) {
	billType := billTypeRegex.FindString(billNumber)
	digits := billDigitsRegex.FindString(billNumber)
	if billType == "" || digits == "" {
		return "", fmt.Errorf("invalid bill number %q", billNumber)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return "", fmt.Errorf("invalid bill number %q: %w", billNumber, err)
	}
	return fmt.Sprintf("%s%04d", billType, n), nil
}

// every unicode line boundary, older pages contain \v and \f between lines
var lineSeparators = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\v", "\n",
	"\f", "\n",
	"\x1c", "\n",
	"\x1d", "\n",
	"\x1e", "\n",
	"\u0085", "\n",
	"\u2028", "\n",
	"\u2029", "\n",
)

// StripLineNumbers removes the 2 digit line number and the space after it from every line, empty
// lines are dropped. Control characters that mark added and deleted text are kept.
func StripLineNumbers(raw string) string {
	lines := strings.Split(lineSeparators.Replace(raw), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) <= 3 {
			out = append(out, "")
			continue
		}
		out = append(out, string(runes[3:]))
	}
	return strings.Join(out, "\n")
}

func (c *PlaintextClient) fetch(ctx context.Context, path string) (string, int, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return "", 0, err
	}
	if res.StatusCode() != http.StatusOK {
		return "", res.StatusCode(), &StatusError{Url: path, Status: res.StatusCode()}
	}
	return res.String(), res.StatusCode(), nil
}

// BillText returns the text of one version of a bill without line numbers.
func (c *PlaintextClient) BillText(ctx context.Context, legislature int, billNumber, versionLetter string) (string, error) {
	ctx, span := tracer.Start(ctx, "basis.plaintext")
	defer span.End()
	span.SetAttributes(
		attribute.Int("legislature", legislature),
		attribute.String("bill_number", billNumber),
		attribute.String("version", versionLetter),
	)

	formatted, err := FormatBillNumber(billNumber)
	if err != nil {
		return "", err
	}
	path := fmt.Sprintf("/%d?Hsid=%s%s", legislature, formatted, versionLetter)

	var body string
	for i := 0; ; i++ {
		var status int
		body, status, err = c.fetch(ctx, path)
		if err == nil || status == http.StatusNotFound || ctx.Err() != nil || i == plaintextAttempts-1 {
			break
		}
		c.tel.ReportWarning(report_plaintext_fetch, path, i+1, err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.Backoff(i)):
		}
	}
	if err != nil {
		c.metrics.IncrementFetch("plaintext", "error")
		c.tel.ReportBroken(report_plaintext_fetch, err, path)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("fetch bill text %s: %w", path, err)
	}
	c.metrics.IncrementFetch("plaintext", "ok")

	if htmlutil.LooksLikeHTML(body) {
		body, err = htmlutil.ExtractPreformatted(ctx, body)
		if err != nil {
			return "", fmt.Errorf("extract bill text %s: %w", path, err)
		}
	}
	return StripLineNumbers(body), nil
}
