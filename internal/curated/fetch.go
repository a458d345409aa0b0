package curated

import (
	"context"
	"fmt"
	"time"

	"akleg-data/internal/components/assert"
	"akleg-data/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/mazen160/go-random"
)

const (
	report_fetcher_fetch = "fetcher.fetch"
)

const DefaultBaseUrl = "https://docs.google.com/spreadsheets/d/e/2PACX-1vRBkr9cSna3m4_64VgdGN3PIP9BgFw4wLi3k0dQn5peGY-I3kqAPY8r77xHKl-KHm0rTuJVMy3I8Qml/pub"

// the published "gid" of each sheet
var sheetGids = map[string]string{
	SheetPeople:        "925126040",
	SheetMembers1To9:   "49484443",
	SheetMembers10Plus: "0",
}

// Fetcher downloads the published csv export of the curated spreadsheet.
type Fetcher struct {
	http *resty.Client
	tel  telemetry.API
}

func NewFetcher(baseUrl string, tel telemetry.API, output telemetry.MessageOutput) Fetcher {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("curated", tel)

	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl)
	httpClient.SetTimeout(time.Minute)
	httpClient.SetRetryCount(3)
	httpClient.AddRetryCondition(func(res *resty.Response, err error) bool {
		return err != nil || res.StatusCode() >= 500
	})
	telemetry.InstrumentResty(httpClient, tel, output)

	return Fetcher{http: httpClient, tel: tel}
}

func (f Fetcher) sheet(ctx context.Context, sheet string) ([]byte, error) {
	// google caches the published csv aggressively, a fresh query param forces a recent copy
	cachebuster, err := random.String(12)
	if err != nil {
		return nil, err
	}

	res, err := f.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"output":      "csv",
			"gid":         sheetGids[sheet],
			"cachebuster": cachebuster,
		}).
		Get("")
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode())
	}
	return res.Body(), nil
}

// Fetch downloads every sheet and parses them into a snapshot.
func (f Fetcher) Fetch(ctx context.Context) (Snapshot, error) {
	raw := make(map[string][]byte, len(Sheets))
	for _, sheet := range Sheets {
		f.tel.ReportDebug("fetch sheet", sheet)
		payload, err := f.sheet(ctx, sheet)
		if err != nil {
			f.tel.ReportBroken(report_fetcher_fetch, err, sheet)
			return Snapshot{}, fmt.Errorf("fetch curated sheet %s: %w", sheet, err)
		}
		raw[sheet] = payload
	}

	snapshot, err := Parse(raw)
	if err != nil {
		f.tel.ReportBroken(report_fetcher_fetch, err)
		return Snapshot{}, err
	}
	f.tel.ReportDebug(
		"fetched curated snapshot",
		snapshot.Version,
		len(snapshot.People),
		len(snapshot.Members1To9),
		len(snapshot.Members10Plus),
	)
	return snapshot, nil
}
