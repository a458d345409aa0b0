package basis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"akleg-data/internal/components/telemetry"
	"akleg-data/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func noBackoff(int) time.Duration {
	return 0
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *telemetry.Recorder) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	rec := telemetry.NewRecorder()
	client := NewClient(Config{BaseUrl: server.URL, RequestsPerSecond: 1000}, rec, nil, nil)
	client.Backoff = noBackoff
	return client, rec
}

func writeBasis(w http.ResponseWriter, key string, value any) {
	payload, _ := json.Marshal(map[string]any{"Basis": map[string]any{key: value}})
	w.Header().Set("content-type", "application/json")
	w.Write(payload)
}

func TestRangeHeader(t *testing.T) {
	cases := []struct {
		r        Range
		expected string
		fails    bool
	}{
		{r: *Until(10), expected: "10"},
		{r: *Between(5, 10), expected: "5..10"},
		{r: *Last(3), expected: "..3"},
		{r: Range{Start: intPtr(0)}, expected: "..0"},
		{r: Range{}, fails: true},
		{r: Range{Start: intPtr(-1), Stop: intPtr(4)}, fails: true},
		{r: Range{Start: intPtr(2)}, fails: true},
		{r: Range{Stop: intPtr(-2)}, fails: true},
	}
	for _, c := range cases {
		got, err := c.r.Header()
		if c.fails {
			require.Error(t, err, c.r.describe())
			continue
		}
		require.NoError(t, err)
		require.Equal(t, c.expected, got)
	}
}

func TestClassify(t *testing.T) {
	basis, err := classify("/bills", []byte(`{"Basis": {"Bills": []}}`))
	require.NoError(t, err)
	require.Contains(t, basis, "Bills")

	_, err = classify("/members", []byte(`Invalid Session Number: 2`))
	require.ErrorIs(t, err, ErrNotAvailable)
	require.False(t, Transient(err))

	_, err = classify("/bills", []byte(`<Fault><Code>FaultException</Code></Fault>`))
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	require.True(t, Transient(err))

	_, err = classify("/bills", []byte(`<html>gateway</html>`))
	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, "<html>gateway</html>", malformed.Payload)
	require.False(t, Transient(err))

	_, err = classify("/bills", []byte(`{"Other": 1}`))
	require.ErrorAs(t, err, &malformed)
}

func TestClientBills(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bills", r.URL.Path)
		require.Equal(t, "false", r.URL.Query().Get("minifyresult"))
		require.Equal(t, "true", r.URL.Query().Get("json"))
		require.Equal(t, "31", r.URL.Query().Get("session"))
		require.Equal(t, "H", r.URL.Query().Get("chamber"))
		require.Equal(t, "1.4", r.Header.Get("X-Alaska-Legislature-Basis-Version"))
		require.Equal(t, "Subjects", r.Header.Get("X-Alaska-Legislature-Basis-Query"))
		require.Equal(t, "..2", r.Header.Get("X-Alaska-Query-ResultRange"))
		require.Equal(t, userAgent, r.Header.Get("user-agent"))

		w.Write([]byte(`{"Basis": {"Bills": [{
			"Session": "31",
			"BillNumber": " HB  1 ",
			"ShortTitle": "",
			"Flag2": "3",
			"StatusDate": "2019-01-22",
			"Lock": "\u0000",
			"Vetoed": "false",
			"Subjects": ["FISH", "GAME"],
			"CurrentCommittee": {"Code": "FIN", "Name": "Finance"}
		}]}}`))
	})

	bills, err := client.Bills(context.Background(), Query{
		Session: 31,
		Chamber: "H",
		Queries: []string{"Subjects"},
		Range:   Last(2),
	})
	require.NoError(t, err)
	require.Len(t, bills, 1)

	bill := bills[0]
	require.Equal(t, int16(31), bill.LegislatureNumber)
	require.Equal(t, String{Value: "HB  1", Valid: true}, bill.BillNumber)
	require.False(t, bill.ShortTitle.Valid)
	require.Equal(t, Int{Value: 3, Valid: true}, bill.Flag2)
	require.Equal(t, Int{Value: 31, Valid: true}, bill.Session)
	require.Equal(t, "\x00", bill.Lock.Value)
	require.Equal(t, Bool{Value: false, Valid: true}, bill.Vetoed)
	require.Equal(t, `["FISH","GAME"]`, bill.Subjects.Value)
	require.Equal(t, `{"Code":"FIN","Name":"Finance"}`, bill.CurrentCommittee.Value)
	require.False(t, bill.Documents.Valid)
}

func TestClientRetry(t *testing.T) {
	var calls atomic.Int32
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Write([]byte(`<s:Fault><Code>FaultException</Code></s:Fault>`))
			return
		}
		writeBasis(w, "Members", []map[string]any{{"Code": "ABC", "Chamber": "H"}})
	})

	members, err := client.Members(context.Background(), Query{Session: 31})
	require.NoError(t, err)
	require.Equal(t, int32(3), calls.Load())
	require.Len(t, members, 1)
	require.Equal(t, "ABC", members[0].Code.Value)
	require.Len(t, rec.Reports("warning"), 2)
}

func TestClientRetryExhausted(t *testing.T) {
	var calls atomic.Int32
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Bills(context.Background(), Query{Session: 31})
	require.Error(t, err)
	require.Equal(t, int32(maxAttempts), calls.Load())

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadGateway, statusErr.Status)
	require.Len(t, rec.Reports("broken"), 1)
}

func TestClientFatalErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("session") == "40" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`not json at all`))
	})

	_, err := client.Bills(context.Background(), Query{Session: 40})
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())

	_, err = client.Bills(context.Background(), Query{Session: 31})
	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, int32(2), calls.Load())
}

func TestClientNotAvailable(t *testing.T) {
	var calls atomic.Int32
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`Invalid Session Number`))
	})

	_, err := client.Members(context.Background(), Query{Session: 9})
	require.ErrorIs(t, err, ErrNotAvailable)
	require.Equal(t, int32(0), calls.Load())

	_, err = client.Bills(context.Background(), Query{Session: 2})
	require.ErrorIs(t, err, ErrNotAvailable)
	require.Equal(t, int32(1), calls.Load())
	require.Empty(t, rec.Reports("broken"))
}

func TestClientSession(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sessions", r.URL.Path)
		if r.URL.Query().Get("session") == "50" {
			writeBasis(w, "Session", nil)
			return
		}
		w.Write([]byte(`{"Basis": {"Session": {
			"Number": "18",
			"Year": 1993,
			"SessionDates": [{"ID": 10, "Title": "First Regular Session", "StartDate": "/Date(726742800000)/", "EndDate": "garbage"}]
		}}}`))
	})

	session, err := client.Session(context.Background(), Query{Session: 18})
	require.NoError(t, err)
	require.Equal(t, int16(18), session.LegislatureNumber)
	require.Equal(t, int64(1993), session.Year.Value)
	require.Len(t, session.SessionDates, 1)
	require.Equal(t, "1993-01-11", session.SessionDates[0].StartDate.Date.String())
	require.False(t, session.SessionDates[0].EndDate.Date.Valid)

	_, err = client.Session(context.Background(), Query{Session: 50})
	require.ErrorIs(t, err, ErrNotAvailable)
}

func TestClientCommitteesMeetings(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/committees":
			w.Write([]byte(`{"Basis": {"Committees": [{"Code": "FIN"}, {"Code": "RES"}]}}`))
		case "/meetings":
			require.Equal(t, "S", r.URL.Query().Get("chamber"))
			w.Write([]byte(`{"Basis": {"Meetings": [{"Title": "Floor Session"}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	committees, err := client.Committees(context.Background(), Query{Session: 31})
	require.NoError(t, err)
	require.Len(t, committees, 2)
	require.JSONEq(t, `{"Code": "RES"}`, string(committees[1]))

	meetings, err := client.Meetings(context.Background(), Query{Session: 31, Chamber: "S"})
	require.NoError(t, err)
	require.Len(t, meetings, 1)
}

func TestClientMemberVotes(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "members;code=ABC,Votes,Bills", r.Header.Get("X-Alaska-Legislature-Basis-Query"))
		w.Write([]byte(`{"Basis": {"Members": [{"Code": "ABC", "Votes": [
			{"Session": 31, "VoteNum": "H0026", "VoteDate": "2019-03-01", "Title": "Third Reading", "Bill": "HB 1", "Member": "ABC", "Vote": "Y"},
			{"Session": 31, "VoteNum": "H0027", "VoteDate": "-199- 0--0", "Bill": "", "Member": "ABC", "Vote": "N"}
		]}]}}`))
	})

	votes, err := client.MemberVotes(context.Background(), 31, "ABC")
	require.NoError(t, err)
	require.Len(t, votes, 2)
	require.Equal(t, int16(31), votes[1].LegislatureNumber)
	require.Equal(t, "H0026", votes[0].VoteNum.Value)
	require.False(t, votes[1].Bill.Valid)
	require.False(t, votes[1].Title.Valid)
}

func TestClientBillVersions(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "bills;bill=HB1,versions", r.Header.Get("X-Alaska-Legislature-Basis-Query"))
		w.Write([]byte(`{"Basis": {"Bills": [{"BillNumber": "HB 1", "Versions": [
			{"VersionLetter": "A", "Title": "An Act relating to fish"},
			{"VersionLetter": "B"}
		]}]}}`))
	})

	versions, err := client.BillVersions(context.Background(), 31, "HB 1")
	require.NoError(t, err)
	require.Equal(t, []RawVersion{
		{VersionLetter: String{Value: "A", Valid: true}, Title: String{Value: "An Act relating to fish", Valid: true}},
		{VersionLetter: String{Value: "B", Valid: true}},
	}, versions)
}

func TestFlexTypes(t *testing.T) {
	var row struct {
		S1 String   `json:"s1"`
		S2 String   `json:"s2"`
		S3 String   `json:"s3"`
		S4 String   `json:"s4"`
		B1 Bool     `json:"b1"`
		B2 Bool     `json:"b2"`
		B3 Bool     `json:"b3"`
		I1 Int      `json:"i1"`
		I2 Int      `json:"i2"`
		J1 JSONText `json:"j1"`
		J2 JSONText `json:"j2"`
		J3 JSONText `json:"j3"`
	}
	err := json.Unmarshal([]byte(`{
		"s1": "  a\r\nb  ", "s2": "   ", "s3": 12, "s4": {"x": 1},
		"b1": true, "b2": "Yes", "b3": "maybe",
		"i1": "0042", "i2": {},
		"j1": [ 1, 2 ], "j2": "text", "j3": []
	}`), &row)
	require.NoError(t, err)

	require.Equal(t, String{Value: "a\nb", Valid: true}, row.S1)
	require.False(t, row.S2.Valid)
	require.Equal(t, "12", row.S3.Value)
	require.False(t, row.S4.Valid)
	require.True(t, row.B1.Value)
	require.Equal(t, Bool{Value: true, Valid: true}, row.B2)
	require.False(t, row.B3.Valid)
	require.Equal(t, int64(42), row.I1.Value)
	require.False(t, row.I2.Valid)
	require.Equal(t, "[1,2]", row.J1.Value)
	require.False(t, row.J2.Valid)
	require.Equal(t, JSONText{Value: "[]", Valid: true}, row.J3)

	// cached rows must read back the same
	encoded, err := json.Marshal(row)
	require.NoError(t, err)
	var decoded = row
	decoded.S1 = String{}
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Equal(t, row, decoded)
}

func TestParseMsDate(t *testing.T) {
	require.Equal(t, model.NewDate(1993, time.January, 11), ParseMsDate("/Date(726742800000)/"))
	require.Equal(t, model.NewDate(2025, time.January, 20), ParseMsDate("/Date(1737392400000-0900)/"))
	require.False(t, ParseMsDate("2025-01-20").Valid)
	require.False(t, ParseMsDate("").Valid)
}

func TestFormatBillNumber(t *testing.T) {
	cases := map[string]string{
		"HB 169":  "HB0169",
		"HB3169":  "HB3169",
		"HJR 42":  "HJR0042",
		"SJR2345": "SJR2345",
		"SB   7":  "SB0007",
	}
	for in, expected := range cases {
		got, err := FormatBillNumber(in)
		require.NoError(t, err)
		require.Equal(t, expected, got, in)
	}
	_, err := FormatBillNumber("nothing")
	require.Error(t, err)
}

func TestStripLineNumbers(t *testing.T) {
	raw := "00                             HOUSE BILL NO. 200\r\n" +
		"01 \"An Act relating to\r\n" +
		"\r\n" +
		"02 publications.\"\n" +
		"03\n" +
		"04    \x16* Section 1.\x17"
	expected := "                            HOUSE BILL NO. 200\n" +
		"\"An Act relating to\n" +
		"publications.\"\n" +
		"\n" +
		"   \x16* Section 1.\x17"
	require.Equal(t, expected, StripLineNumbers(raw))
	require.Equal(t, "é", StripLineNumbers("01 é"))
}

func newTestPlaintext(t *testing.T, handler http.HandlerFunc) *PlaintextClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewPlaintextClient(server.URL, telemetry.NewRecorder(), nil, nil)
	client.Backoff = noBackoff
	return client
}

func TestPlaintextBillText(t *testing.T) {
	var calls atomic.Int32
	client := newTestPlaintext(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		require.Equal(t, "/34", r.URL.Path)
		switch r.URL.Query().Get("Hsid") {
		case "HB0200A":
			if n == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte("00 HOUSE BILL NO. 200\n01 An Act"))
		case "HB0200B":
			w.Write([]byte("<html><body><pre>00 HOUSE BILL NO. 200\n01 Amended</pre></body></html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	text, err := client.BillText(context.Background(), 34, "HB 200", "A")
	require.NoError(t, err)
	require.Equal(t, "HOUSE BILL NO. 200\nAn Act", text)
	require.Equal(t, int32(2), calls.Load())

	text, err = client.BillText(context.Background(), 34, "HB 200", "B")
	require.NoError(t, err)
	require.Equal(t, "HOUSE BILL NO. 200\nAmended", text)

	before := calls.Load()
	_, err = client.BillText(context.Background(), 34, "HB 200", "Z")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.Status)
	require.Equal(t, before+1, calls.Load())
}

func TestCacheNeedRefresh(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "members", "members_30.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0777))
	require.NoError(t, os.WriteFile(existing, []byte("[]"), 0644))
	missing := filepath.Join(dir, "members", "members_31.json")
	legs := []int{30, 31}

	require.True(t, Cache{}.NeedRefresh(existing, 30, legs))
	require.True(t, Cache{Dir: dir, Policy: CacheNever}.NeedRefresh(existing, 30, legs))
	require.False(t, Cache{Dir: dir, Policy: CacheAlways}.NeedRefresh(existing, 30, legs))
	require.True(t, Cache{Dir: dir, Policy: CacheAlways}.NeedRefresh(missing, 31, legs))
	require.False(t, Cache{Dir: dir, Policy: CachePreviousSessions}.NeedRefresh(existing, 30, legs))
	require.True(t, Cache{Dir: dir, Policy: CachePreviousSessions}.NeedRefresh(existing, 30, []int{29, 30}))

	require.Equal(t, filepath.Join(dir, "choices", "votes_31.json"), Cache{Dir: dir}.Path("votes", 31))

	_, err := ParseCachePolicy("sometimes")
	require.Error(t, err)
}

func TestScraper(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		session := r.URL.Query().Get("session")
		if session == "32" {
			w.Write([]byte("Invalid Session Number"))
			return
		}
		switch r.URL.Path {
		case "/sessions":
			writeBasis(w, "Session", map[string]any{"Number": session, "Year": 2000})
		case "/members":
			query := r.Header.Get("X-Alaska-Legislature-Basis-Query")
			if strings.HasPrefix(query, "members;code=") {
				code := strings.TrimSuffix(strings.TrimPrefix(query, "members;code="), ",Votes,Bills")
				writeBasis(w, "Members", []map[string]any{{
					"Code": code,
					"Votes": []map[string]any{{
						"Session": session, "VoteNum": "H0001", "Member": code, "Vote": "Y",
					}},
				}})
				return
			}
			writeBasis(w, "Members", []map[string]any{
				{"Code": "BBB", "Chamber": "H"},
				{"Code": "AAA", "Chamber": "S"},
			})
		case "/bills":
			writeBasis(w, "Bills", []map[string]any{{"BillNumber": "HB 1"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	config := Config{
		BaseUrl:           server.URL,
		RequestsPerSecond: 1000,
		CacheDir:          dir,
		CachePolicy:       CachePreviousSessions,
	}
	rec := telemetry.NewRecorder()
	client := NewClient(config, rec, nil, nil)
	client.Backoff = noBackoff
	scraper := NewScraper(client, config, rec)

	scraped, err := scraper.Scrape(context.Background(), []int{30, 31, 32})
	require.NoError(t, err)
	require.Len(t, scraped.Sessions, 2)
	require.Equal(t, int16(30), scraped.Sessions[0].LegislatureNumber)
	require.Len(t, scraped.Members, 4)
	require.Len(t, scraped.Bills, 2)

	var choices []string
	for _, v := range scraped.Votes {
		choices = append(choices, fmt.Sprintf("%d:%s", v.LegislatureNumber, v.Member.Value))
	}
	if diff := cmp.Diff([]string{"30:BBB", "30:AAA", "31:BBB", "31:AAA"}, choices); diff != "" {
		t.Fatal(diff)
	}

	require.FileExists(t, filepath.Join(dir, "members", "members_30.json"))
	require.FileExists(t, filepath.Join(dir, "bills", "bills_31.json"))
	require.FileExists(t, filepath.Join(dir, "choices", "votes_30.json"))
	require.FileExists(t, filepath.Join(dir, legislaturesFile))

	// only the latest legislature is fetched again
	before := requests.Load()
	members, err := scraper.Members(context.Background(), []int{30, 31})
	require.NoError(t, err)
	require.Len(t, members, 4)
	require.Equal(t, before+1, requests.Load())
}

func TestErrorMessages(t *testing.T) {
	err := fmt.Errorf("fetch bills: %w", &ServerError{Url: "/bills", Body: strings.Repeat("x", 400)})
	require.Contains(t, err.Error(), "server fault for /bills")
	require.True(t, strings.HasSuffix(err.Error(), "..."))
	require.True(t, Transient(errors.New("connection reset")))
}
