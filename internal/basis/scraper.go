package basis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"akleg-data/internal/components/assert"
	"akleg-data/internal/components/telemetry"

	"golang.org/x/sync/errgroup"
)

const (
	report_scraper_legislatures = "scraper.legislatures"
	report_scraper_members      = "scraper.members"
	report_scraper_bills        = "scraper.bills"
	report_scraper_votes        = "scraper.votes"
)

// the sub queries sent for each legislature, journals make the responses too large
var sessionQueries = []string{
	"locations",
	"subjects",
	"requestors",
	"stats",
	"housestatus",
	"senatestatus",
}

// Scraper fetches the raw records of many legislatures through a Client and a Cache.
type Scraper struct {
	client      *Client
	cache       Cache
	concurrency int
	tel         telemetry.API
}

func NewScraper(client *Client, config Config, tel telemetry.API) *Scraper {
	assert.NotNil(client)
	assert.NotNil(tel)
	config = config.withDefaults()
	return &Scraper{
		client:      client,
		cache:       Cache{Dir: config.CacheDir, Policy: config.CachePolicy},
		concurrency: config.Concurrency,
		tel:         telemetry.NewScopedAPI("basis", tel),
	}
}

// fanOut calls fetch for every key with at most limit calls in flight, the results are concatenated
// in the order of keys. Keys that are not available are skipped.
func fanOut[K any, T any](ctx context.Context, limit int, keys []K, fetch func(ctx context.Context, key K) ([]T, error)) ([]T, error) {
	results := make([][]T, len(keys))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i, key := range keys {
		group.Go(func() error {
			rows, err := fetch(ctx, key)
			if errors.Is(err, ErrNotAvailable) {
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	err := group.Wait()
	if err != nil {
		return nil, err
	}
	return slices.Concat(results...), nil
}

// Legislatures fetches the given legislatures, the ones that do not exist yet are skipped.
func (s *Scraper) Legislatures(ctx context.Context, numbers []int) ([]RawSession, error) {
	path := filepath.Join(s.cache.Dir, legislaturesFile)
	// there is no "latest" legislature file, so only CacheAlways reads it
	cache := s.cache
	if cache.Policy != CacheAlways {
		cache.Policy = CacheNever
	}

	sessions, err := cached(cache, path, 0, nil, func() ([]RawSession, error) {
		return fanOut(ctx, s.concurrency, numbers, func(ctx context.Context, leg int) ([]RawSession, error) {
			session, err := s.client.Session(ctx, Query{Session: leg, Queries: sessionQueries})
			if err != nil {
				return nil, err
			}
			return []RawSession{session}, nil
		})
	})
	if err != nil {
		s.tel.ReportBroken(report_scraper_legislatures, err)
		return nil, fmt.Errorf("scrape legislatures: %w", err)
	}
	s.tel.ReportCount(report_scraper_legislatures, int64(len(sessions)))
	return sessions, nil
}

// Members fetches the members of the given legislatures.
func (s *Scraper) Members(ctx context.Context, numbers []int) ([]RawMember, error) {
	members, err := fanOut(ctx, s.concurrency, numbers, func(ctx context.Context, leg int) ([]RawMember, error) {
		return cached(s.cache, s.cache.Path("members", leg), leg, numbers, func() ([]RawMember, error) {
			return s.client.Members(ctx, Query{Session: leg})
		})
	})
	if err != nil {
		s.tel.ReportBroken(report_scraper_members, err)
		return nil, fmt.Errorf("scrape members: %w", err)
	}
	s.tel.ReportCount(report_scraper_members, int64(len(members)))
	return members, nil
}

// Bills fetches the bills of the given legislatures with their subjects.
func (s *Scraper) Bills(ctx context.Context, numbers []int) ([]RawBill, error) {
	bills, err := fanOut(ctx, s.concurrency, numbers, func(ctx context.Context, leg int) ([]RawBill, error) {
		return cached(s.cache, s.cache.Path("bills", leg), leg, numbers, func() ([]RawBill, error) {
			return s.client.Bills(ctx, Query{Session: leg, Queries: []string{"Subjects"}})
		})
	})
	if err != nil {
		s.tel.ReportBroken(report_scraper_bills, err)
		return nil, fmt.Errorf("scrape bills: %w", err)
	}
	s.tel.ReportCount(report_scraper_bills, int64(len(bills)))
	return bills, nil
}

// Votes fetches the votes of every member, one legislature at a time.
func (s *Scraper) Votes(ctx context.Context, members []RawMember) ([]RawVote, error) {
	codes := map[int][]string{}
	for _, m := range members {
		if !m.Code.Valid {
			continue
		}
		leg := int(m.LegislatureNumber)
		if !slices.Contains(codes[leg], m.Code.Value) {
			codes[leg] = append(codes[leg], m.Code.Value)
		}
	}
	legislatures := make([]int, 0, len(codes))
	for leg := range codes {
		legislatures = append(legislatures, leg)
	}
	slices.Sort(legislatures)

	var votes []RawVote
	for _, leg := range legislatures {
		rows, err := cached(s.cache, s.cache.Path("votes", leg), leg, legislatures, func() ([]RawVote, error) {
			return fanOut(ctx, s.concurrency, codes[leg], func(ctx context.Context, code string) ([]RawVote, error) {
				return s.client.MemberVotes(ctx, leg, code)
			})
		})
		if errors.Is(err, ErrNotAvailable) {
			continue
		}
		if err != nil {
			s.tel.ReportBroken(report_scraper_votes, err, leg)
			return nil, fmt.Errorf("scrape votes of legislature %d: %w", leg, err)
		}
		s.tel.ReportDebug("scraped votes", leg, len(rows))
		votes = append(votes, rows...)
	}
	s.tel.ReportCount(report_scraper_votes, int64(len(votes)))
	return votes, nil
}

// Scraped is every raw record of one run.
type Scraped struct {
	Sessions []RawSession
	Members  []RawMember
	Bills    []RawBill
	Votes    []RawVote
}

// Scrape fetches everything in dependency order, votes are requested per member so members are
// fetched first.
func (s *Scraper) Scrape(ctx context.Context, numbers []int) (Scraped, error) {
	var out Scraped
	var err error

	out.Sessions, err = s.Legislatures(ctx, numbers)
	if err != nil {
		return Scraped{}, err
	}
	existing := make([]int, 0, len(out.Sessions))
	for _, session := range out.Sessions {
		existing = append(existing, int(session.LegislatureNumber))
	}
	slices.Sort(existing)

	out.Members, err = s.Members(ctx, existing)
	if err != nil {
		return Scraped{}, err
	}
	out.Bills, err = s.Bills(ctx, existing)
	if err != nil {
		return Scraped{}, err
	}
	out.Votes, err = s.Votes(ctx, out.Members)
	if err != nil {
		return Scraped{}, err
	}
	return out, nil
}
