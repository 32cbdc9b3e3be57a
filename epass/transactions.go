package epass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/nguyensondev/epass-web/internal/config"
)

const (
	transactionsEndpoint = "/transactions-vehicles"

	// pageSize is the number of records requested per listing page.
	pageSize = 500
	// defaultPageDelay is a courtesy throttle between page requests so a
	// long history fetch does not hammer the operator.
	defaultPageDelay = 100 * time.Millisecond
)

// Transaction is a single toll event as reported by the operator.
// TimestampIn stays in the operator's DD/MM/YYYY HH:mm:ss wire format;
// use ParseTimestamp when a time.Time is needed.
type Transaction struct {
	ID             string  `json:"id"`
	TimestampIn    string  `json:"timestampIn"`
	StationInName  string  `json:"stationInName"`
	TicketTypeName string  `json:"ticketTypeName"`
	Price          float64 `json:"price"`
}

type transactionListResponse struct {
	Data struct {
		ListData []Transaction `json:"listData"`
		Count    int           `json:"count"`
	} `json:"data"`
}

// Service exposes the operator data operations: the chunked, paginated,
// deduplicated transaction fetch and the account balance lookup.
type Service struct {
	client    *Client
	cfg       config.EpassConfig
	pageDelay time.Duration
}

type ServiceOption func(*Service)

// WithPageDelay overrides the inter-page throttle. Tests set it to zero.
func WithPageDelay(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.pageDelay = d
	}
}

func NewService(cfg config.EpassConfig, client *Client, options ...ServiceOption) *Service {
	s := &Service{
		client:    client,
		cfg:       cfg,
		pageDelay: defaultPageDelay,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// FetchTransactions returns every toll transaction in [from, to] exactly
// once. The range is split into operator-compliant sub-ranges, each
// sub-range is paged through until the operator-reported total is
// exhausted, and the union is deduplicated by transaction ID. The result
// is unordered; callers needing chronological order sort explicitly.
//
// Any page failure aborts the whole fetch: a partial history would be
// indistinguishable from a complete one.
func (s *Service) FetchTransactions(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	ranges, err := SplitDateRange(from, to, maxRangeDays)
	if err != nil {
		return nil, err
	}

	var all []Transaction
	for _, r := range ranges {
		chunk, err := s.fetchRange(ctx, r)
		if err != nil {
			return nil, err
		}
		all = append(all, chunk...)
	}

	// Duplicate IDs across sub-range boundaries are assumed identical,
	// so last write wins.
	unique := make(map[string]Transaction, len(all))
	for _, tx := range all {
		unique[tx.ID] = tx
	}
	deduped := make([]Transaction, 0, len(unique))
	for _, tx := range unique {
		deduped = append(deduped, tx)
	}
	return deduped, nil
}

// fetchRange pages through one sub-range sequentially. Offset pagination
// needs the previous page to have succeeded before the next offset is
// known to be meaningful, so pages are never fetched in parallel.
func (s *Service) fetchRange(ctx context.Context, r DateRange) ([]Transaction, error) {
	var results []Transaction

	startRecord := 0
	for {
		query := url.Values{}
		query.Set("pagesize", strconv.Itoa(pageSize))
		query.Set("startrecord", strconv.Itoa(startRecord))
		query.Set("efficiencyId", "1")
		query.Set("timestampInFrom", FormatDate(r.From))
		query.Set("timestampInTo", FormatDate(r.To))

		body, err := s.client.Get(ctx, transactionsEndpoint, query)
		if err != nil {
			return nil, err
		}

		var page transactionListResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode transaction page: %w", err)
		}

		results = append(results, page.Data.ListData...)

		startRecord += pageSize
		if startRecord >= page.Data.Count {
			return results, nil
		}
		if err := s.throttle(ctx); err != nil {
			return nil, err
		}
	}
}

func (s *Service) throttle(ctx context.Context) error {
	if s.pageDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.pageDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
