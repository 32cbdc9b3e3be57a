package epass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type pageRequest struct {
	startRecord int
	from, to    string
}

// transactionServer serves a fixed total count, handing out pages of up
// to 500 records with IDs derived from the offset. It records every page
// request it sees.
type transactionServer struct {
	lock     sync.Mutex
	requests []pageRequest
	count    int
	idPrefix func(from string) string
}

func (s *transactionServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transactions-vehicles", r.URL.Path)
		require.Equal(t, "1", r.URL.Query().Get("efficiencyId"))

		startRecord, err := strconv.Atoi(r.URL.Query().Get("startrecord"))
		require.NoError(t, err)
		pagesize, err := strconv.Atoi(r.URL.Query().Get("pagesize"))
		require.NoError(t, err)

		from := r.URL.Query().Get("timestampInFrom")
		s.lock.Lock()
		s.requests = append(s.requests, pageRequest{
			startRecord: startRecord,
			from:        from,
			to:          r.URL.Query().Get("timestampInTo"),
		})
		s.lock.Unlock()

		prefix := "tx"
		if s.idPrefix != nil {
			prefix = s.idPrefix(from)
		}

		remaining := s.count - startRecord
		if remaining < 0 {
			remaining = 0
		}
		if remaining > pagesize {
			remaining = pagesize
		}
		records := make([]Transaction, 0, remaining)
		for i := 0; i < remaining; i++ {
			records = append(records, Transaction{
				ID:          fmt.Sprintf("%s-%d", prefix, startRecord+i),
				TimestampIn: "15/06/2023 10:00:00",
				Price:       35000,
			})
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"listData": records,
				"count":    s.count,
			},
		})
	}
}

func newTestService(t *testing.T, apiURL string) *Service {
	t.Helper()
	cfg := testConfig{baseURL: apiURL}
	return NewService(cfg, newTestClient(t, cfg), WithPageDelay(0))
}

func TestFetchTransactionsPagesThroughFullCount(t *testing.T) {
	operator := &transactionServer{count: 1200}
	srv := httptest.NewServer(operator.handler(t))
	defer srv.Close()

	service := newTestService(t, srv.URL)

	transactions, err := service.FetchTransactions(context.Background(),
		date(2023, time.June, 1), date(2023, time.June, 30))
	require.NoError(t, err)
	require.Len(t, transactions, 1200)

	offsets := make([]int, 0, len(operator.requests))
	for _, req := range operator.requests {
		offsets = append(offsets, req.startRecord)
	}
	require.Equal(t, []int{0, 500, 1000}, offsets)
}

func TestFetchTransactionsSplitsLongRanges(t *testing.T) {
	operator := &transactionServer{count: 3}
	srv := httptest.NewServer(operator.handler(t))
	defer srv.Close()

	service := newTestService(t, srv.URL)

	// 40 days spans two sub-ranges.
	_, err := service.FetchTransactions(context.Background(),
		date(2023, time.January, 1), date(2023, time.February, 9))
	require.NoError(t, err)

	require.Len(t, operator.requests, 2)
	require.Equal(t, "01/01/2023", operator.requests[0].from)
	require.Equal(t, "30/01/2023", operator.requests[0].to)
	require.Equal(t, "31/01/2023", operator.requests[1].from)
	require.Equal(t, "09/02/2023", operator.requests[1].to)
}

func TestFetchTransactionsDeduplicatesAcrossRanges(t *testing.T) {
	// Every sub-range reports the same three IDs, as if the operator
	// returned boundary transactions twice.
	operator := &transactionServer{count: 3, idPrefix: func(string) string { return "shared" }}
	srv := httptest.NewServer(operator.handler(t))
	defer srv.Close()

	service := newTestService(t, srv.URL)

	transactions, err := service.FetchTransactions(context.Background(),
		date(2023, time.January, 1), date(2023, time.February, 9))
	require.NoError(t, err)

	require.Len(t, operator.requests, 2)
	require.Len(t, transactions, 3)

	seen := map[string]bool{}
	for _, tx := range transactions {
		require.False(t, seen[tx.ID], "transaction %s returned twice", tx.ID)
		seen[tx.ID] = true
	}
}

func TestFetchTransactionsEmptyResult(t *testing.T) {
	operator := &transactionServer{count: 0}
	srv := httptest.NewServer(operator.handler(t))
	defer srv.Close()

	service := newTestService(t, srv.URL)

	transactions, err := service.FetchTransactions(context.Background(),
		date(2023, time.June, 1), date(2023, time.June, 1))
	require.NoError(t, err)
	require.Empty(t, transactions)
	require.Len(t, operator.requests, 1)
}

func TestFetchTransactionsInvalidRange(t *testing.T) {
	service := newTestService(t, "http://127.0.0.1:0")

	_, err := service.FetchTransactions(context.Background(),
		date(2023, time.June, 2), date(2023, time.June, 1))
	require.Error(t, err)
}
