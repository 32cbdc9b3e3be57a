package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nguyensondev/epass-web/epass"
	"github.com/nguyensondev/epass-web/report"
)

// queryDateLayout is the format the web UI sends ranges in.
const queryDateLayout = "2006-01-02"

func parseDateRangeQuery(r *http.Request) (time.Time, time.Time, error) {
	startDate := r.URL.Query().Get("startDate")
	endDate := r.URL.Query().Get("endDate")
	if startDate == "" || endDate == "" {
		return time.Time{}, time.Time{}, errors.New("start date and end date are required")
	}
	start, err := time.Parse(queryDateLayout, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", startDate)
	}
	end, err := time.Parse(queryDateLayout, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", endDate)
	}
	return start, end, nil
}

func (s *Server) TransactionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, end, err := parseDateRangeQuery(r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		transactions, err := s.deps.Service.FetchTransactions(r.Context(), start, end)
		if err != nil {
			log.Error().Err(err).Msg("transaction fetch failed")
			writeEpassError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    transactions,
			"count":   len(transactions),
		})
	}
}

func (s *Server) BalanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		balance, err := s.deps.Service.FetchBalance(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("balance fetch failed")
			writeEpassError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    balance,
		})
	}
}

// ExportHandler streams the requested range as an xlsx download.
func (s *Server) ExportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, end, err := parseDateRangeQuery(r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		transactions, err := s.deps.Service.FetchTransactions(r.Context(), start, end)
		if err != nil {
			log.Error().Err(err).Msg("transaction fetch for export failed")
			writeEpassError(w, err)
			return
		}

		buf, err := report.TransactionsWorkbook(transactions)
		if err != nil {
			log.Error().Err(err).Msg("workbook generation failed")
			writeJSONError(w, http.StatusInternalServerError, "failed to export")
			return
		}

		filename := fmt.Sprintf("epass-transactions-%s.xlsx", time.Now().Format(queryDateLayout))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			log.Error().Err(err).Msg("failed to stream workbook")
		}
	}
}

// ProxyHandler forwards an arbitrary operator endpoint call through the
// authenticated client, for UI features that have no dedicated handler.
func (s *Server) ProxyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Query().Get("endpoint")
		if endpoint == "" {
			writeJSONError(w, http.StatusBadRequest, "missing endpoint parameter")
			return
		}

		query := url.Values{}
		for key, values := range r.URL.Query() {
			if key == "endpoint" {
				continue
			}
			for _, value := range values {
				query.Add(key, value)
			}
		}

		body, err := s.deps.Client.Get(r.Context(), endpoint, query)
		if err != nil {
			var upstream *epass.UpstreamError
			if errors.As(err, &upstream) && upstream.StatusCode != 0 {
				writeJSONError(w, upstream.StatusCode, fmt.Sprintf("ePass API error: %d", upstream.StatusCode))
				return
			}
			log.Error().Err(err).Str("endpoint", endpoint).Msg("proxy call failed")
			writeEpassError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}
