package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/core"
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/forecast"
	applog "github.com/RDL-Tech-Solutions/jurus-sub003/internal/log"
)

type dayBalanceDTO struct {
	Day                   int   `json:"day"`
	ProjectedBalanceCents int64 `json:"projected_balance_cents"`
}

type forecastResponse struct {
	Year                       int             `json:"year"`
	Month                      int             `json:"month"`
	InitialBalanceCents        int64           `json:"initial_balance_cents"`
	FinalRealizedBalanceCents  int64           `json:"final_realized_balance_cents"`
	FinalProjectedBalanceCents int64           `json:"final_projected_balance_cents"`
	DailySeries                []dayBalanceDTO `json:"daily_series"`
}

// handleForecast assembles a forecast request from storage and runs the
// engine for the month `offset` months away from today. Responses are
// cached per target month and invalidated by every mutation.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	reference := core.DateOf(time.Now())
	year, month := referenceShift(reference, offset)

	key := forecastCacheKey(year, month)
	if cached, found := s.forecastCache.Get(key); found {
		s.logger.DebugContext(r.Context(), "Forecast cache hit",
			applog.FieldYear, year, applog.FieldMonth, month)
		writeJSON(w, http.StatusOK, toForecastResponse(cached))
		return
	}

	req, err := s.loadForecastRequest(r, reference, offset)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Forecast data load failed",
			applog.FieldError, err, applog.FieldMonthOffset, offset)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("load forecast data: %w", err))
		return
	}

	result := forecast.Month(req)
	s.forecastCache.Set(key, result)
	s.logger.InfoContext(r.Context(), "Forecast computed",
		applog.FieldYear, result.Year,
		applog.FieldMonth, result.Month,
		applog.FieldMonthOffset, offset,
		applog.FieldAmountCents, result.FinalProjectedBalance.Cents)
	writeJSON(w, http.StatusOK, toForecastResponse(result))
}

// loadForecastRequest pulls every collection the engine needs out of
// storage. The engine only sees plain values; it never touches the
// repository.
func (s *Server) loadForecastRequest(r *http.Request, reference core.Date, offset int) (forecast.Request, error) {
	ctx := r.Context()

	balance, err := s.repo.GetCurrentBalance(ctx)
	if err != nil {
		return forecast.Request{}, err
	}
	transactions, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return forecast.Request{}, err
	}
	rules, err := s.repo.ListRecurringRules(ctx)
	if err != nil {
		return forecast.Request{}, err
	}
	cards, err := s.repo.ListCards(ctx)
	if err != nil {
		return forecast.Request{}, err
	}
	charges, err := s.repo.ListCardCharges(ctx)
	if err != nil {
		return forecast.Request{}, err
	}
	debts, err := s.repo.ListDebts(ctx)
	if err != nil {
		return forecast.Request{}, err
	}
	paid, err := s.repo.ListPaidStatements(ctx)
	if err != nil {
		return forecast.Request{}, err
	}

	paidSet := make(map[forecast.PaidStatementKey]bool, len(paid))
	for _, p := range paid {
		paidSet[forecast.PaidStatementKey{CardID: p.CardID, DueYear: p.DueYear, DueMonth: p.DueMonth}] = true
	}

	return forecast.Request{
		Reference:      reference,
		MonthOffset:    offset,
		CurrentBalance: core.Money{Cents: balance},
		Transactions:   transactions,
		Rules:          rules,
		Cards:          cards,
		Charges:        charges,
		PaidStatements: paidSet,
		Debts:          debts,
	}, nil
}

func toForecastResponse(res forecast.Result) forecastResponse {
	out := forecastResponse{
		Year:                       res.Year,
		Month:                      res.Month,
		InitialBalanceCents:        res.InitialBalance.Cents,
		FinalRealizedBalanceCents:  res.FinalRealizedBalance.Cents,
		FinalProjectedBalanceCents: res.FinalProjectedBalance.Cents,
		DailySeries:                make([]dayBalanceDTO, 0, len(res.DailySeries)),
	}
	for _, day := range res.DailySeries {
		out.DailySeries = append(out.DailySeries, dayBalanceDTO{
			Day:                   day.Day,
			ProjectedBalanceCents: day.Projected.Cents,
		})
	}
	return out
}

// referenceShift moves the reference month by offset, rolling years.
func referenceShift(reference core.Date, offset int) (year, month int) {
	shifted := core.NewDate(reference.Year(), reference.Month(), 1).AddDate(0, offset, 0)
	return shifted.Year(), int(shifted.Month())
}
