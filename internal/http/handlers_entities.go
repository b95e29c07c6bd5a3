package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/core"
	applog "github.com/RDL-Tech-Solutions/jurus-sub003/internal/log"
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/storage"
)

type createdResponse struct {
	ID int64 `json:"id"`
}

// --- transactions ---

type transactionRequest struct {
	Date   string `json:"date"`
	Type   string `json:"type"`
	Amount string `json:"amount"`
}

type transactionDTO struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.repo.ListTransactions(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(),"List transactions failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, errors.New("list transactions"))
		return
	}
	out := make([]transactionDTO, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, transactionDTO{
			ID:          t.ID,
			Date:        formatDate(t.Date),
			Type:        string(t.Type),
			AmountCents: t.Amount.Cents,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	t := core.Transaction{Date: date, Type: core.FlowType(req.Type), Amount: amount}
	if err := t.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := s.repo.CreateTransaction(r.Context(), t)
	if err != nil {
		s.logger.ErrorContext(r.Context(),"Create transaction failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, errors.New("create transaction"))
		return
	}
	s.InvalidateForecasts()
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.repo.DeleteTransaction(r.Context(), id); err != nil {
		s.logger.ErrorContext(r.Context(),"Delete transaction failed", applog.FieldError, err, "transaction_id", id)
		writeError(w, http.StatusInternalServerError, errors.New("delete transaction"))
		return
	}
	s.InvalidateForecasts()
	w.WriteHeader(http.StatusNoContent)
}

// --- recurring rules ---

type recurrenceRequest struct {
	Type       string `json:"type"`
	Amount     string `json:"amount"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date,omitempty"`
	Frequency  string `json:"frequency"`
	DayOfMonth int    `json:"day_of_month,omitempty"`
	DayOfWeek  *int   `json:"day_of_week,omitempty"`
}

type recurrenceDTO struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	Active      bool   `json:"active"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
	Frequency   string `json:"frequency"`
	DayOfMonth  int    `json:"day_of_month,omitempty"`
	DayOfWeek   *int   `json:"day_of_week,omitempty"`
}

func (s *Server) handleListRecurrences(w http.ResponseWriter, r *http.Request) {
	rules, err := s.repo.ListRecurringRules(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(),"List recurrences failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, errors.New("list recurrences"))
		return
	}
	out := make([]recurrenceDTO, 0, len(rules))
	for _, rule := range rules {
		dto := recurrenceDTO{
			ID:          rule.ID,
			Type:        string(rule.Type),
			AmountCents: rule.Amount.Cents,
			Active:      rule.Active,
			StartDate:   formatDate(rule.StartDate),
			EndDate:     formatDate(rule.EndDate),
			Frequency:   string(rule.Frequency),
			DayOfMonth:  rule.DayOfMonth,
		}
		if rule.DayOfWeek >= 0 {
			dow := rule.DayOfWeek
			dto.DayOfWeek = &dow
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRecurrence(w http.ResponseWriter, r *http.Request) {
	var req recurrenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var endDate core.Date
	if req.EndDate != "" {
		if endDate, err = parseDate(req.EndDate); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rule := core.RecurringRule{
		Type:       core.FlowType(req.Type),
		Amount:     amount,
		Active:     true,
		StartDate:  startDate,
		EndDate:    endDate,
		Frequency:  core.Frequency(req.Frequency),
		DayOfMonth: req.DayOfMonth,
		DayOfWeek:  -1,
	}
	if req.DayOfWeek != nil {
		rule.DayOfWeek = *req.DayOfWeek
	}
	if err := rule.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := s.repo.CreateRecurringRule(r.Context(), rule)
	if err != nil {
		s.logger.ErrorContext(r.Context(),"Create recurrence failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, errors.New("create recurrence"))
		return
	}
	s.InvalidateForecasts()
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (s *Server) handleSetRecurrenceActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req setActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.repo.SetRuleActive(r.Context(), id, req.Active); err != nil {
		s.logger.ErrorContext(r.Context(),"Set recurrence active failed", applog.FieldError, err, applog.FieldRuleID, id)
		writeError(w, http.StatusInternalServerError, errors.New("update recurrence"))
		return
	}
	s.InvalidateForecasts()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteRecurrence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.repo.DeleteRecurringRule(r.Context(), id); err != nil {
		s.logger.ErrorContext(r.Context(),"Delete recurrence failed", applog.FieldError, err, applog.FieldRuleID, id)
		writeError(w, http.StatusInternalServerError, errors.New("delete recurrence"))
		return
	}
	s.InvalidateForecasts()
	w.WriteHeader(http.StatusNoContent)
}

// --- credit cards ---

type cardRequest struct {
	Name       string `json:"name"`
	ClosingDay int    `json:"closing_day"`
	DueDay     int    `json:"due_day"`
}

type cardDTO struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ClosingDay int    `json:"closing_day"`
	DueDay     int    `json:"due_day"`
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.repo.ListCards(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(),"List cards failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, errors.New("list cards"))
		return
	}
	out := make([]cardDTO, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardDTO{ID: c.ID, Name: c.Name, ClosingDay: c.ClosingDay, DueDay: c.DueDay})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	card := core.CreditCard{Name: req.Name, ClosingDay: req.ClosingDay, DueDay: req.DueDay}
	if err := card.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := s.repo.CreateCard(r.Context(), card)
	if err != nil {
		s.logger.ErrorContext(r.Context(),"Create card failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, errors.New("create card"))
		return
	}
	s.InvalidateForecasts()
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.repo.DeleteCard(r.Context(), id); err != nil {
		s.logger.ErrorContext(r.Context(),"Delete card failed", applog.FieldError, err, applog.FieldCardID, id)
		writeError(w, http.StatusInternalServerError, errors.New("delete card"))
		return
	}
	s.InvalidateForecasts()
	w.WriteHeader(http.StatusNoContent)
}

// --- card charges ---

type chargeRequest struct {
	Date         string `json:"date"`
	TotalAmount  string `json:"total_amount"`
	Installments int    `json:"installments"`
}

type chargeDTO struct {
	ID          int64  `json:"id"`
	CardID      int64  `json:"card_id"`
	Date        string `json:"date"`
	AmountCents int64  `json:"amount_cents"`
}

// handleCreateCharge splits a card purchase into equal monthly
// installments, each stored as its own charge dated at the purchase date.
// Cent remainders go to the first installment so the sum stays exact.
func (s *Server) handleCreateCharge(w http.ResponseWriter, r *http.Request) {
	cardID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req chargeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	total, err := parseAmount(req.TotalAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	installments := req.Installments
	if installments == 0 {
		installments = 1
	}
	if installments < 1 || installments > 120 {
		writeError(w, http.StatusBadRequest, errors.New("installments must be between 1 and 120"))
		return
	}

	base := total.Cents / int64(installments)
	remainder := total.Cents % int64(installments)

	ids := make([]int64, 0, installments)
	purchaseDate := date
	for i := 0; i < installments; i++ {
		amount := base
		if i == 0 {
			amount += remainder
		}
		charge := core.CardCharge{CardID: cardID, Date: purchaseDate, Amount: core.Money{Cents: amount}}
		if err := charge.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		id, err := s.repo.CreateCardCharge(r.Context(), charge)
		if err != nil {
			s.logger.ErrorContext(r.Context(),"Create charge failed", applog.FieldError, err, applog.FieldCardID, cardID)
			writeError(w, http.StatusInternalServerError, errors.New("create charge"))
			return
		}
		ids = append(ids, id)
		purchaseDate = nextInstallmentDate(date, i+1)
	}

	s.InvalidateForecasts()
	writeJSON(w, http.StatusCreated, struct {
		IDs []int64 `json:"ids"`
	}{IDs: ids})
}

// nextInstallmentDate places the n-th installment n months after the
// purchase, clamping the day when the target month is shorter.
func nextInstallmentDate(purchase core.Date, n int) core.Date {
	shifted := core.NewDate(purchase.Year(), purchase.Month(), 1).AddDate(0, n, 0)
	day := core.ClampDay(purchase.Day(), shifted.Year(), int(shifted.Month()))
	return core.NewDate(shifted.Year(), int(shifted.Month()), day)
}

func (s *Server) handleListCharges(w http.ResponseWriter, r *http.Request) {
	charges, err := s.repo.ListCardCharges(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(),"List charges failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, errors.New("list charges"))
		return
	}
	out := make([]chargeDTO, 0, len(charges))
	for _, c := range charges {
		out = append(out, chargeDTO{ID: c.ID, CardID: c.CardID, Date: formatDate(c.Date), AmountCents: c.Amount.Cents})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteCharge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.repo.DeleteCardCharge(r.Context(), id); err != nil {
		s.logger.ErrorContext(r.Context(),"Delete charge failed", applog.FieldError, err, "charge_id", id)
		writeError(w, http.StatusInternalServerError, errors.New("delete charge"))
		return
	}
	s.InvalidateForecasts()
	w.WriteHeader(http.StatusNoContent)
}

// --- debts ---

type debtRequest struct {
	Amount  string `json:"amount"`
	DueDate string `json:"due_date,omitempty"`
}

type debtDTO struct {
	ID          int64  `json:"id"`
	AmountCents int64  `json:"amount_cents"`
	DueDate     string `json:"due_date,omitempty"`
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := s.repo.ListDebts(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(),"List debts failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, errors.New("list debts"))
		return
	}
	out := make([]debtDTO, 0, len(debts))
	for _, d := range debts {
		out = append(out, debtDTO{ID: d.ID, AmountCents: d.Amount.Cents, DueDate: formatDate(d.DueDate)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var dueDate core.Date
	if req.DueDate != "" {
		if dueDate, err = parseDate(req.DueDate); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	debt := core.Debt{Amount: amount, DueDate: dueDate}
	if err := debt.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := s.repo.CreateDebt(r.Context(), debt)
	if err != nil {
		s.logger.ErrorContext(r.Context(),"Create debt failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, errors.New("create debt"))
		return
	}
	s.InvalidateForecasts()
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.repo.DeleteDebt(r.Context(), id); err != nil {
		s.logger.ErrorContext(r.Context(),"Delete debt failed", applog.FieldError, err, "debt_id", id)
		writeError(w, http.StatusInternalServerError, errors.New("delete debt"))
		return
	}
	s.InvalidateForecasts()
	w.WriteHeader(http.StatusNoContent)
}

// --- balance ---

type balanceResponse struct {
	BalanceCents int64 `json:"balance_cents"`
}

type setBalanceRequest struct {
	Balance string `json:"balance"`
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	cents, err := s.repo.GetCurrentBalance(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(),"Get balance failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, errors.New("get balance"))
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{BalanceCents: cents})
}

// handleSetBalance replaces the stored current balance. Negative values are
// allowed: an overdrawn account is a valid forecasting start.
func (s *Server) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	var req setBalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	raw := strings.TrimSpace(req.Balance)
	negative := strings.HasPrefix(raw, "-")
	if negative {
		raw = raw[1:]
	}
	cents, err := core.ParseDecimalToCents(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid balance %q", req.Balance))
		return
	}
	if negative {
		cents = -cents
	}
	if err := s.repo.SetCurrentBalance(r.Context(), cents); err != nil {
		s.logger.ErrorContext(r.Context(),"Set balance failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, errors.New("set balance"))
		return
	}
	s.InvalidateForecasts()
	writeJSON(w, http.StatusOK, balanceResponse{BalanceCents: cents})
}

// --- paid statements ---

type paidStatementRequest struct {
	CardID   int64 `json:"card_id"`
	DueYear  int   `json:"due_year"`
	DueMonth int   `json:"due_month"`
}

func (req paidStatementRequest) validate() error {
	if req.CardID < 1 {
		return errors.New("card_id is required")
	}
	if req.DueYear < 1 {
		return errors.New("due_year is required")
	}
	if req.DueMonth < 1 || req.DueMonth > 12 {
		return errors.New("due_month must be between 1 and 12")
	}
	return nil
}

func (s *Server) handleMarkStatementPaid(w http.ResponseWriter, r *http.Request) {
	var req paidStatementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st := storage.PaidStatement{CardID: req.CardID, DueYear: req.DueYear, DueMonth: req.DueMonth}
	if err := s.repo.MarkStatementPaid(r.Context(), st); err != nil {
		s.logger.ErrorContext(r.Context(),"Mark statement paid failed", applog.FieldError, err, applog.FieldCardID, req.CardID)
		writeError(w, http.StatusInternalServerError, errors.New("mark statement paid"))
		return
	}
	s.InvalidateForecasts()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnmarkStatementPaid(w http.ResponseWriter, r *http.Request) {
	var req paidStatementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st := storage.PaidStatement{CardID: req.CardID, DueYear: req.DueYear, DueMonth: req.DueMonth}
	if err := s.repo.UnmarkStatementPaid(r.Context(), st); err != nil {
		s.logger.ErrorContext(r.Context(),"Unmark statement paid failed", applog.FieldError, err, applog.FieldCardID, req.CardID)
		writeError(w, http.StatusInternalServerError, errors.New("unmark statement paid"))
		return
	}
	s.InvalidateForecasts()
	w.WriteHeader(http.StatusNoContent)
}
