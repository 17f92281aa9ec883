package accounting

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/loomledger/loomledger/internal/accounting/journals"
	"github.com/loomledger/loomledger/internal/accounting/ledgers"
	"github.com/loomledger/loomledger/internal/accounting/posting"
	"github.com/loomledger/loomledger/internal/accounting/shared"
	"github.com/loomledger/loomledger/internal/balances"
	"github.com/loomledger/loomledger/internal/partners"
	"github.com/loomledger/loomledger/internal/tenant"
)

const dateLayout = "2006-01-02"

// Handler exposes the accounting core as a JSON API for the
// surrounding ERP surfaces.
type Handler struct {
	logger   *slog.Logger
	posting  *posting.Service
	journals *journals.Service
	ledgers  *ledgers.Service
	cache    *balances.Cache
	validate *validator.Validate
}

// NewHandler constructs the accounting HTTP handler.
func NewHandler(logger *slog.Logger, postingSvc *posting.Service, journalSvc *journals.Service, ledgerSvc *ledgers.Service, cache *balances.Cache) *Handler {
	return &Handler{
		logger:   logger,
		posting:  postingSvc,
		journals: journalSvc,
		ledgers:  ledgerSvc,
		cache:    cache,
		validate: validator.New(),
	}
}

// MountRoutes registers accounting routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/invoices/post", h.postInvoice)
	r.Post("/credit-notes/post", h.postCreditNote)
	r.Post("/journals", h.postJournal)
	r.Get("/journals", h.listJournals)
	r.Get("/journals/{id}", h.getJournal)
	r.Get("/ledgers/{id}/balance", h.ledgerBalance)
}

type invoiceItemRequest struct {
	ProductID      string  `json:"product_id" validate:"omitempty,uuid"`
	Quantity       float64 `json:"quantity" validate:"required,gt=0"`
	UnitRate       float64 `json:"unit_rate" validate:"gte=0"`
	DiscountAmount float64 `json:"discount_amount" validate:"gte=0"`
}

type postInvoiceRequest struct {
	InvoiceID         string               `json:"invoice_id" validate:"required,uuid"`
	CustomerID        string               `json:"customer_id" validate:"required,uuid"`
	InvoiceNumber     string               `json:"invoice_number" validate:"required"`
	InvoiceDate       string               `json:"invoice_date" validate:"required"`
	CustomerStateCode string               `json:"customer_state_code" validate:"required"`
	CompanyStateCode  string               `json:"company_state_code" validate:"required"`
	GSTRatePercent    *float64             `json:"gst_rate_percent" validate:"omitempty,gt=0"`
	Items             []invoiceItemRequest `json:"items" validate:"required,min=1,dive"`
	DiscountAmount    float64              `json:"discount_amount" validate:"gte=0"`
	AdjustmentAmount  float64              `json:"adjustment_amount"`
	DispatchID        string               `json:"dispatch_id" validate:"omitempty,uuid"`
	UserID            string               `json:"user_id" validate:"required,uuid"`
}

type postingResponse struct {
	JournalEntryID int64          `json:"journal_entry_id"`
	EntryNumber    string         `json:"entry_number"`
	COGSEntryID    *int64         `json:"cogs_entry_id,omitempty"`
	Totals         posting.Totals `json:"totals"`
}

func (h *Handler) postInvoice(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant.ScopeFromContext(r.Context())
	if !ok {
		h.respondError(w, tenant.ErrMissingScope)
		return
	}
	var req postInvoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	invoiceDate, err := time.Parse(dateLayout, req.InvoiceDate)
	if err != nil {
		h.respondFieldError(w, "invoice_date", "must be a YYYY-MM-DD date")
		return
	}

	items := make([]posting.InvoiceItem, 0, len(req.Items))
	for idx, item := range req.Items {
		enriched, err := h.posting.EnrichItemGST(r.Context(), scope, posting.InvoiceItem{
			ProductID:      parseUUID(item.ProductID),
			Quantity:       item.Quantity,
			UnitRate:       item.UnitRate,
			DiscountAmount: item.DiscountAmount,
		}, req.CustomerStateCode, req.CompanyStateCode, req.GSTRatePercent)
		if err != nil {
			h.logger.Error("enrich invoice item", slog.Int("item", idx), slog.Any("error", err))
			h.respondError(w, err)
			return
		}
		items = append(items, enriched)
	}
	totals := posting.CalculateTotals(items, req.DiscountAmount, req.AdjustmentAmount)

	entry, err := h.posting.PostInvoice(r.Context(), scope, posting.InvoiceInput{
		InvoiceID:     parseUUID(req.InvoiceID),
		CustomerID:    parseUUID(req.CustomerID),
		InvoiceNumber: req.InvoiceNumber,
		InvoiceDate:   invoiceDate,
		Totals:        totals,
		UserID:        parseUUID(req.UserID),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	resp := postingResponse{JournalEntryID: entry.ID, EntryNumber: entry.EntryNumber, Totals: totals}
	if req.DispatchID != "" {
		cogsEntry, err := h.posting.PostCOGS(r.Context(), scope, posting.COGSInput{
			InvoiceID:     parseUUID(req.InvoiceID),
			DispatchID:    parseUUID(req.DispatchID),
			InvoiceNumber: req.InvoiceNumber,
			InvoiceDate:   invoiceDate,
			UserID:        parseUUID(req.UserID),
		})
		if err != nil {
			// The sales posting already committed; surface the COGS
			// failure rather than pretending the whole call failed.
			h.logger.Error("post cogs entry", slog.String("invoice", req.InvoiceNumber), slog.Any("error", err))
			h.respondJSON(w, http.StatusMultiStatus, map[string]any{
				"journal_entry_id": entry.ID,
				"entry_number":     entry.EntryNumber,
				"totals":           totals,
				"cogs_error":       err.Error(),
			})
			return
		}
		if cogsEntry != nil {
			resp.COGSEntryID = &cogsEntry.ID
		}
	}
	h.respondJSON(w, http.StatusCreated, resp)
}

type postCreditNoteRequest struct {
	CreditNoteID     string         `json:"credit_note_id" validate:"required,uuid"`
	CustomerID       string         `json:"customer_id" validate:"required,uuid"`
	CreditNoteNumber string         `json:"credit_note_number" validate:"required"`
	CreditNoteDate   string         `json:"credit_note_date" validate:"required"`
	Totals           posting.Totals `json:"totals"`
	UserID           string         `json:"user_id" validate:"required,uuid"`
}

func (h *Handler) postCreditNote(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant.ScopeFromContext(r.Context())
	if !ok {
		h.respondError(w, tenant.ErrMissingScope)
		return
	}
	var req postCreditNoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	noteDate, err := time.Parse(dateLayout, req.CreditNoteDate)
	if err != nil {
		h.respondFieldError(w, "credit_note_date", "must be a YYYY-MM-DD date")
		return
	}

	entry, err := h.posting.PostCreditNote(r.Context(), scope, posting.CreditNoteInput{
		CreditNoteID:     parseUUID(req.CreditNoteID),
		CustomerID:       parseUUID(req.CustomerID),
		CreditNoteNumber: req.CreditNoteNumber,
		CreditNoteDate:   noteDate,
		Totals:           req.Totals,
		UserID:           parseUUID(req.UserID),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, postingResponse{
		JournalEntryID: entry.ID,
		EntryNumber:    entry.EntryNumber,
		Totals:         req.Totals,
	})
}

type journalLineRequest struct {
	LedgerAccountID int64   `json:"ledger_account_id" validate:"required,gt=0"`
	DebitAmount     float64 `json:"debit_amount" validate:"gte=0"`
	CreditAmount    float64 `json:"credit_amount" validate:"gte=0"`
	BillReference   string  `json:"bill_reference"`
}

type postJournalRequest struct {
	TransactionType string               `json:"transaction_type" validate:"required,oneof=invoice purchase_invoice payment_received payment_made"`
	TransactionID   string               `json:"transaction_id" validate:"required,uuid"`
	EntryDate       string               `json:"entry_date" validate:"required"`
	Narration       string               `json:"narration"`
	UserID          string               `json:"user_id" validate:"required,uuid"`
	Lines           []journalLineRequest `json:"lines" validate:"required,min=2,dive"`
}

func (h *Handler) postJournal(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant.ScopeFromContext(r.Context())
	if !ok {
		h.respondError(w, tenant.ErrMissingScope)
		return
	}
	var req postJournalRequest
	if !h.decode(w, r, &req) {
		return
	}
	entryDate, err := time.Parse(dateLayout, req.EntryDate)
	if err != nil {
		h.respondFieldError(w, "entry_date", "must be a YYYY-MM-DD date")
		return
	}

	lines := make([]journals.LineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, journals.LineInput{
			LedgerAccountID: line.LedgerAccountID,
			DebitAmount:     line.DebitAmount,
			CreditAmount:    line.CreditAmount,
			BillReference:   line.BillReference,
		})
	}
	entry, err := h.journals.Create(r.Context(), scope, journals.CreateInput{
		Type:          journals.TransactionType(req.TransactionType),
		TransactionID: parseUUID(req.TransactionID),
		Date:          entryDate,
		Narration:     req.Narration,
		CreatedBy:     parseUUID(req.UserID),
		Lines:         lines,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, entry)
}

func (h *Handler) listJournals(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant.ScopeFromContext(r.Context())
	if !ok {
		h.respondError(w, tenant.ErrMissingScope)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.journals.List(r.Context(), scope, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) getJournal(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant.ScopeFromContext(r.Context())
	if !ok {
		h.respondError(w, tenant.ErrMissingScope)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondFieldError(w, "id", "must be an integer")
		return
	}
	entry, err := h.journals.Get(r.Context(), scope, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, entry)
}

func (h *Handler) ledgerBalance(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant.ScopeFromContext(r.Context())
	if !ok {
		h.respondError(w, tenant.ErrMissingScope)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondFieldError(w, "id", "must be an integer")
		return
	}
	balance, err := h.cache.Balance(r.Context(), scope, id, func(ctx context.Context) (ledgers.Balance, error) {
		return h.ledgers.Balance(ctx, scope, id)
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, balance)
}

// decode unmarshals and validates the request body, writing the error
// response itself on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		h.respondJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return false
	}
	if err := h.validate.Struct(dest); err != nil {
		fields := map[string]string{}
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, fieldErr := range validationErrs {
				fields[fieldErr.Field()] = fieldErr.Tag()
			}
		}
		h.respondJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": fields})
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var balanceErr *shared.BalanceError
	var configErr *shared.ConfigurationError
	switch {
	case errors.As(err, &balanceErr):
		h.respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":        balanceErr.Error(),
			"total_debit":  balanceErr.TotalDebit,
			"total_credit": balanceErr.TotalCredit,
			"difference":   balanceErr.Difference,
		})
	case errors.As(err, &configErr):
		h.logger.Error("chart of accounts misconfigured", slog.String("missing", configErr.Missing))
		h.respondJSON(w, http.StatusInternalServerError, map[string]any{"error": configErr.Error()})
	case errors.Is(err, partners.ErrNotFound),
		errors.Is(err, shared.ErrLedgerNotFound),
		errors.Is(err, shared.ErrJournalNotFound):
		h.respondJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
	case errors.Is(err, tenant.ErrMissingScope):
		h.respondJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	case errors.Is(err, shared.ErrTooFewLines), errors.Is(err, shared.ErrUnbalanced):
		h.respondJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error()})
	default:
		h.logger.Error("accounting request failed", slog.Any("error", err))
		h.respondJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

func (h *Handler) respondFieldError(w http.ResponseWriter, field, message string) {
	h.respondJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": map[string]string{field: message},
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn("encode response", slog.Any("error", err))
	}
}

func parseUUID(raw string) uuid.UUID {
	id, _ := uuid.Parse(raw)
	return id
}
