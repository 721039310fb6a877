package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"crediflow/internal/api/handler/dto"
	"crediflow/internal/domain/client"
	"crediflow/internal/domain/loan"
	"crediflow/internal/pkg/apperrors"
)

type LoanHandler struct {
	service loan.Service
	logger  *slog.Logger
}

func NewLoanHandler(s loan.Service, l *slog.Logger) *LoanHandler {
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, message, field := http.StatusInternalServerError, "An unexpected error occurred.", ""
	var validationError *apperrors.ValidationError
	var appErr *apperrors.AppError

	switch {
	case errors.Is(err, loan.ErrLoanNotFound),
		errors.Is(err, loan.ErrInstallmentNotFound),
		errors.Is(err, loan.ErrUnknownClient),
		errors.Is(err, client.ErrNotFound),
		errors.Is(err, apperrors.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, loan.ErrAlreadySettled),
		errors.Is(err, client.ErrDuplicateDNI),
		errors.Is(err, apperrors.ErrConflict):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, loan.ErrInvalidLoanTerms),
		errors.Is(err, apperrors.ErrInvalidArgument),
		errors.Is(err, apperrors.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "Unauthorized."
	case errors.As(err, &validationError):
		status, message, field = http.StatusBadRequest, validationError.Message, validationError.Field
	case errors.As(err, &appErr):
		message = appErr.Error()
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	resp := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Message: message,
			Field:   field,
		},
	}
	respondJSON(w, status, resp)
}

func getUUIDFromURL(r *http.Request, param string) (uuid.UUID, error) {
	idStr := chi.URLParam(r, param)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%w: %s not found in URL path", apperrors.ErrInvalidArgument, param)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s format in URL path: %s", apperrors.ErrInvalidArgument, param, idStr)
	}
	return id, nil
}

// CreateLoan handles the creation of a new loan.
//
// @Summary Create a new loan
// @Description Creates a loan for an existing client, generating its full amortization schedule up front. The AI risk advisory is attached asynchronously and never blocks creation.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.CreateLoanRequest true "Loan creation request payload"
// @Success 201 {object} dto.LoanResponse "Loan successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or loan terms"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		respondError(w, fmt.Errorf("%w: invalid clientId format", apperrors.ErrInvalidArgument))
		return
	}

	createdLoan, err := h.service.CreateLoan(r.Context(), clientID, req.ToTerms())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewLoanResponse(createdLoan, true))
}

// PreviewSchedule computes an amortization schedule without creating a loan.
//
// @Summary Preview an amortization schedule
// @Description Computes the full installment schedule for the given terms without persisting anything. Used for live recomputation while terms are edited.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.LoanTermsRequest true "Loan terms"
// @Success 200 {object} dto.ScheduleResponse "Computed schedule"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan terms"
// @Router /loans/preview [post]
// @Security BearerAuth
func (h *LoanHandler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req dto.LoanTermsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	schedule, err := h.service.PreviewSchedule(req.ToTerms())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewScheduleResponse(schedule))
}

// GetLoan retrieves the details of a specific loan.
//
// @Summary Retrieve loan details
// @Description Retrieves a loan by its ID. The repayment schedule can be included by adding the query parameter `include=schedule`.
// @Tags Loans
// @Produce json
// @Param loanID path string true "Loan ID (UUID)"
// @Param include query string false "Optional parameter to include the schedule (use 'schedule')"
// @Success 200 {object} dto.LoanResponse "Loan details successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getUUIDFromURL(r, "loanID")
	if err != nil {
		respondError(w, err)
		return
	}

	domainLoan, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	includeSchedule := r.URL.Query().Get("include") == "schedule"
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(domainLoan, includeSchedule))
}

// ListLoans lists loans, optionally filtered by client.
//
// @Summary List loans
// @Description Lists all loans. Pass `clientId` to restrict the listing to one client's portfolio.
// @Tags Loans
// @Produce json
// @Param clientId query string false "Filter by client ID (UUID)"
// @Success 200 {array} dto.LoanResponse "Loans successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid clientId filter"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	var (
		loans []*loan.Loan
		err   error
	)

	if filter := r.URL.Query().Get("clientId"); filter != "" {
		clientID, parseErr := uuid.Parse(filter)
		if parseErr != nil {
			respondError(w, fmt.Errorf("%w: invalid clientId filter: %s", apperrors.ErrInvalidArgument, filter))
			return
		}
		loans, err = h.service.ListLoansByClient(r.Context(), clientID)
	} else {
		loans, err = h.service.ListLoans(r.Context())
	}
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]dto.LoanResponse, len(loans))
	for i, l := range loans {
		resp[i] = dto.NewLoanResponse(l, false)
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetSchedule retrieves the full amortization schedule of a loan.
//
// @Summary Retrieve loan schedule
// @Description Retrieves the complete installment schedule of a loan, including payment status per installment.
// @Tags Loans
// @Produce json
// @Param loanID path string true "Loan ID (UUID)"
// @Success 200 {object} dto.ScheduleResponse "Schedule successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/schedule [get]
// @Security BearerAuth
func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, err := getUUIDFromURL(r, "loanID")
	if err != nil {
		respondError(w, err)
		return
	}

	domainLoan, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := dto.NewScheduleResponse(&loan.Schedule{
		Installments:  domainLoan.Installments,
		TotalInterest: domainLoan.TotalInterest,
		TotalPayable:  domainLoan.TotalPayable,
	})
	respondJSON(w, http.StatusOK, resp)
}

// GetOutstanding retrieves the outstanding balance of a loan.
//
// @Summary Retrieve outstanding loan balance
// @Description Retrieves the remaining capital balance at the first unsettled installment, or zero for a fully paid loan.
// @Tags Loans
// @Produce json
// @Param loanID path string true "Loan ID (UUID)"
// @Success 200 {object} dto.OutstandingResponse "Outstanding balance successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/outstanding [get]
// @Security BearerAuth
func (h *LoanHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	loanID, err := getUUIDFromURL(r, "loanID")
	if err != nil {
		respondError(w, err)
		return
	}

	outstanding, err := h.service.GetOutstanding(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := dto.OutstandingResponse{
		LoanID:            loanID.String(),
		OutstandingAmount: fmt.Sprintf("%.2f", outstanding),
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetProgress retrieves the repayment progress of a loan.
//
// @Summary Retrieve loan repayment progress
// @Description Retrieves the share of settled installments as a percentage.
// @Tags Loans
// @Produce json
// @Param loanID path string true "Loan ID (UUID)"
// @Success 200 {object} dto.ProgressResponse "Progress successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/progress [get]
// @Security BearerAuth
func (h *LoanHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	loanID, err := getUUIDFromURL(r, "loanID")
	if err != nil {
		respondError(w, err)
		return
	}

	progress, err := h.service.GetProgress(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := dto.ProgressResponse{
		LoanID:          loanID.String(),
		ProgressPercent: fmt.Sprintf("%.2f", progress),
	}
	respondJSON(w, http.StatusOK, resp)
}

// RegisterPayment settles one installment of a loan.
//
// @Summary Register an installment payment
// @Description Marks the given installment as paid in full. Registering a payment twice for the same installment is rejected with a conflict.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path string true "Loan ID (UUID)"
// @Param request body dto.RegisterPaymentRequest true "Payment request payload"
// @Success 200 {object} dto.LoanResponse "Payment successfully registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID or request payload"
// @Failure 404 {object} dto.ErrorResponse "Loan or installment not found"
// @Failure 409 {object} dto.ErrorResponse "Installment already settled"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/payments [post]
// @Security BearerAuth
func (h *LoanHandler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	loanID, err := getUUIDFromURL(r, "loanID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.RegisterPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updated, err := h.service.RegisterPayment(r.Context(), loanID, req.InstallmentNumber)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanResponse(updated, true))
}
