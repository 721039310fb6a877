package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"crediflow/internal/api/handler/dto"
	"crediflow/internal/domain/client"
	"crediflow/internal/domain/loan"
	"crediflow/internal/pkg/apperrors"
)

// AdvisoryService is what the handler needs from the AI collaborator.
type AdvisoryService interface {
	AnalyzeLoanRisk(ctx context.Context, c *client.Client, amount float64, termCount int) (*loan.RiskAdvisory, error)
	CollectionMessage(ctx context.Context, clientName string, daysOverdue int, amountDue string) (string, error)
}

type AdvisoryHandler struct {
	advisory AdvisoryService
	clients  client.Service
	loans    loan.Service
	logger   *slog.Logger
}

func NewAdvisoryHandler(advisory AdvisoryService, clients client.Service, loans loan.Service, l *slog.Logger) *AdvisoryHandler {
	if advisory == nil || clients == nil || loans == nil {
		panic("advisory handler dependencies cannot be nil")
	}
	return &AdvisoryHandler{
		advisory: advisory,
		clients:  clients,
		loans:    loans,
		logger:   l.With("component", "AdvisoryHandler"),
	}
}

// AnalyzeRisk handles POST /advisory/risk
// @Summary Analyze credit risk for a prospective loan
// @Description Produces an AI-generated risk opinion for a client and prospective loan amount. The result is advisory only; when the AI backend is unreachable a neutral fallback is returned.
// @Tags Advisory
// @Accept json
// @Produce json
// @Param request body dto.RiskAnalysisRequest true "Risk analysis request"
// @Success 200 {object} dto.AdvisoryResponse "Risk opinion"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Router /advisory/risk [post]
// @Security BearerAuth
func (h *AdvisoryHandler) AnalyzeRisk(w http.ResponseWriter, r *http.Request) {
	var req dto.RiskAnalysisRequest
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

	c, err := h.clients.GetClient(r.Context(), clientID)
	if err != nil {
		respondError(w, err)
		return
	}

	advisory, err := h.advisory.AnalyzeLoanRisk(r.Context(), c, req.Amount, req.TermCount)
	if err != nil || advisory == nil {
		h.logger.ErrorContext(r.Context(), "Advisory provider returned no result", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: advisory unavailable", apperrors.ErrInternalServer))
		return
	}

	respondJSON(w, http.StatusOK, dto.AdvisoryResponse{
		RiskLevel:      advisory.RiskLevel,
		Score:          advisory.Score,
		Reasoning:      advisory.Reasoning,
		Recommendation: advisory.Recommendation,
		GeneratedAt:    advisory.GeneratedAt,
	})
}

// GenerateReminder handles POST /advisory/reminder
// @Summary Draft a payment reminder for an overdue installment
// @Description Drafts a collection message for a specific overdue installment of a client's loan. Falls back to a canned reminder when the AI backend is unreachable.
// @Tags Advisory
// @Accept json
// @Produce json
// @Param request body dto.ReminderRequest true "Reminder request"
// @Success 200 {object} dto.ReminderResponse "Drafted reminder"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or installment not overdue"
// @Failure 404 {object} dto.ErrorResponse "Client, loan or installment not found"
// @Router /advisory/reminder [post]
// @Security BearerAuth
func (h *AdvisoryHandler) GenerateReminder(w http.ResponseWriter, r *http.Request) {
	var req dto.ReminderRequest
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
	loanID, err := uuid.Parse(req.LoanID)
	if err != nil {
		respondError(w, fmt.Errorf("%w: invalid loanId format", apperrors.ErrInvalidArgument))
		return
	}

	c, err := h.clients.GetClient(r.Context(), clientID)
	if err != nil {
		respondError(w, err)
		return
	}
	l, err := h.loans.GetLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	var inst *loan.Installment
	for i := range l.Installments {
		if l.Installments[i].Number == req.InstallmentNumber {
			inst = &l.Installments[i]
			break
		}
	}
	if inst == nil {
		respondError(w, fmt.Errorf("%w: installment %d of loan %s", loan.ErrInstallmentNotFound, req.InstallmentNumber, loanID))
		return
	}
	if inst.Settled() {
		respondError(w, fmt.Errorf("%w: installment %d is already settled", apperrors.ErrValidation, req.InstallmentNumber))
		return
	}

	daysOverdue := int(time.Since(inst.DueDate).Hours() / 24)
	if daysOverdue < 0 {
		daysOverdue = 0
	}
	amountDue := dto.FormatCurrency(inst.Amount)

	message, err := h.advisory.CollectionMessage(r.Context(), c.Name, daysOverdue, amountDue)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to draft collection message", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: reminder unavailable", apperrors.ErrInternalServer))
		return
	}

	respondJSON(w, http.StatusOK, dto.ReminderResponse{
		Message:     message,
		DaysOverdue: daysOverdue,
		AmountDue:   amountDue,
	})
}
