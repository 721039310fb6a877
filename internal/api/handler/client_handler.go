package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"crediflow/internal/api/handler/dto"
	"crediflow/internal/domain/client"
	"crediflow/internal/pkg/apperrors"
)

type ClientHandler struct {
	service client.Service
	logger  *slog.Logger
}

func NewClientHandler(s client.Service, l *slog.Logger) *ClientHandler {
	if s == nil {
		panic("client service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &ClientHandler{
		service: s,
		logger:  l.With("component", "ClientHandler"),
	}
}

// CreateClient handles POST /clients
// @Summary Create a new client
// @Description Creates a new client record. The identity document (DNI) must be unique.
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body dto.CreateClientRequest true "Client creation request"
// @Success 201 {object} dto.ClientResponse "Client successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 409 {object} dto.ErrorResponse "Identity document already registered"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clients [post]
// @Security BearerAuth
func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received create client request")

	var req dto.CreateClientRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Client payload validation failed", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	created, err := h.service.CreateClient(r.Context(), req.ToInput())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to create client", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := dto.NewClientResponse(created)
	h.logger.InfoContext(r.Context(), "Client created successfully", slog.String("clientID", resp.ID))
	respondJSON(w, http.StatusCreated, resp)
}

// GetClient handles GET /clients/{clientID}
// @Summary Retrieve client details
// @Description Retrieves details for a specific client by their ID.
// @Tags Clients
// @Produce json
// @Param clientID path string true "Client ID (UUID)"
// @Success 200 {object} dto.ClientResponse "Client details retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid client ID format"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clients/{clientID} [get]
// @Security BearerAuth
func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := getUUIDFromURL(r, "clientID")
	if err != nil {
		respondError(w, err)
		return
	}

	c, err := h.service.GetClient(r.Context(), clientID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewClientResponse(c))
}

// ListClients handles GET /clients
// @Summary List clients
// @Description Lists all clients. Pass `active=true` to exclude deactivated records.
// @Tags Clients
// @Produce json
// @Param active query bool false "Only return active clients"
// @Success 200 {array} dto.ClientResponse "Clients successfully retrieved"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clients [get]
// @Security BearerAuth
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	clients, err := h.service.ListClients(r.Context(), activeOnly)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]dto.ClientResponse, len(clients))
	for i, c := range clients {
		resp[i] = dto.NewClientResponse(c)
	}
	respondJSON(w, http.StatusOK, resp)
}

// UpdateContact handles PATCH /clients/{clientID}/contact
// @Summary Update client contact details
// @Description Updates phone, email or address for a client. Empty fields are left unchanged.
// @Tags Clients
// @Accept json
// @Produce json
// @Param clientID path string true "Client ID (UUID)"
// @Param request body dto.UpdateContactRequest true "Contact update request"
// @Success 200 {object} dto.ClientResponse "Contact details updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clients/{clientID}/contact [patch]
// @Security BearerAuth
func (h *ClientHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	clientID, err := getUUIDFromURL(r, "clientID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.UpdateContactRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updated, err := h.service.UpdateContact(r.Context(), clientID, client.ContactUpdate{
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewClientResponse(updated))
}

// UpdateDelinquency handles PUT /clients/{clientID}/delinquency
// @Summary Set client delinquency flag
// @Description Manually sets the delinquency flag for a client. The nightly sweep reconciles this flag automatically.
// @Tags Clients
// @Accept json
// @Produce json
// @Param clientID path string true "Client ID (UUID)"
// @Param request body dto.UpdateDelinquencyRequest true "Delinquency update request"
// @Success 204 "Delinquency flag updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clients/{clientID}/delinquency [put]
// @Security BearerAuth
func (h *ClientHandler) UpdateDelinquency(w http.ResponseWriter, r *http.Request) {
	clientID, err := getUUIDFromURL(r, "clientID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.UpdateDelinquencyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	if err := h.service.UpdateDelinquency(r.Context(), clientID, *req.Delinquent); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeactivateClient handles DELETE /clients/{clientID}
// @Summary Deactivate a client
// @Description Soft-deletes a client. Deactivated clients cannot take new loans.
// @Tags Clients
// @Produce json
// @Param clientID path string true "Client ID (UUID)"
// @Success 204 "Client deactivated"
// @Failure 400 {object} dto.ErrorResponse "Invalid client ID format"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clients/{clientID} [delete]
// @Security BearerAuth
func (h *ClientHandler) DeactivateClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := getUUIDFromURL(r, "clientID")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.DeactivateClient(r.Context(), clientID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReactivateClient handles POST /clients/{clientID}/reactivate
// @Summary Reactivate a client
// @Description Restores a previously deactivated client.
// @Tags Clients
// @Produce json
// @Param clientID path string true "Client ID (UUID)"
// @Success 204 "Client reactivated"
// @Failure 400 {object} dto.ErrorResponse "Invalid client ID format"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /clients/{clientID}/reactivate [post]
// @Security BearerAuth
func (h *ClientHandler) ReactivateClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := getUUIDFromURL(r, "clientID")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.ReactivateClient(r.Context(), clientID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
