package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Srinathnulidonda/Savlinks/internal/application"
	"github.com/Srinathnulidonda/Savlinks/internal/domain"
	"github.com/Srinathnulidonda/Savlinks/internal/pkg/logging"
	"github.com/Srinathnulidonda/Savlinks/internal/pkg/metrics"
)

type Handlers struct {
	service  *application.LinkService
	resolver *application.RedirectResolver
	sender   domain.EmailSender
	repo     domain.LinkRepository
	registry metrics.Registry
	baseURL  string
}

func NewHandlers(
	service *application.LinkService,
	resolver *application.RedirectResolver,
	sender domain.EmailSender,
	repo domain.LinkRepository,
	registry metrics.Registry,
	baseURL string,
) *Handlers {
	return &Handlers{
		service:  service,
		resolver: resolver,
		sender:   sender,
		repo:     repo,
		registry: registry,
		baseURL:  baseURL,
	}
}

// HandleHealth handles the health check endpoint.
//
//	@Summary		Health check endpoint
//	@Description	Check if the service is running
//	@Tags			health
//	@Produce		plain
//	@Success		200	{string}	string	"OK"
//	@Router			/health [get]
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// HandleReady handles the readiness check endpoint.
//
//	@Summary		Readiness check endpoint
//	@Description	Check if the service is ready to serve requests (includes database connectivity)
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	object{status=string,timestamp=string}	"Service is ready"
//	@Failure		503	{object}	ErrorResponse							"Service is not ready"
//	@Router			/ready [get]
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.HealthCheck(ctx); err != nil {
		slog.Error("Readiness check failed", "error", err)
		respondWithError(w, http.StatusServiceUnavailable, "Service not ready: database unavailable")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "ready",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// HandleCreateLink handles link creation.
//
//	@Summary		Create a short link
//	@Description	Create a shortened link with an optional custom slug and expiry
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		application.CreateLinkRequest	true	"Link to create"
//	@Success		201		{object}	application.LinkResponse		"Successfully created link"
//	@Failure		400		{object}	ValidationErrorResponse			"Invalid request or validation error"
//	@Failure		409		{object}	ErrorResponse					"Slug already taken"
//	@Router			/links [post]
func (h *Handlers) HandleCreateLink(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	var req application.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("Failed to decode request", "error", err)
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	response, err := h.service.CreateLink(r.Context(), identity.UserID, req, h.baseURL)
	if err != nil {
		h.respondCreateError(w, logger, err)
		return
	}

	h.registry.IncLinksCreated()
	logger.Info("Created link", "slug", response.Slug, "target_url", response.TargetURL)
	respondWithJSON(w, http.StatusCreated, response)
}

func (h *Handlers) respondCreateError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrSlugTaken):
		respondWithError(w, http.StatusConflict, "Slug already taken")
	case errors.Is(err, domain.ErrInvalidSlug),
		errors.Is(err, domain.ErrSlugReserved),
		errors.Is(err, domain.ErrInvalidURL),
		errors.Is(err, domain.ErrExpiryInPast):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrGenerationExhausted):
		logger.Error("Slug space exhausted", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to allocate a unique slug")
	default:
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			handleValidationError(w, validationErrors)
			return
		}
		logger.Error("Failed to create link", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to create link")
	}
}

// HandleListLinks handles paginated link listings for the caller.
//
//	@Summary		List links
//	@Description	List the caller's links with pagination, filtering and sorting
//	@Tags			links
//	@Produce		json
//	@Security		BearerAuth
//	@Param			page		query		int		false	"Page number"
//	@Param			perPage		query		int		false	"Items per page (max 100)"
//	@Param			isActive	query		bool	false	"Filter by active flag"
//	@Param			sort		query		string	false	"Sort field (created_at, clicks, expires_at, slug)"
//	@Param			order		query		string	false	"Sort order (asc, desc)"
//	@Success		200			{object}	application.LinkListResponse
//	@Router			/links [get]
func (h *Handlers) HandleListLinks(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	opts := listOptionsFromQuery(r)
	response, err := h.service.ListLinks(r.Context(), identity.UserID, opts, h.baseURL)
	if err != nil {
		logging.FromContext(r.Context()).Error("Failed to list links", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list links")
		return
	}

	respondWithJSON(w, http.StatusOK, response)
}

// HandleGetLink returns a single owned link.
//
//	@Summary		Get a link
//	@Tags			links
//	@Produce		json
//	@Security		BearerAuth
//	@Param			linkID	path		string	true	"Link id"
//	@Success		200		{object}	application.LinkResponse
//	@Failure		404		{object}	ErrorResponse	"Link not found"
//	@Router			/links/{linkID} [get]
func (h *Handlers) HandleGetLink(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	response, err := h.service.GetLink(r.Context(), identity.UserID, chi.URLParam(r, "linkID"), h.baseURL)
	if err != nil {
		h.respondLookupError(w, r, err, "Failed to get link")
		return
	}

	respondWithJSON(w, http.StatusOK, response)
}

// HandleUpdateLink mutates owner-editable fields of a link.
//
//	@Summary		Update a link
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			linkID	path		string							true	"Link id"
//	@Param			request	body		application.UpdateLinkRequest	true	"Fields to update"
//	@Success		200		{object}	application.LinkResponse
//	@Failure		400		{object}	ValidationErrorResponse	"Invalid request"
//	@Failure		404		{object}	ErrorResponse			"Link not found"
//	@Router			/links/{linkID} [put]
func (h *Handlers) HandleUpdateLink(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	var req application.UpdateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("Failed to decode request", "error", err)
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	response, err := h.service.UpdateLink(r.Context(), identity.UserID, chi.URLParam(r, "linkID"), req, h.baseURL)
	if err != nil {
		if errors.Is(err, domain.ErrExpiryInPast) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			handleValidationError(w, validationErrors)
			return
		}
		h.respondLookupError(w, r, err, "Failed to update link")
		return
	}

	respondWithJSON(w, http.StatusOK, response)
}

// HandleToggleLink flips the active flag of a link.
//
//	@Summary		Toggle a link's active flag
//	@Tags			links
//	@Produce		json
//	@Security		BearerAuth
//	@Param			linkID	path		string	true	"Link id"
//	@Success		200		{object}	application.LinkResponse
//	@Failure		404		{object}	ErrorResponse	"Link not found"
//	@Router			/links/{linkID}/toggle [post]
func (h *Handlers) HandleToggleLink(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	response, err := h.service.ToggleLink(r.Context(), identity.UserID, chi.URLParam(r, "linkID"), h.baseURL)
	if err != nil {
		h.respondLookupError(w, r, err, "Failed to toggle link")
		return
	}

	respondWithJSON(w, http.StatusOK, response)
}

// HandleDeleteLink removes a link and frees its slug.
//
//	@Summary		Delete a link
//	@Tags			links
//	@Produce		json
//	@Security		BearerAuth
//	@Param			linkID	path		string	true	"Link id"
//	@Success		200		{object}	object{message=string}
//	@Failure		404		{object}	ErrorResponse	"Link not found"
//	@Router			/links/{linkID} [delete]
func (h *Handlers) HandleDeleteLink(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	if err := h.service.DeleteLink(r.Context(), identity.UserID, chi.URLParam(r, "linkID")); err != nil {
		h.respondLookupError(w, r, err, "Failed to delete link")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Link deleted successfully"})
}

// HandleStats returns aggregate link statistics for the caller.
//
//	@Summary		Owner link statistics
//	@Tags			links
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	domain.OwnerStats
//	@Router			/links/stats [get]
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	stats, err := h.service.Stats(r.Context(), identity.UserID)
	if err != nil {
		logging.FromContext(r.Context()).Error("Failed to compute stats", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
}

// HandleCheckSlug reports whether a custom slug is valid and unclaimed.
//
//	@Summary		Check slug availability
//	@Tags			links
//	@Produce		json
//	@Security		BearerAuth
//	@Param			slug	query		string	true	"Slug to check"
//	@Success		200		{object}	object{slug=string,available=bool}
//	@Router			/links/check-slug [get]
func (h *Handlers) HandleCheckSlug(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("slug")
	if raw == "" {
		respondWithError(w, http.StatusBadRequest, "Slug is required")
		return
	}

	normalized, available, err := h.service.CheckSlug(r.Context(), raw)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSlug) || errors.Is(err, domain.ErrSlugReserved) {
			respondWithJSON(w, http.StatusOK, map[string]interface{}{
				"available": false,
				"error":     err.Error(),
			})
			return
		}
		logging.FromContext(r.Context()).Error("Failed to check slug", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to check slug")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"slug":      normalized,
		"available": available,
	})
}

// HandleRedirect resolves a slug and redirects to its target.
//
//	@Summary		Redirect to the target URL
//	@Description	Resolve the slug through cache and store, count the click, redirect
//	@Tags			redirect
//	@Param			slug	path	string	true	"Slug"
//	@Success		302		"Redirect to target URL"
//	@Failure		404		{object}	ErrorResponse	"Unknown slug"
//	@Failure		410		{object}	ErrorResponse	"Link expired or disabled"
//	@Router			/{slug} [get]
func (h *Handlers) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	slug := chi.URLParam(r, "slug")

	resolution, err := h.resolver.Resolve(r.Context(), slug)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLinkNotFound):
			respondWithError(w, http.StatusNotFound, "Short link not found")
		case errors.Is(err, domain.ErrLinkGone):
			respondWithError(w, http.StatusGone, "This link has expired or been disabled")
		default:
			// Never redirect to a possibly wrong target on a degraded
			// store.
			logger.Error("Failed to resolve slug", "slug", slug, "error", err)
			respondWithError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
		}
		return
	}

	logger.Info("Redirecting", "slug", resolution.Slug, "target_url", resolution.TargetURL)
	http.Redirect(w, r, resolution.TargetURL, http.StatusFound)
}

// HandlePreview returns link metadata without redirecting.
//
//	@Summary		Preview a short link
//	@Tags			redirect
//	@Produce		json
//	@Param			slug	path		string	true	"Slug"
//	@Success		200		{object}	object{preview=object}
//	@Failure		404		{object}	ErrorResponse	"Unknown slug"
//	@Failure		410		{object}	ErrorResponse	"Link expired or disabled"
//	@Router			/{slug}/preview [get]
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	link, err := h.resolver.Preview(r.Context(), slug)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLinkNotFound):
			respondWithError(w, http.StatusNotFound, "Short link not found")
		case errors.Is(err, domain.ErrLinkGone):
			respondWithError(w, http.StatusGone, "This link has expired or been disabled")
		default:
			logging.FromContext(r.Context()).Error("Failed to preview slug", "slug", slug, "error", err)
			respondWithError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"preview": map[string]interface{}{
			"slug":        link.Slug,
			"shortUrl":    h.baseURL + "/" + link.Slug,
			"targetUrl":   link.TargetURL,
			"title":       link.Title,
			"description": link.Description,
			"createdAt":   link.CreatedAt,
			"expiresAt":   link.ExpiresAt,
		},
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

// HandleResendVerification asks the email service to resend the
// verification email. The response never discloses whether the address
// has an account.
//
//	@Summary		Resend the verification email
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		emailRequest	true	"Address to verify"
//	@Success		200		{object}	object{message=string}
//	@Router			/auth/resend-verification [post]
func (h *Handlers) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	h.handleEmailRequest(w, r, domain.EmailVerification,
		"If an account exists for this address, a verification email has been sent")
}

// HandleForgotPassword asks the email service to send a password reset
// email, with the same non-disclosure contract.
//
//	@Summary		Send a password reset email
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		emailRequest	true	"Account address"
//	@Success		200		{object}	object{message=string}
//	@Router			/auth/forgot-password [post]
func (h *Handlers) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.handleEmailRequest(w, r, domain.EmailPasswordReset,
		"If an account exists for this address, a password reset email has been sent")
}

func (h *Handlers) handleEmailRequest(w http.ResponseWriter, r *http.Request, kind domain.EmailKind, message string) {
	logger := logging.FromContext(r.Context())

	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		respondWithError(w, http.StatusBadRequest, "Email is required")
		return
	}

	// Send failures are non-fatal: the user retries on demand, and the
	// response is identical either way.
	if err := h.sender.Send(r.Context(), kind, req.Email, map[string]string{"link": h.baseURL}); err != nil {
		logger.Warn("Email send failed", "kind", kind, "error", err)
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (h *Handlers) respondLookupError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if errors.Is(err, domain.ErrLinkNotFound) {
		respondWithError(w, http.StatusNotFound, "Link not found")
		return
	}
	logging.FromContext(r.Context()).Error(fallback, "error", err)
	respondWithError(w, http.StatusInternalServerError, fallback)
}

func listOptionsFromQuery(r *http.Request) domain.ListOptions {
	q := r.URL.Query()

	opts := domain.ListOptions{
		Page:    queryInt(q.Get("page"), 1),
		PerPage: queryInt(q.Get("perPage"), 20),
		Sort:    q.Get("sort"),
		Order:   q.Get("order"),
	}
	if raw := q.Get("isActive"); raw != "" {
		isActive := strings.EqualFold(raw, "true")
		opts.IsActive = &isActive
	}
	return opts
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	var value int
	if _, err := fmt.Sscanf(raw, "%d", &value); err != nil || value < 1 {
		return fallback
	}
	return value
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     map[string]string `json:"error"`
	Timestamp string            `json:"timestamp" example:"2024-01-31T12:00:00Z"`
}

// ValidationErrorResponse represents a validation error response.
type ValidationErrorResponse struct {
	Details map[string]string `json:"details"`
	Error   string            `json:"error" example:"Validation failed"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]interface{}{
		"error": map[string]string{
			"message": message,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func handleValidationError(w http.ResponseWriter, validationErrors validator.ValidationErrors) {
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		field := getJSONFieldName(e)
		switch e.Tag() {
		case "required":
			errorMessages[field] = fmt.Sprintf("%s is required", field)
		case "url":
			errorMessages[field] = fmt.Sprintf("%s must be a valid URL", field)
		case "min":
			errorMessages[field] = fmt.Sprintf("%s must be at least %s characters long", field, e.Param())
		case "max":
			errorMessages[field] = fmt.Sprintf("%s must be at most %s characters long", field, e.Param())
		default:
			errorMessages[field] = fmt.Sprintf("%s is invalid", field)
		}
	}

	respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":   "Validation failed",
		"details": errorMessages,
	})
}

// getJSONFieldName extracts the JSON tag name from a validation error
func getJSONFieldName(e validator.FieldError) string {
	structType := getStructTypeFromError(e)
	if structType == nil {
		return e.Field()
	}

	field, found := structType.FieldByName(e.StructField())
	if !found {
		return e.Field()
	}

	jsonTag := field.Tag.Get("json")
	if jsonTag == "" {
		return e.Field()
	}

	if commaIndex := strings.Index(jsonTag, ","); commaIndex != -1 {
		jsonTag = jsonTag[:commaIndex]
	}

	return jsonTag
}

// getStructTypeFromError extracts the struct type from a validation error
func getStructTypeFromError(e validator.FieldError) reflect.Type {
	namespace := e.StructNamespace()

	parts := strings.Split(namespace, ".")
	if len(parts) < 2 {
		return nil
	}

	return getTypeFromStructName(parts[0])
}

// getTypeFromStructName returns the reflect.Type for a given struct name
// This acts as a registry for known request types
func getTypeFromStructName(structName string) reflect.Type {
	switch structName {
	case "CreateLinkRequest":
		return reflect.TypeOf(application.CreateLinkRequest{})
	case "UpdateLinkRequest":
		return reflect.TypeOf(application.UpdateLinkRequest{})
	default:
		return nil
	}
}
