package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/crewdeck/crewdeck/internal/audit"
	"github.com/crewdeck/crewdeck/internal/authz"
	"github.com/crewdeck/crewdeck/internal/catalog"
	"github.com/crewdeck/crewdeck/internal/config"
	"github.com/crewdeck/crewdeck/internal/directory"
	"github.com/crewdeck/crewdeck/internal/membership"
	"github.com/crewdeck/crewdeck/internal/role"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	roleService       *role.Service
	membershipService *membership.Service
	users             directory.Repository
	resolver          *authz.Resolver
	auditLogger       audit.Logger
	authConfig        config.AuthConfig
	validate          *validator.Validate
}

// NewHandler creates a new HTTP handler
func NewHandler(
	roleService *role.Service,
	membershipService *membership.Service,
	users directory.Repository,
	resolver *authz.Resolver,
	auditLogger audit.Logger,
	authConfig config.AuthConfig,
) *Handler {
	return &Handler{
		roleService:       roleService,
		membershipService: membershipService,
		users:             users,
		resolver:          resolver,
		auditLogger:       auditLogger,
		authConfig:        authConfig,
		validate:          validator.New(validator.WithRequiredStructEnabled()),
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes. Everything past /health requires a verified bearer token,
	// and mutations additionally require the users.manage permission.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.With(h.RequirePermission(catalog.ResourceUsers, catalog.ActionView)).
			Get("/permissions", h.ListPermissions)

		r.Route("/roles", func(r chi.Router) {
			r.With(h.RequirePermission(catalog.ResourceUsers, catalog.ActionView)).
				Get("/", h.ListRoles)
			r.With(h.RequirePermission(catalog.ResourceUsers, catalog.ActionManage)).
				Post("/", h.CreateRole)

			r.Route("/{roleID}", func(r chi.Router) {
				r.With(h.RequirePermission(catalog.ResourceUsers, catalog.ActionView)).
					Get("/", h.GetRole)
				r.With(h.RequirePermission(catalog.ResourceUsers, catalog.ActionManage)).
					Patch("/", h.UpdateRole)
				r.With(h.RequirePermission(catalog.ResourceUsers, catalog.ActionManage)).
					Delete("/", h.DeleteRole)

				r.With(h.RequirePermission(catalog.ResourceUsers, catalog.ActionView)).
					Get("/members", h.ListMembers)
				r.With(h.RequirePermission(catalog.ResourceUsers, catalog.ActionManage)).
					Post("/members", h.AssignMember)
				r.With(h.RequirePermission(catalog.ResourceUsers, catalog.ActionManage)).
					Delete("/members/{userID}", h.UnassignMember)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.RequirePermission(catalog.ResourceUsers, catalog.ActionView))
			r.Get("/", h.ListUsers)
			r.Get("/{userID}/role", h.GetUserRole)
		})

		r.With(h.RequirePermission(catalog.ResourceUsers, catalog.ActionView)).
			Post("/authz/check", h.CheckPermission)
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "crewdeck",
	})
}

// respondDomainError maps domain errors to HTTP status codes. Unknown errors
// become opaque 500s; detail stays in the logs.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, role.ErrRoleNotFound):
		respondError(w, http.StatusNotFound, "role not found")
	case errors.Is(err, directory.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, role.ErrDuplicateRoleName):
		respondError(w, http.StatusConflict, "role name already in use")
	case errors.Is(err, role.ErrRoleHasMembers):
		respondError(w, http.StatusConflict, "role still has members")
	case errors.Is(err, role.ErrImmutableRole):
		respondError(w, http.StatusForbidden, "system roles cannot be modified")
	case errors.Is(err, role.ErrInvalidPermission):
		respondError(w, http.StatusBadRequest, "unknown resource or action")
	case errors.Is(err, membership.ErrNotAMember):
		respondError(w, http.StatusConflict, "user does not hold this role")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
