package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abogadai/abogadai/app/repository"
	"github.com/abogadai/abogadai/internal/pkg/cleanup"
	"github.com/abogadai/abogadai/internal/pkg/evidence"
	"github.com/abogadai/abogadai/internal/pkg/mail"
	"github.com/abogadai/abogadai/internal/pkg/middleware"
	"github.com/abogadai/abogadai/internal/pkg/payments"
	"github.com/abogadai/abogadai/internal/pkg/refunds"
	"github.com/abogadai/abogadai/internal/pkg/tasks"
	"github.com/abogadai/abogadai/internal/pkg/tiering"
	"github.com/abogadai/abogadai/internal/pkg/usage"
)

// APIServer holds the service layer behind the v1 JSON API.
type APIServer struct {
	repos    *repository.Repositories
	tiers    *tiering.Service
	tracker  *usage.Tracker
	refunds  *refunds.Service
	payments *payments.Service
	sweeper  *cleanup.Sweeper
	runner   *tasks.Runner
	evidence *evidence.Store
}

// NewAPIServer creates a new API server instance wired against the global
// repository factory.
func NewAPIServer() (*APIServer, error) {
	repos := repository.GetGlobalRepositories()

	tiers := tiering.NewService(repos.User, repos.Payment)
	tracker := usage.NewTracker(repos.User, repos.Usage)
	sweeper := cleanup.NewSweeper(repos.Case, repos.Usage)

	store, err := evidence.NewStore()
	if err != nil {
		return nil, err
	}

	return &APIServer{
		repos:    repos,
		tiers:    tiers,
		tracker:  tracker,
		refunds:  refunds.NewService(repos.Case, repos.Payment, repos.User, mail.NewRefundNotifier()),
		payments: payments.NewService(repos.Case, repos.Payment, tiers, tracker),
		sweeper:  sweeper,
		runner:   tasks.NewRunner(tiers, tracker, sweeper),
		evidence: store,
	}, nil
}

// RegisterHandlers attaches all v1 routes to the given router group.
func RegisterHandlers(r fiber.Router, s *APIServer) {
	r.Get("/ping", s.GetPing)

	auth := r.Group("/auth")
	auth.Post("/register", s.PostRegister)
	auth.Post("/login", s.PostLogin)

	// Machine-to-machine surface (voice agent, payment callback).
	r.Post("/messages", middleware.WebhookAuthMiddleware(), s.PostMessage)
	r.Post("/payments/:reference/complete", middleware.WebhookAuthMiddleware(), s.PostCompletePayment)

	// Everything below requires a logged-in user.
	protected := r.Group("", middleware.JWTAuthMiddleware())

	protected.Get("/me", s.GetMe)
	protected.Get("/me/limits", s.GetMyLimits)

	protected.Post("/cases", s.PostCase)
	protected.Get("/cases", s.GetCases)
	protected.Get("/cases/:id", s.GetCase)
	protected.Put("/cases/:id", s.PutCase)
	protected.Post("/cases/:id/generate", s.PostGenerateCase)
	protected.Post("/cases/:id/abandon", s.PostAbandonCase)
	protected.Delete("/cases/:id", s.DeleteCase)
	protected.Get("/cases/:id/messages", s.GetCaseMessages)

	protected.Get("/usage/today", s.GetUsageToday)
	protected.Post("/usage/sessions", s.PostStartSession)
	protected.Post("/usage/sessions/minutes", s.PostAddMinutes)

	protected.Post("/payments", s.PostPayment)
	protected.Get("/payments", s.GetPayments)

	protected.Post("/cases/:id/refund", s.PostRefundRequest)
	protected.Get("/cases/:id/refund/history", s.GetRefundHistory)

	protected.Post("/uploads/evidence", s.PostEvidenceUpload)

	admin := protected.Group("/admin", middleware.RequireAdmin)
	admin.Post("/cases/:id/refund/decision", s.PostRefundDecision)
	admin.Get("/refunds/pending", s.GetPendingRefunds)
	admin.Get("/users", s.GetAdminUsers)
	admin.Get("/stats", s.GetAdminStats)
	admin.Post("/tasks/:name", s.PostRunTask)
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Pong{Ping: "pong"})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": message})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": message})
}

func conflict(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": message})
}

func unprocessable(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "unprocessable", "message": message})
}

func internalError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": message})
}
