package apiv1

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/abogadai/abogadai/app/models"
	"github.com/abogadai/abogadai/internal/pkg/tasks"
)

// PostRefundDecision decides a pending refund request.
func (s *APIServer) PostRefundDecision(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "Invalid case id")
	}

	var req RefundDecisionBody
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	if !req.Approve && req.Comment == "" {
		return unprocessable(c, "A rejection needs a comment")
	}

	result, err := s.refunds.ProcessRefund(uint(id), req.Approve, req.Comment)
	if err != nil {
		return refundError(c, err)
	}
	return c.JSON(result)
}

// GetPendingRefunds lists cases with an undecided refund request.
func (s *APIServer) GetPendingRefunds(c *fiber.Ctx) error {
	cases, err := s.repos.Case.ListPendingRefunds()
	if err != nil {
		return internalError(c, "Failed to load pending refunds")
	}
	return c.JSON(fiber.Map{"pending": cases, "count": len(cases)})
}

// GetAdminUsers pages through all registered users.
func (s *APIServer) GetAdminUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	users, err := s.repos.User.List((page-1)*limit, limit)
	if err != nil {
		return internalError(c, "Failed to load users")
	}
	total, err := s.repos.User.Count()
	if err != nil {
		return internalError(c, "Failed to load users")
	}

	infos := make([]UserInfo, len(users))
	for i := range users {
		infos[i] = userInfo(&users[i])
	}
	return c.JSON(fiber.Map{"users": infos, "total": total, "page": page, "limit": limit})
}

// GetAdminStats returns platform counters plus the current sweep candidates.
func (s *APIServer) GetAdminStats(c *fiber.Ctx) error {
	users, err := s.repos.User.Count()
	if err != nil {
		return internalError(c, "Failed to load stats")
	}

	byStatus := make(map[string]int64, 5)
	for _, status := range []string{
		models.CaseStatusTemporary,
		models.CaseStatusGenerated,
		models.CaseStatusPaid,
		models.CaseStatusRefunded,
		models.CaseStatusAbandoned,
	} {
		n, err := s.repos.Case.CountByStatus(status)
		if err != nil {
			return internalError(c, "Failed to load stats")
		}
		byStatus[status] = n
	}

	cleanupStats, err := s.sweeper.Stats()
	if err != nil {
		return internalError(c, "Failed to load stats")
	}

	return c.JSON(fiber.Map{
		"users":           users,
		"cases_by_status": byStatus,
		"cleanup":         cleanupStats,
	})
}

// PostRunTask triggers one of the scheduled batches by hand. The same entry
// points the cmd/tasks CLI exposes to cron.
func (s *APIServer) PostRunTask(c *fiber.Ctx) error {
	var results []tasks.Result
	switch c.Params("name") {
	case "midnight":
		results = s.runner.Midnight()
	case "cleanup":
		results = s.runner.Cleanup()
	case "all":
		results = s.runner.RunAll()
	default:
		return notFound(c, "Unknown task")
	}

	return c.JSON(fiber.Map{
		"success": tasks.Succeeded(results),
		"results": results,
	})
}
