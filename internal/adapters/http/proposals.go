package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tjtransit/rutas/internal/core/domain"
	"github.com/tjtransit/rutas/internal/pkg/metrics"
)

// ProposeRouteHandler submits a route for review. Any authenticated user
// may propose; the route stays off the map until approved.
func ProposeRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var route domain.Route
		if err := c.BodyParser(&route); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if route.From == "" || route.To == "" {
			return errBadRequest(c, "from and to are required")
		}

		user := sessionUser(c)
		proposal, err := deps.Proposals.Propose(c.UserContext(), route, user.Email)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		metrics.ProposalsSubmitted.Inc()
		return c.Status(201).JSON(proposal)
	}
}

// ListPendingProposalsHandler returns the review queue. Admin only.
func ListPendingProposalsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		proposals, err := deps.Proposals.ListPending(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}
		if proposals == nil {
			proposals = []domain.Proposal{}
		}
		return c.JSON(proposals)
	}
}

// GetProposalHandler returns a single proposal. Admin only.
func GetProposalHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "proposal id is required")
		}
		proposal, err := deps.Proposals.GetByID(c.UserContext(), id)
		if err != nil {
			return errNotFound(c, "proposal not found")
		}
		return c.JSON(proposal)
	}
}

// UpdateProposalHandler edits a pending proposal's route before review.
// Admin only.
func UpdateProposalHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "proposal id is required")
		}

		var route domain.Route
		if err := c.BodyParser(&route); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		proposal, err := deps.Proposals.UpdatePending(c.UserContext(), id, route)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "proposal not found")
			}
			return errConflict(c, err.Error())
		}
		return c.JSON(proposal)
	}
}

// ApproveProposalHandler approves a pending proposal and promotes its
// route. Admin only; a second review attempt is a conflict.
func ApproveProposalHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "proposal id is required")
		}

		user := sessionUser(c)
		proposal, err := deps.Proposals.Approve(c.UserContext(), id, user.Email)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "proposal not found")
			}
			return errConflict(c, err.Error())
		}
		metrics.ProposalsReviewed.WithLabelValues("approved").Inc()
		return c.JSON(proposal)
	}
}

// RejectProposalHandler rejects a pending proposal with a reason. Admin
// only.
func RejectProposalHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "proposal id is required")
		}

		var body struct {
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if body.Reason == "" {
			return errBadRequest(c, "reason is required")
		}

		user := sessionUser(c)
		proposal, err := deps.Proposals.Reject(c.UserContext(), id, user.Email, body.Reason)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "proposal not found")
			}
			return errConflict(c, err.Error())
		}
		metrics.ProposalsReviewed.WithLabelValues("rejected").Inc()
		return c.JSON(proposal)
	}
}
