package outcome

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	leaderrepo "github.com/Ramsey-B/clover/internal/repositories/leader"
	outcomerepo "github.com/Ramsey-B/clover/internal/repositories/outcome"
	"github.com/Ramsey-B/clover/pkg/models"
)

var validate = validator.New()

// Register registers outcome review routes
func Register(g *echo.Group) {
	g.GET("", ListOutcomes)
	g.POST("/backfill", BackfillContacts)
}

// ListOutcomes lists outcomes filtered by action; defaults to the review queue
func ListOutcomes(c echo.Context) error {
	ctx := c.Request().Context()

	action := models.Action(c.QueryParam("action"))
	if action == "" {
		action = models.ActionReview
	}

	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	ctx, repo, err := ectoinject.GetContext[*outcomerepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	outcomes, err := repo.ListByAction(ctx, action, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, outcomes)
}

// BackfillRequest asks for contact fields to be copied from a kept sibling
// onto a duplicate record, per the duplicate report
type BackfillRequest struct {
	TargetID  string `json:"target_id" validate:"required,uuid4"`
	SiblingID string `json:"sibling_id" validate:"required,uuid4"`
}

// BackfillContacts applies a contact backfill decided by the review tooling
func BackfillContacts(c echo.Context) error {
	ctx := c.Request().Context()

	var req BackfillRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*leaderrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.BackfillContacts(ctx, req.TargetID, req.SiblingID); err != nil {
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithFields(map[string]any{
			"target_id":  req.TargetID,
			"sibling_id": req.SiblingID,
		}).Info("Backfilled contact fields")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "backfilled"})
}
