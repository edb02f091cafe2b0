package run

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	outcomerepo "github.com/Ramsey-B/clover/internal/repositories/outcome"
	"github.com/Ramsey-B/clover/pkg/runner"
)

// Register registers reconciliation run routes
func Register(g *echo.Group) {
	g.POST("", TriggerRun)
	g.GET("/:id/report", GetRunReport)
}

// TriggerRun executes a reconciliation batch synchronously and returns its summary
func TriggerRun(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, r, err := ectoinject.GetContext[*runner.Runner](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	summary, err := r.Run(ctx)
	if err != nil {
		ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
		if logger != nil {
			logger.WithContext(ctx).WithError(err).Error("Reconciliation run failed")
		}
		return httperror.NewHTTPError(http.StatusInternalServerError, "reconciliation run failed")
	}

	return c.JSON(http.StatusOK, summary)
}

// GetRunReport returns the persisted outcomes of a run
func GetRunReport(c echo.Context) error {
	ctx := c.Request().Context()

	runID := c.Param("id")
	if runID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "run id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*outcomerepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	outcomes, err := repo.ListByRun(ctx, runID)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "no outcomes for run "+runID)
	}

	return c.JSON(http.StatusOK, outcomes)
}
