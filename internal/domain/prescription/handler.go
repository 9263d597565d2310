package prescription

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/drkhoa/clinic/internal/platform/apperr"
	"github.com/drkhoa/clinic/internal/platform/auth"
	"github.com/drkhoa/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	desk := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleDoctor))
	desk.GET("/prescriptions", h.ListPrescriptions)
	desk.GET("/prescriptions/queue", h.TodayQueue)
	desk.GET("/prescriptions/:id", h.GetPrescription)
	desk.PATCH("/prescriptions/:id/printed", h.MarkPrinted)

	doctor := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctor.POST("/prescriptions", h.CreatePrescription)
	doctor.PUT("/prescriptions/:id", h.EditPrescription)
}

// finalizeResponse is what clients resume from after a partial failure.
type finalizeResponse struct {
	PrescriptionID uuid.UUID `json:"prescription_id,omitempty"`
	Completed      []string  `json:"completed"`
	FailedStep     string    `json:"failed_step,omitempty"`
	Error          string    `json:"error,omitempty"`
}

func finalizeError(c echo.Context, result *FinalizeResult, err error) error {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		status := http.StatusInternalServerError
		if errors.Is(err, apperr.ErrNotFound) {
			status = http.StatusNotFound
		}
		return c.JSON(status, finalizeResponse{
			PrescriptionID: result.PrescriptionID,
			Completed:      result.Completed,
			FailedStep:     stepErr.Step,
			Error:          stepErr.Err.Error(),
		})
	}
	if apperr.IsValidation(err) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	var req FinalizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.Create(c.Request().Context(), &req)
	if err != nil {
		return finalizeError(c, result, err)
	}
	return c.JSON(http.StatusCreated, finalizeResponse{
		PrescriptionID: result.PrescriptionID,
		Completed:      result.Completed,
	})
}

func (h *Handler) EditPrescription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req FinalizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Prescription == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "prescription is required")
	}
	req.Prescription.ID = id
	result, err := h.svc.Edit(c.Request().Context(), &req)
	if err != nil {
		return finalizeError(c, result, err)
	}
	return c.JSON(http.StatusOK, finalizeResponse{
		PrescriptionID: result.PrescriptionID,
		Completed:      result.Completed,
	})
}

func (h *Handler) GetPrescription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, lines, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"prescription": p,
		"lines":        lines,
	})
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.Search(c.Request().Context(), c.QueryParam("query"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) TodayQueue(c echo.Context) error {
	queue, err := h.svc.TodayQueue(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, queue)
}

func (h *Handler) MarkPrinted(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.MarkPrinted(c.Request().Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusOK)
}
