package investor

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sttalk999/sttalk/pkg/models"
	"github.com/sttalk999/sttalk/pkg/utils"
)

type Directory interface {
	ListInvestors(ctx context.Context, limit int) ([]models.Investor, error)
}

type Handler struct {
	directory Directory
}

func NewHandler(directory Directory) *Handler {
	return &Handler{directory: directory}
}

func (h *Handler) Register(g *echo.Group) {
	g.GET("/investors", h.ListInvestors)
}

type ListRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=500"`
}

// ListInvestors returns a page of the investor directory. Without a limit the
// directory's default page size applies.
func (h *Handler) ListInvestors(c echo.Context) error {
	req, err := utils.BindRequest[ListRequest](c)
	if err != nil {
		return err
	}

	investors, err := h.directory.ListInvestors(c.Request().Context(), req.Limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, investors)
}
