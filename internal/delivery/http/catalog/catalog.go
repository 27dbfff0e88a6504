package http_catalog

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	http_common "github.com/suprdory/filmvote/core/internal/delivery/http/common"
	usecase_catalog "github.com/suprdory/filmvote/core/internal/usecase/catalog"
)

type Controller struct {
	usecase *usecase_catalog.Usecase
	logger  *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(usecase *usecase_catalog.Usecase, opts ...ControllerOption) *Controller {
	c := &Controller{
		usecase: usecase,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/films", c.films)
}

// films serves the candidate list the host picks a pool from.
func (c *Controller) films(ctx *gin.Context) {
	films, err := c.usecase.Films(ctx)
	if err != nil {
		c.logger.Error("failed to load catalog", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.JSON(http.StatusOK, films)
}
