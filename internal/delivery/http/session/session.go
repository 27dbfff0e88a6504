package http_session

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	http_common "github.com/suprdory/filmvote/core/internal/delivery/http/common"
	"github.com/suprdory/filmvote/core/internal/model"
	usecase_registry "github.com/suprdory/filmvote/core/internal/usecase/registry"
)

type Controller struct {
	registry *usecase_registry.Registry
	logger   *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(registry *usecase_registry.Registry, opts ...ControllerOption) *Controller {
	c := &Controller{
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/sessions")
	{
		sessions.POST("", c.book)
		sessions.GET("/:code/status", c.status)
	}
}

type BookResponseDTO struct {
	SessionCode string `json:"session_code"`
}

// book reserves a fresh code ahead of the websocket connection. The host
// token rides in a header so it never lands in access logs.
func (c *Controller) book(ctx *gin.Context) {
	sess, _ := c.registry.GetOrCreate(model.EmptySessionCode)

	ctx.Header("X-host-token", sess.HostID())
	ctx.JSON(http.StatusCreated, BookResponseDTO{
		SessionCode: string(sess.Code()),
	})
}

type StatusResponseDTO struct {
	Status string `json:"status"`
}

func (c *Controller) status(ctx *gin.Context) {
	code := model.SessionCode(ctx.Param("code"))

	sess, ok := c.registry.Get(code)
	if !ok {
		ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
			Message: "not found",
		})
		return
	}

	ctx.JSON(http.StatusOK, StatusResponseDTO{
		Status: sess.Status(),
	})
}
