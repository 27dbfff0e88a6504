package ws_session

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/suprdory/filmvote/core/internal/model"
	usecase_registry "github.com/suprdory/filmvote/core/internal/usecase/registry"
)

type Controller struct {
	hub      *Hub
	registry *usecase_registry.Registry

	defaultHybridThreshold int

	upgrader websocket.Upgrader
	logger   *slog.Logger
}

type ControllerOption func(*Controller)

func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func NewController(hub *Hub, registry *usecase_registry.Registry, defaultHybridThreshold int, opts ...ControllerOption) *Controller {
	c := &Controller{
		hub:                    hub,
		registry:               registry,
		defaultHybridThreshold: defaultHybridThreshold,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws/:code", c.serve)
}

// serve upgrades the connection and binds it to the session named in the
// path. The first connection to an unknown code creates the session and is
// handed the host token straight away.
func (c *Controller) serve(ctx *gin.Context) {
	code := model.SessionCode(ctx.Param("code"))

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error("websocket upgrade failed", "session", code, "error", err)
		return
	}

	sess, created := c.registry.GetOrCreate(code)
	client := NewClient(c.hub, conn, sess, c.defaultHybridThreshold, c.logger)

	c.hub.Register(client)
	sess.Attach()

	if created {
		client.BecomeHost()
	}

	go client.WritePump()
	go client.ReadPump()
}
