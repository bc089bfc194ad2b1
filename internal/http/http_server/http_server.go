package http_server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"drawcollab/internal/http/enhancehandler"
	"drawcollab/internal/room"
	"drawcollab/internal/ws"
)

type httpServer struct {
	listenHost string
	listenPort uint16
	srv        http.Server
	ln         net.Listener
	wsSrv      *ws.Server
	rooms      *room.Store
	enhanceH   *enhancehandler.Handler
	imageDir   string
	enhDir     string
	ctx        context.Context
}

func NewHttpServer(ctx context.Context, listenHost string, listenPort uint16, wsSrv *ws.Server, rooms *room.Store, enhanceH *enhancehandler.Handler, imageDir, enhancedDir string) *httpServer {
	return &httpServer{
		listenHost: listenHost,
		listenPort: listenPort,
		wsSrv:      wsSrv,
		rooms:      rooms,
		enhanceH:   enhanceH,
		imageDir:   imageDir,
		enhDir:     enhancedDir,
		ctx:        ctx,
	}
}

func (h *httpServer) Start() error {
	var err error
	listenAddr := fmt.Sprintf("%s:%d", h.listenHost, h.listenPort)
	h.ln, err = net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	zap.L().Info("listening", zap.String("addr", listenAddr))

	routerEngine := gin.New()
	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))

	// websocket endpoint: the collaboration coordinator
	routerEngine.GET("/ws", h.wsSrv.Handle)

	// canvas-image side channel
	h.enhanceH.Register(routerEngine)
	routerEngine.Static("/img", h.imageDir)
	routerEngine.Static("/enhanced_drawings", h.enhDir)

	// discovery + observability
	routerEngine.GET("/api/rooms", h.listRooms)
	routerEngine.GET("/api/stats", h.stats)

	h.srv = http.Server{
		Handler: routerEngine,
	}

	return h.srv.Serve(h.ln)
}

func (h *httpServer) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.rooms.PublicRooms()})
}

func (h *httpServer) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.wsSrv.Stats())
}

// Dispose gracefully shuts the HTTP server down.
// It waits up to 10 s for in-flight requests to finish. The timeout is
// anchored on a fresh context: by the time Dispose runs, h.ctx has
// already been canceled by the shutdown signal, and deriving from it
// would cut the grace period to zero.
func (h *httpServer) Dispose() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.srv.Shutdown(ctx); err != nil {
		zap.L().Error("http_dispose", zap.Error(err))
		return err
	}
	if ctx.Err() == context.DeadlineExceeded {
		zap.L().Error("http_dispose", zap.Error(errors.New("shutdown timed out")))
	}
	return nil
}
