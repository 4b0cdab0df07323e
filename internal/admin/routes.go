package admin

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/plugctl/internal/auth"
	"github.com/danmuck/plugctl/internal/plugins"
	"github.com/danmuck/plugctl/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type loadRequest struct {
	Path string `json:"path"`
}

type setParamRequest struct {
	Value *string `json:"value"`
}

func (s *Server) RegisterRoutes() {
	r := s.router
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Started).String(),
			"plugins": s.reg.Len(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":   true,
			"uptime":  time.Since(s.Started).String(),
			"plugins": s.reg.Names(),
		})
	})

	r.GET("/plugins", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"plugins": s.reg.Snapshots()})
	})

	guard := auth.Require(s.validator)
	r.POST("/plugins", guard, s.handleLoad)

	plugin := r.Group("/plugins/:name")
	plugin.GET("", s.withPlugin(func(c *gin.Context, p *plugins.Plugin) {
		c.JSON(http.StatusOK, p.Snapshot())
	}))
	plugin.DELETE("", guard, func(c *gin.Context) {
		if err := s.reg.Unload(c.Param("name")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
	plugin.PUT("/params/:key", guard, s.withPlugin(s.handleSetParam))
	plugin.POST("/refresh", guard, s.withPlugin(s.handleRefresh))
	plugin.POST("/run", guard, s.withPlugin(s.handleRun))
	plugin.GET("/time", s.withPlugin(func(c *gin.Context, p *plugins.Plugin) {
		d, err := p.RunTime()
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"name": p.Name(), "last_run_ms": d.Milliseconds(), "last_run": d.String()})
	}))
	plugin.GET("/help", s.withPlugin(func(c *gin.Context, p *plugins.Plugin) {
		info, err := p.Info()
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"name": p.Name(), "info": info})
	}))
}

func (s *Server) withPlugin(h func(*gin.Context, *plugins.Plugin)) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := s.reg.Get(c.Param("name"))
		if err != nil {
			writeError(c, err)
			return
		}
		h(c, p)
	}
}

func (s *Server) handleLoad(c *gin.Context) {
	var req loadRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Path) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	p, err := s.reg.Load(strings.TrimSpace(req.Path))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p.Snapshot())
}

func (s *Server) handleSetParam(c *gin.Context, p *plugins.Plugin) {
	var req setParamRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}
	if err := p.SetParam(c.Param("key"), *req.Value); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": p.Name(), "params": p.Params()})
}

func (s *Server) handleRefresh(c *gin.Context, p *plugins.Plugin) {
	body := gin.H{"name": p.Name()}
	if err := p.RefreshParameters(); err != nil {
		if !errors.Is(err, protocol.ErrCountMismatch) {
			writeError(c, err)
			return
		}
		body["warning"] = err.Error()
	}
	body["params"] = p.Params()
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleRun(c *gin.Context, p *plugins.Plugin) {
	res, err := p.Run()
	if err != nil {
		writeError(c, err)
		return
	}
	body := gin.H{
		"name":       p.Name(),
		"run_id":     res.ID,
		"status":     res.Status,
		"ok":         !res.Failed(),
		"elapsed_ms": res.Elapsed.Milliseconds(),
	}
	if res.PushErr != nil {
		body["warning"] = res.PushErr.Error()
	}
	c.JSON(http.StatusOK, body)
}

// statusFor maps registry and binding errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, plugins.ErrNotFound), errors.Is(err, plugins.ErrUnknownParameter):
		return http.StatusNotFound
	case errors.Is(err, plugins.ErrAlreadyLoaded):
		return http.StatusConflict
	case errors.Is(err, plugins.ErrLoadFailure), errors.Is(err, plugins.ErrSymbolMissing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, protocol.ErrInvalidValue), errors.Is(err, protocol.ErrCapacityExceeded):
		return http.StatusBadRequest
	case errors.Is(err, plugins.ErrClosed):
		return http.StatusGone
	case errors.Is(err, plugins.ErrParamsRejected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
