// Package api is the thin control surface over the poll pipeline:
// trigger polls, check agent status, and validate device configuration
// before saving it. All real work happens in poller and reconcile.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/load"
	"github.com/shirou/gopsutil/mem"
	"go.uber.org/zap"

	"github.com/nanoncore/nano-fleetmon/poller"
	"github.com/nanoncore/nano-fleetmon/store"
	"github.com/nanoncore/nano-fleetmon/types"
)

// Server hosts the HTTP control surface.
type Server struct {
	echo    *echo.Echo
	store   store.Store
	orch    *poller.Orchestrator
	fleet   *poller.Fleet
	log     *zap.Logger
	started time.Time
}

func NewServer(st store.Store, orch *poller.Orchestrator, fleet *poller.Fleet, log *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:    e,
		store:   st,
		orch:    orch,
		fleet:   fleet,
		log:     log,
		started: time.Now(),
	}

	e.POST("/api/poll/:id", s.pollDevice)
	e.POST("/api/poll-all", s.pollAll)
	e.GET("/api/status", s.status)
	e.POST("/api/test-connection", s.testConnection)
	e.POST("/api/onu-command/:id", s.onuCommand)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) pollDevice(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid device id")
	}
	device, err := s.store.Device(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	res, err := s.orch.PollDevice(c.Request().Context(), device)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]any{
			"device_id": id,
			"error":     err.Error(),
		})
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) pollAll(c echo.Context) error {
	// Fleet polls can run for minutes; detach from the request.
	go func() {
		if _, err := s.fleet.PollAll(context.Background()); err != nil {
			s.log.Error("fleet poll failed", zap.Error(err))
		}
	}()
	return c.JSON(http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) status(c echo.Context) error {
	ctx := c.Request().Context()
	devices, err := s.store.Devices(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	payload := map[string]any{
		"uptime_sec": int64(time.Since(s.started).Seconds()),
		"devices":    len(devices),
	}
	if info, err := host.Info(); err == nil {
		payload["hostname"] = info.Hostname
		payload["os"] = info.Platform
		payload["host_uptime_sec"] = info.Uptime
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		payload["mem_used_percent"] = vm.UsedPercent
	}
	if avg, err := load.Avg(); err == nil {
		payload["load1"] = avg.Load1
	}
	return c.JSON(http.StatusOK, payload)
}

// onuCommandRequest targets terminals on one device for a maintenance
// action.
type onuCommandRequest struct {
	Action  string             `json:"action"`
	Targets []poller.ONUTarget `json:"targets"`
}

func (s *Server) onuCommand(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid device id")
	}
	var req onuCommandRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Targets) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one target is required")
	}

	device, err := s.store.Device(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	res, err := s.orch.ONUCommand(c.Request().Context(), device, poller.ONUAction(req.Action), req.Targets)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

// testConnectionRequest mirrors the device form fields needed to try a
// connection before the row is saved.
type testConnectionRequest struct {
	Brand          string `json:"brand"`
	Mode           string `json:"mode"`
	Address        string `json:"address"`
	Port           int    `json:"port"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	SNMPCommunity  string `json:"snmp_community"`
	RouterAddress  string `json:"router_address"`
	RouterPort     int    `json:"router_port"`
	RouterUsername string `json:"router_username"`
	RouterPassword string `json:"router_password"`
	RouterTLS      bool   `json:"router_tls"`
}

func (s *Server) testConnection(c echo.Context) error {
	var req testConnectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Address == "" || req.Brand == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "address and brand are required")
	}

	device := types.DeviceConfig{
		Name:          req.Address,
		Brand:         types.Brand(req.Brand),
		Mode:          types.Mode(req.Mode),
		Address:       req.Address,
		Port:          req.Port,
		Username:      req.Username,
		Password:      req.Password,
		SNMPCommunity: req.SNMPCommunity,
	}
	if req.RouterAddress != "" {
		device.Router = &types.RouterConfig{
			Address:  req.RouterAddress,
			Port:     req.RouterPort,
			Username: req.RouterUsername,
			Password: req.RouterPassword,
			UseTLS:   req.RouterTLS,
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Minute)
	defer cancel()
	method, err := s.orch.TestConnection(ctx, device)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]any{
			"ok":     false,
			"method": method,
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"ok":     true,
		"method": method,
	})
}
