package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/fuelgauge/pkg/config"
	"github.com/charlie0129/fuelgauge/pkg/events"
	"github.com/charlie0129/fuelgauge/pkg/publish"
)

// Daemon serves telemetry of one fuel gauge over HTTP.
type Daemon struct {
	// configPath is re-read on Reload.
	configPath string
	hub        *events.EventHub

	// openBus is replaced in tests.
	openBus busOpener

	// mu guards conf and gauge.
	mu    sync.RWMutex
	conf  config.Config
	gauge *gaugeHandle
}

// New returns a daemon for conf. Call StartGauge to begin polling.
func New(conf config.Config) *Daemon {
	return &Daemon{
		conf:    conf,
		hub:     events.NewEventHub(),
		openBus: openConfiguredBus,
	}
}

func (d *Daemon) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/config", d.getConfig)
	router.GET("/telemetry", d.getTelemetry)
	router.GET("/voltage", d.getVoltage)
	router.GET("/capacity", d.getCapacity)
	router.GET("/status", d.getStatus)
	router.GET("/ac-online", d.getACOnline)
	router.GET("/battery-info", d.getBatteryInfo)
	router.GET("/events", d.streamEvents)
	router.GET("/version", getVersion)

	return router
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	conf, err := config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	if err := conf.Validate(); err != nil {
		logrus.Fatalf("invalid config %s: %v", configPath, err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	d := New(conf)
	d.configPath = configPath
	router := d.setupRoutes()

	if err := d.StartGauge(); err != nil {
		logrus.Fatal(err)
	}

	ctx, cancelPublish := context.WithCancel(context.Background())
	defer cancelPublish()
	if conf.RedisEnabled() {
		r, err := publish.NewRedis(ctx, conf.RedisAddr(), conf.RedisKey(), conf.RedisChannel())
		if err != nil {
			// Telemetry is still served locally.
			logrus.Errorf("redis publishing disabled: %v", err)
		} else {
			defer func() {
				if err := r.Close(); err != nil {
					logrus.Errorf("failed to close redis client: %v", err)
				}
			}()
			go publish.Forward(ctx, d.hub.Subscribe(), r)
		}
	}

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			d.Reload()
		}
	}()

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Remove a stale socket left behind by an unclean exit.
	if _, err := os.Stat(unixSocketPath); err == nil {
		if err := os.Remove(unixSocketPath); err != nil {
			logrus.Fatalf("failed to remove stale socket %s: %v", unixSocketPath, err)
		}
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, chaning permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	// Ending SSE streams first lets Shutdown finish quickly.
	d.hub.Close()

	logrus.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	logrus.Info("stopping fuel gauge engine")
	d.StopGauge()

	logrus.Info("exiting")
	return nil
}

// Reload re-reads the config file and restarts the engine with it. An
// unreadable or invalid file leaves the current config and engine in place.
func (d *Daemon) Reload() {
	conf, err := config.NewFile(d.configPath)
	if err != nil {
		logrus.Errorf("failed to reload config: %v", err)
		return
	}
	if err := conf.Validate(); err != nil {
		logrus.Errorf("reloaded config is invalid, keeping current one: %v", err)
		return
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")

	d.StopGauge()

	d.mu.Lock()
	d.conf = conf
	d.mu.Unlock()

	if err := d.StartGauge(); err != nil {
		logrus.Errorf("failed to restart engine after reload: %v", err)
	}
}

func (d *Daemon) currentConfig() config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.conf
}
