package daemon

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/fuelgauge/pkg/config"
	"github.com/charlie0129/fuelgauge/pkg/engine"
	"github.com/charlie0129/fuelgauge/pkg/gauge"
	"github.com/charlie0129/fuelgauge/pkg/types"
	"github.com/charlie0129/fuelgauge/pkg/version"
)

// recentWindow is how far back RecentCycles looks.
const recentWindow = 4 * time.Minute

func (d *Daemon) getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(d.currentConfig())
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

// query reads the current snapshot, aborting with 503 if no engine is
// running.
func (d *Daemon) query(c *gin.Context) (*gaugeHandle, gauge.Snapshot, bool) {
	g := d.current()
	if g == nil {
		c.IndentedJSON(http.StatusServiceUnavailable, engine.ErrEngineNotStarted.Error())
		_ = c.AbortWithError(http.StatusServiceUnavailable, engine.ErrEngineNotStarted)
		return nil, gauge.Snapshot{}, false
	}

	s, err := g.engine.Query()
	if err != nil {
		c.IndentedJSON(http.StatusServiceUnavailable, err.Error())
		_ = c.AbortWithError(http.StatusServiceUnavailable, err)
		return nil, gauge.Snapshot{}, false
	}

	return g, s, true
}

func (d *Daemon) getTelemetry(c *gin.Context) {
	g, s, ok := d.query(c)
	if !ok {
		return
	}

	c.IndentedJSON(http.StatusOK, types.Telemetry{
		Device:         g.engine.Name(),
		EngineState:    g.engine.State().String(),
		PollIntervalMs: g.engine.Interval().Milliseconds(),
		Snapshot:       s,
		ACOnline:       s.ACOnline(),
		Stats:          g.engine.Stats(),
		RecentCycles:   g.recorder.ContinuousIn(recentWindow, time.Now()),
	})
}

func (d *Daemon) getVoltage(c *gin.Context) {
	_, s, ok := d.query(c)
	if !ok {
		return
	}
	c.IndentedJSON(http.StatusOK, s.Decoded.VoltageMV)
}

func (d *Daemon) getCapacity(c *gin.Context) {
	_, s, ok := d.query(c)
	if !ok {
		return
	}
	c.IndentedJSON(http.StatusOK, s.Decoded.CapacityPct)
}

func (d *Daemon) getStatus(c *gin.Context) {
	_, s, ok := d.query(c)
	if !ok {
		return
	}
	c.IndentedJSON(http.StatusOK, s.Status)
}

func (d *Daemon) getACOnline(c *gin.Context) {
	_, s, ok := d.query(c)
	if !ok {
		return
	}
	c.IndentedJSON(http.StatusOK, s.ACOnline())
}

func (d *Daemon) getBatteryInfo(c *gin.Context) {
	_, s, ok := d.query(c)
	if !ok {
		return
	}
	c.IndentedJSON(http.StatusOK, types.NewBatteryInfo(s))
}

// streamEvents relays hub events to the client as server-sent events
// until the client goes away or the hub is closed.
func (d *Daemon) streamEvents(c *gin.Context) {
	ch := d.hub.Subscribe()
	defer d.hub.Unsubscribe(ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	// Send headers right away so clients see the stream open.
	c.Status(http.StatusOK)
	c.Writer.Flush()

	logrus.Debug("event stream client connected")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		}
	})
	logrus.Debug("event stream client disconnected")
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
