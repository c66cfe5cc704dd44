package daemon

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batticon/pkg/config"
	"github.com/charlie0129/batticon/pkg/powersupply"
	"github.com/charlie0129/batticon/pkg/version"
)

func (s *Server) getStatus(c *gin.Context) {
	snap := s.monitor.Snapshot()
	if snap == nil {
		c.IndentedJSON(http.StatusServiceUnavailable, "no successful poll yet")
		return
	}
	c.IndentedJSON(http.StatusOK, snap)
}

func (s *Server) getPowerSupplies(c *gin.Context) {
	entries, err := powersupply.List(s.conf.SysfsPath())
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []powersupply.Entry{}
	}
	c.IndentedJSON(http.StatusOK, entries)
}

func (s *Server) getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(s.conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func (s *Server) getPolls(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.monitor.Recorder().GetRecordsString())
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

// streamEvents sends hub events as server-sent events until the client
// goes away.
func (s *Server) streamEvents(c *gin.Context) {
	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	logrus.Debug("events subscriber connected")
	defer logrus.Debug("events subscriber disconnected")

	// Send headers right away so clients know they are subscribed.
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Status(http.StatusOK)
	c.Writer.Flush()

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
}
