package client

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batticon/pkg/config"
	"github.com/charlie0129/batticon/pkg/events"
	"github.com/charlie0129/batticon/pkg/powerinfo"
	"github.com/charlie0129/batticon/pkg/powersupply"
)

func (c *Client) GetStatus() (*powerinfo.Snapshot, error) {
	ret, err := c.Get("/status")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get status")
	}

	var snap powerinfo.Snapshot
	if err := json.Unmarshal([]byte(ret), &snap); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal status")
	}
	return &snap, nil
}

func (c *Client) GetPowerSupplies() ([]powersupply.Entry, error) {
	ret, err := c.Get("/power-supplies")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get power supplies")
	}

	var entries []powersupply.Entry
	if err := json.Unmarshal([]byte(ret), &entries); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal power supplies")
	}
	return entries, nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}
	return &conf, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}

	var v string
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal version")
	}
	return v, nil
}

// SubscribeEvents follows the event stream until ctx is done or the
// connection drops. The returned channel is closed afterwards.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan events.Event, error) {
	resp, err := c.do(ctx, "/events")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to subscribe to events")
	}
	if resp.StatusCode != 200 {
		_ = resp.Body.Close()
		return nil, pkgerrors.Errorf("failed to subscribe to events: got %d", resp.StatusCode)
	}

	ch := make(chan events.Event)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanEvents(resp.Body, func(ev events.Event) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		})
		logrus.Debug("event stream closed")
	}()

	return ch, nil
}

// scanEvents parses a text/event-stream and calls fn for every event until
// fn returns false or r ends. Only the event and data fields are used.
func scanEvents(r io.Reader, fn func(events.Event) bool) {
	sc := bufio.NewScanner(r)

	var ev events.Event
	var data []string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if ev.Name != "" || len(data) > 0 {
				ev.Data = []byte(strings.Join(data, "\n"))
				if !fn(ev) {
					return
				}
			}
			ev, data = events.Event{}, nil
		case strings.HasPrefix(line, "event:"):
			ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
}
