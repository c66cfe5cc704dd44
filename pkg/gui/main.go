package gui

import (
	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batticon/pkg/gui/icontheme"
	"github.com/charlie0129/batticon/pkg/version"
)

// Tray is the status icon. It implements daemon.Display.
type Tray struct {
	clicks   chan struct{}
	icons    *icontheme.Cache
	mStatus  *systray.MenuItem
	mCommand *systray.MenuItem
	quit     chan struct{}
}

// Run initializes the tray and blocks until Quit is called. onReady is
// called once the tray is usable, onExit right before Run returns.
func Run(onReady func(t *Tray), onExit func()) {
	logrus.WithField("version", version.Version).WithField("gitCommit", version.GitCommit).Info("batticon tray")

	systray.Run(func() {
		t := newTray()
		go t.dispatch()
		onReady(t)
	}, func() {
		logrus.Debug("tray exiting")
		if onExit != nil {
			onExit()
		}
	})
}

// Quit stops the tray. It is safe to call from any goroutine.
func Quit() {
	systray.Quit()
}

func newTray() *Tray {
	systray.SetTitle(icontheme.FallbackTitle(""))
	systray.SetTooltip(loadingTooltip)

	mStatus := systray.AddMenuItem(loadingTooltip, "Current battery status")
	mStatus.Disable()

	systray.AddSeparator()
	mCommand := systray.AddMenuItem("Run Click Command", clickCommandTooltip)

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", quitTooltip)

	t := &Tray{
		clicks:   make(chan struct{}, 1),
		icons:    icontheme.NewCache(),
		mStatus:  mStatus,
		mCommand: mCommand,
		quit:     make(chan struct{}),
	}

	go func() {
		<-mQuit.ClickedCh
		close(t.quit)
		systray.Quit()
	}()

	return t
}

// dispatch forwards menu activations to Clicks. A click that arrives
// while the previous one is still pending is dropped.
func (t *Tray) dispatch() {
	for {
		select {
		case <-t.quit:
			return
		case <-t.mCommand.ClickedCh:
			select {
			case t.clicks <- struct{}{}:
			default:
				logrus.Debug("click dropped")
			}
		}
	}
}

// Clicks delivers user activations of the indicator.
func (t *Tray) Clicks() <-chan struct{} {
	return t.clicks
}

// Update shows tooltip and the themed icon named icon. When the theme has
// no such icon a text title is shown instead.
func (t *Tray) Update(tooltip, icon string) {
	systray.SetTooltip(tooltip)
	t.mStatus.SetTitle(tooltip)

	if b, ok := t.icons.Load(icon); ok {
		systray.SetIcon(b)
		systray.SetTitle("")
		return
	}
	systray.SetTitle(icontheme.FallbackTitle(icon))
}
