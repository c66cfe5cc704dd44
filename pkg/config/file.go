package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/charlie0129/batticon/pkg/sysfs"
	"github.com/charlie0129/batticon/pkg/utils/ptr"
)

const (
	NotifierNotifySend = "notify-send"
	NotifierDBus       = "dbus"
)

var (
	defaultFileConfig = &RawFileConfig{
		UpdateInterval:    ptr.To(5),
		LowLevel:          ptr.To(20),
		CriticalLevel:     ptr.To(5),
		HideNotifications: ptr.To(false),
		LeftClickCommand:  ptr.To(""),
		Notifier:          ptr.To(NotifierNotifySend),
		StatusSocket:      ptr.To(""),
		SysfsPath:         ptr.To(sysfs.DefaultRoot),
	}
)

var _ Config = &File{}

type File struct {
	c  *RawFileConfig
	mu *sync.RWMutex
	// loadMu serializes Load. Each Load reads through its own viper
	// instance; watcher is only touched by viper's watch goroutine.
	loadMu   *sync.Mutex
	watcher  *viper.Viper
	filepath string
}

// RawFileConfig is the on-disk configuration. Unset fields fall back to
// defaults.
type RawFileConfig struct {
	// UpdateInterval is in seconds.
	UpdateInterval    *int    `json:"updateInterval,omitempty" yaml:"updateInterval,omitempty" toml:"updateInterval,omitempty" mapstructure:"updateInterval"`
	LowLevel          *int    `json:"lowLevel,omitempty" yaml:"lowLevel,omitempty" toml:"lowLevel,omitempty" mapstructure:"lowLevel"`
	CriticalLevel     *int    `json:"criticalLevel,omitempty" yaml:"criticalLevel,omitempty" toml:"criticalLevel,omitempty" mapstructure:"criticalLevel"`
	HideNotifications *bool   `json:"hideNotifications,omitempty" yaml:"hideNotifications,omitempty" toml:"hideNotifications,omitempty" mapstructure:"hideNotifications"`
	LeftClickCommand  *string `json:"leftClickCommand,omitempty" yaml:"leftClickCommand,omitempty" toml:"leftClickCommand,omitempty" mapstructure:"leftClickCommand"`
	Notifier          *string `json:"notifier,omitempty" yaml:"notifier,omitempty" toml:"notifier,omitempty" mapstructure:"notifier"`
	StatusSocket      *string `json:"statusSocket,omitempty" yaml:"statusSocket,omitempty" toml:"statusSocket,omitempty" mapstructure:"statusSocket"`
	SysfsPath         *string `json:"sysfsPath,omitempty" yaml:"sysfsPath,omitempty" toml:"sysfsPath,omitempty" mapstructure:"sysfsPath"`
}

func NewFile(configPath string) (*File, error) {
	f := NewFileFromConfig(&RawFileConfig{}, configPath)
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	return &File{
		c:        c,
		mu:       &sync.RWMutex{},
		loadMu:   &sync.Mutex{},
		watcher:  newReader(configPath),
		filepath: configPath,
	}
}

func newReader(configPath string) *viper.Viper {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType(configType(configPath))
	}
	return v
}

func configType(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	switch ext {
	case "json", "toml", "yaml", "yml":
		return ext
	default:
		return "yaml"
	}
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	return &RawFileConfig{
		UpdateInterval:    ptr.To(int(c.UpdateInterval() / time.Second)),
		LowLevel:          ptr.To(c.LowLevel()),
		CriticalLevel:     ptr.To(c.CriticalLevel()),
		HideNotifications: ptr.To(c.HideNotifications()),
		LeftClickCommand:  ptr.To(c.LeftClickCommand()),
		Notifier:          ptr.To(c.Notifier()),
		StatusSocket:      ptr.To(c.StatusSocket()),
		SysfsPath:         ptr.To(c.SysfsPath()),
	}, nil
}

func orDefault[T any](v, def *T) T {
	if v != nil {
		return *v
	}
	return *def
}

func (f *File) UpdateInterval() time.Duration {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return time.Duration(orDefault(f.c.UpdateInterval, defaultFileConfig.UpdateInterval)) * time.Second
}

func (f *File) LowLevel() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return orDefault(f.c.LowLevel, defaultFileConfig.LowLevel)
}

func (f *File) CriticalLevel() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return orDefault(f.c.CriticalLevel, defaultFileConfig.CriticalLevel)
}

func (f *File) HideNotifications() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return orDefault(f.c.HideNotifications, defaultFileConfig.HideNotifications)
}

func (f *File) LeftClickCommand() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return orDefault(f.c.LeftClickCommand, defaultFileConfig.LeftClickCommand)
}

func (f *File) Notifier() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return orDefault(f.c.Notifier, defaultFileConfig.Notifier)
}

func (f *File) StatusSocket() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return orDefault(f.c.StatusSocket, defaultFileConfig.StatusSocket)
}

func (f *File) SysfsPath() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return orDefault(f.c.SysfsPath, defaultFileConfig.SysfsPath)
}

func (f *File) SetUpdateInterval(d time.Duration) {
	if d < time.Second {
		panic("update interval must be at least 1 second")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.UpdateInterval = ptr.To(int(d / time.Second))
}

func (f *File) SetLowLevel(i int) {
	if i < 0 || i > 100 || i < f.CriticalLevel() {
		panic("low level must be between critical level and 100")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.LowLevel = &i
}

func (f *File) SetCriticalLevel(i int) {
	if i < 0 || i > f.LowLevel() {
		panic("critical level must be between 0 and low level")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.CriticalLevel = &i
}

func (f *File) SetHideNotifications(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.HideNotifications = &b
}

func (f *File) SetLeftClickCommand(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.LeftClickCommand = &s
}

// Validate checks c after defaults are applied.
func Validate(c Config) error {
	low, critical := c.LowLevel(), c.CriticalLevel()
	if low < 0 || low > 100 {
		return pkgerrors.Errorf("low level must be between 0 and 100, got %d", low)
	}
	if critical < 0 || critical > low {
		return pkgerrors.Errorf("critical level must be between 0 and low level %d, got %d", low, critical)
	}
	if c.UpdateInterval() < time.Second {
		return pkgerrors.Errorf("update interval must be at least 1 second, got %s", c.UpdateInterval())
	}
	switch c.Notifier() {
	case NotifierNotifySend, NotifierDBus:
	default:
		return pkgerrors.Errorf("unknown notifier %q", c.Notifier())
	}
	return nil
}

func (f *File) Load() error {
	if f.filepath == "" {
		return nil
	}

	f.loadMu.Lock()
	defer f.loadMu.Unlock()

	v := newReader(f.filepath)
	err := v.ReadInConfig()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// If the file does not exist, keep the defaults.
			// Do not make f.c a nil.
			f.mu.Lock()
			f.c = &RawFileConfig{}
			f.mu.Unlock()
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to read config file %s", f.filepath)
	}

	conf := RawFileConfig{}
	err = v.Unmarshal(&conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	prev := f.c
	f.c = &conf
	if err := validateLocked(f); err != nil {
		f.c = prev
		return pkgerrors.Wrapf(err, "invalid config in file %s", f.filepath)
	}

	return nil
}

// validateLocked runs Validate while f.mu is held for writing.
func validateLocked(f *File) error {
	snapshot := &File{c: f.c, mu: &sync.RWMutex{}, loadMu: &sync.Mutex{}}
	return Validate(snapshot)
}

func (f *File) Save() error {
	if f.filepath == "" {
		return pkgerrors.New("no config file path")
	}

	raw, err := NewRawFileConfigFromConfig(f)
	if err != nil {
		return err
	}

	b, err := encode(raw, configType(f.filepath))
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config for file %s", f.filepath)
	}

	f.loadMu.Lock()
	defer f.loadMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.filepath), 0o755); err != nil {
		return pkgerrors.Wrapf(err, "failed to create config directory for %s", f.filepath)
	}
	if err := os.WriteFile(f.filepath, b, 0o644); err != nil {
		return pkgerrors.Wrapf(err, "failed to write config to file %s", f.filepath)
	}

	return nil
}

// encode marshals c in the given format, keeping the camelCase keys of
// the struct tags.
func encode(c *RawFileConfig, typ string) ([]byte, error) {
	switch typ {
	case "json":
		return json.MarshalIndent(c, "", "  ")
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return yaml.Marshal(c)
	}
}

// Watch reloads the file whenever it changes on disk and calls onChange
// after a successful reload.
func (f *File) Watch(onChange func()) {
	if f.filepath == "" {
		return
	}

	f.watcher.OnConfigChange(func(e fsnotify.Event) {
		logrus.WithField("op", e.Op.String()).Debugf("config file %s changed", e.Name)
		if err := f.Load(); err != nil {
			logrus.Errorf("failed to reload config: %v", err)
			return
		}
		if onChange != nil {
			onChange()
		}
	})
	f.watcher.WatchConfig()
}

func (f *File) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"updateInterval":    f.UpdateInterval().String(),
		"lowLevel":          f.LowLevel(),
		"criticalLevel":     f.CriticalLevel(),
		"hideNotifications": f.HideNotifications(),
		"leftClickCommand":  f.LeftClickCommand(),
		"notifier":          f.Notifier(),
		"statusSocket":      f.StatusSocket(),
		"sysfsPath":         f.SysfsPath(),
	}
}
