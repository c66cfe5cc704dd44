// Package icontheme looks up freedesktop themed icons by name.
package icontheme

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// iconSizes are tried in order. Tray icons are small, so small sizes come
// first.
var iconSizes = []string{"22x22", "24x24", "16x16", "32x32", "48x48", "scalable"}

var iconExts = []string{".png", ".svg"}

// Cache finds themed icons by name and keeps their content.
type Cache struct {
	mu    sync.Mutex
	dirs  []string
	cache map[string][]byte
}

// NewCache creates a Cache searching dirs, or the XDG icon directories if
// dirs is empty.
func NewCache(dirs ...string) *Cache {
	if len(dirs) == 0 {
		dirs = iconDirs()
	}
	return &Cache{
		dirs:  dirs,
		cache: make(map[string][]byte),
	}
}

// iconDirs returns the icon theme base directories, most specific first.
func iconDirs() []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local", "share", "icons"), filepath.Join(home, ".icons"))
	}

	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}
	for _, d := range strings.Split(dataDirs, ":") {
		if d != "" {
			dirs = append(dirs, filepath.Join(d, "icons"))
		}
	}
	return dirs
}

// Load returns the content of the icon named name. Misses are cached too.
func (c *Cache) Load(name string) ([]byte, bool) {
	if name == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.cache[name]; ok {
		return b, b != nil
	}

	b := c.find(name)
	c.cache[name] = b
	return b, b != nil
}

func (c *Cache) find(name string) []byte {
	for _, dir := range c.dirs {
		for _, size := range iconSizes {
			for _, ext := range iconExts {
				// <theme>/<size>/<context>/<name><ext>
				matches, _ := filepath.Glob(filepath.Join(dir, "*", size, "*", name+ext))
				for _, m := range matches {
					b, err := os.ReadFile(m)
					if err != nil {
						continue
					}
					logrus.WithField("path", m).Trace("icon found")
					return b
				}
			}
		}
	}
	logrus.WithField("icon", name).Debug("icon not found in any theme")
	return nil
}

// FallbackTitle is shown next to the tray when icon cannot be loaded.
func FallbackTitle(icon string) string {
	switch {
	case icon == "":
		return "🔋 ..."
	case icon == "ac-adapter":
		return "🔌"
	case icon == "battery-missing":
		return "🔋?"
	case strings.HasSuffix(icon, "-charging"), strings.HasSuffix(icon, "-charged"):
		return "⚡️"
	case strings.HasPrefix(icon, "battery-caution"):
		return "🪫"
	default:
		return "🔋"
	}
}
