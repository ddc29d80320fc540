// Package config loads and hot-reloads the example server's
// configuration, following solo-io-squash's pkg/cmd/cli viper
// convention (a YAML file read into a flat settings struct, with
// defaults for missing keys) generalized with an fsnotify watch so the
// monitor-command allow-list can change without restarting the server.
// Settings are not read from flags or environment variables.
package config

import (
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the example server's settings, read from a YAML file (with
// built-in defaults for absent keys) and re-read whenever the file
// changes on disk.
type Config struct {
	// ListenAddr is the TCP address the example server binds.
	ListenAddr string

	// MemorySize is the demo CPU target's memory size, in bytes.
	MemorySize int

	// MonitorAllowList, if non-empty, restricts which of the target's
	// custom monitor commands (e.g. "regs") qRcmd may run; the module's
	// built-in "version" command is always available. Empty means allow
	// every command the target registers.
	MonitorAllowList []string
}

func defaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":9000")
	v.SetDefault("memory_size", 1<<20)
	v.SetDefault("monitor_allow_list", []string{})
}

func load(v *viper.Viper) (Config, error) {
	var c Config
	c.ListenAddr = v.GetString("listen_addr")
	c.MemorySize = v.GetInt("memory_size")
	c.MonitorAllowList = v.GetStringSlice("monitor_allow_list")
	return c, nil
}

// Watcher holds the live Config plus an fsnotify watch on the backing
// file, publishing each reload to Updates.
type Watcher struct {
	mu      sync.RWMutex
	current Config

	v       *viper.Viper
	fsw     *fsnotify.Watcher
	Updates chan Config
}

// Load reads path (if it exists; defaults apply otherwise) and starts
// watching it for changes.
func Load(path string) (*Watcher, error) {
	v := viper.New()
	defaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "read config")
		}
	}

	cfg, err := load(v)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}
	if err := fsw.Add(path); err != nil {
		// The file may not exist yet; watch its directory instead so a
		// later create is still observed. Matches fsnotify's documented
		// pattern for "file that may not exist yet".
		_ = fsw.Add(dirOf(path))
	}

	w := &Watcher{current: cfg, v: v, fsw: fsw, Updates: make(chan Config, 1)}
	go w.loop(path)
	return w, nil
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

func (w *Watcher) loop(path string) {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Name != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := w.v.ReadInConfig(); err != nil {
				continue
			}
			cfg, err := load(w.v)
			if err != nil {
				continue
			}
			w.mu.Lock()
			w.current = cfg
			w.mu.Unlock()
			select {
			case w.Updates <- cfg:
			default:
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Current returns the most recently loaded Config.
func (w *Watcher) Current() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Close stops the watch.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
