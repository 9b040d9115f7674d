// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"context"
	"sync"
	"time"

	"code.funtury.io/predictmarket/logging"

	"github.com/fsnotify/fsnotify"
)

const namedLogger = "cfgwatcher"

// Option is applied to every configuration the watcher loads, after the file
// was decoded. Command line flags use it to take precedence over the file.
type Option func(cfg *Config) error

// Watcher is looking for updates in the configuration file.
type Watcher struct {
	log    *logging.Logger
	loader *Loader
	opts   []Option

	mu                 sync.Mutex
	cfg                Config
	cfgUpdateListeners []func(Config)
}

// NewWatcher loads the configuration and reloads it every time the file
// changes until ctx is done.
func NewWatcher(ctx context.Context, log *logging.Logger, loader *Loader, opts ...Option) (*Watcher, error) {
	watcherlog := log.Named(namedLogger)
	// set this logger to debug level as we want to be notified for any configuration changes at any time
	watcherlog.SetLevel(logging.DebugLevel)

	w := &Watcher{
		log:                watcherlog,
		loader:             loader,
		opts:               opts,
		cfgUpdateListeners: []func(Config){},
	}

	if err := w.load(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(loader.ConfigFilePath()); err != nil {
		watcher.Close()
		return nil, err
	}

	w.log.Info("config watcher started successfully",
		logging.String("config", loader.ConfigFilePath()))

	go w.watch(ctx, watcher)

	return w, nil
}

// Get return the last update of the configuration.
func (w *Watcher) Get() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

// ConfigFilePath returns the path of the watched file.
func (w *Watcher) ConfigFilePath() string {
	return w.loader.ConfigFilePath()
}

// OnConfigUpdate register a function to be called when the configuration is getting updated.
func (w *Watcher) OnConfigUpdate(fns ...func(Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cfgUpdateListeners = append(w.cfgUpdateListeners, fns...)
}

func (w *Watcher) load() error {
	cfg, err := w.loader.Get()
	if err != nil {
		return err
	}
	for _, opt := range w.opts {
		if err := opt(cfg); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	w.mu.Lock()
	w.cfg = *cfg
	w.mu.Unlock()
	return nil
}

func (w *Watcher) notify() {
	w.mu.Lock()
	cfg := w.cfg
	listeners := make([]func(Config), len(w.cfgUpdateListeners))
	copy(listeners, w.cfgUpdateListeners)
	w.mu.Unlock()

	for _, f := range listeners {
		f(cfg)
	}
}

func (w *Watcher) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Create) {
				continue
			}
			if event.Has(fsnotify.Rename) {
				// editors replace the file rather than writing it in place,
				// give them time to create the new one then follow it
				time.Sleep(50 * time.Millisecond)
				if err := watcher.Add(w.loader.ConfigFilePath()); err != nil {
					w.log.Error("unable to follow the configuration file", logging.Error(err))
					continue
				}
			}
			w.log.Info("configuration updated", logging.String("event", event.Name))
			if err := w.load(); err != nil {
				w.log.Error("unable to load configuration", logging.Error(err))
				continue
			}
			w.notify()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("config watcher received error event", logging.Error(err))
		case <-ctx.Done():
			w.log.Debug("config watcher ctx done")
			return
		}
	}
}
