package config

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Manager loads the configuration once and keeps it fresh by watching the
// config file for changes. An optional reload hook lets the daemon apply
// changes to a running session.
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	onReload func(*Config)
	watcher  *fsnotify.Watcher
	wg       sync.WaitGroup
}

func NewManager() (*Manager, error) {
	config, err := Load()
	if errors.Is(err, ErrConfigNotFound) {
		log.Printf("config manager: no config file, using defaults")
		config = DefaultConfig()
	} else if err != nil {
		log.Printf("config manager: failed to load initial configuration: %v", err)
		return nil, err
	}

	if err := config.Validate(); err != nil {
		log.Printf("config manager: validation warning: %v", err)
	}

	return &Manager{config: config}, nil
}

func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modification.
	configCopy := *m.config
	return &configCopy
}

// OnReload registers a hook invoked with the new config after every
// successful reload. Call before StartWatching.
func (m *Manager) OnReload(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReload = fn
}

func (m *Manager) StartWatching(ctx context.Context) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	m.watcher = watcher

	// Watch the directory, not the file: editors replace the file on save.
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		watcher.Close()
		return err
	}

	m.wg.Add(1)
	go m.watchLoop(ctx, configPath)

	log.Printf("config manager: watching %s for changes", configPath)
	return nil
}

func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.wg.Wait()
}

func (m *Manager) watchLoop(ctx context.Context, configPath string) {
	defer m.wg.Done()
	configFileName := filepath.Base(configPath)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != configFileName {
				continue
			}

			// Only Write and Create matter; Chmod and Remove are noise.
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				log.Printf("config manager: file change detected: %s, reloading", event.Name)
				m.reloadConfig()
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("config manager: watcher error: %v", err)

		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) reloadConfig() {
	newConfig, err := Load()
	if err != nil {
		log.Printf("config manager: failed to reload config: %v", err)
		return
	}

	if err := newConfig.Validate(); err != nil {
		log.Printf("config manager: invalid config after reload, keeping the old one: %v", err)
		return
	}

	m.mu.Lock()
	m.config = newConfig
	hook := m.onReload
	m.mu.Unlock()

	log.Printf("config manager: configuration reloaded")
	if hook != nil {
		hook(newConfig)
	}
}
