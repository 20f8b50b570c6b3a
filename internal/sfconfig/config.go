// Package sfconfig implements the Starbase configuration store. It
// merges every *.yaml fragment in a configuration directory into a single
// top-level mapping, validates the STARFLEET section against a fixed
// schema, and exposes other top-level keys verbatim so the plugin registry
// can hand each worker its own configuration subsection.
package sfconfig

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/catherinevee/starfleet/internal/starerrors"
)

// SecretsManagerConfig locates the Slack token (or other) in the secret store.
type SecretsManagerConfig struct {
	SecretID     string `yaml:"SecretId" validate:"required"`
	SecretRegion string `yaml:"SecretRegion" validate:"required"`
}

// Starfleet is the validated STARFLEET configuration section.
type Starfleet struct {
	DeploymentRegion       string                `yaml:"DeploymentRegion" validate:"required"`
	TemplateBucket         string                `yaml:"TemplateBucket" validate:"required"`
	FanOutQueueURL         string                `yaml:"FanOutQueueUrl" validate:"required,url"`
	AccountIndex           string                `yaml:"AccountIndex"`
	ScopeToRegions         []string              `yaml:"ScopeToRegions"`
	SecretsManager         *SecretsManagerConfig `yaml:"SecretsManager"`
	SlackEnabled           bool                  `yaml:"SlackEnabled"`
	LogLevel               string                `yaml:"LogLevel"`
	ThirdPartyLoggerLevels map[string]string     `yaml:"ThirdPartyLoggerLevels"`
}

const defaultAccountIndex = "StarfleetDefaultAccountIndex"

// Document is the raw merged configuration: the validated STARFLEET section
// plus every other top-level key verbatim, keyed by worker (or plugin) name.
type Document struct {
	Starfleet Starfleet
	Raw       map[string]map[string]interface{}
}

// WorkerSection returns the raw configuration subsection for the given
// worker name, or nil if no subsection was discovered for it. Absence is
// not an error here; each caller decides how to treat a nil section.
func (d *Document) WorkerSection(name string) map[string]interface{} {
	return d.Raw[name]
}

// Manager loads and validates Starfleet configuration from a directory of
// YAML fragments. It is safe for concurrent reads; Reload is exclusive.
type Manager struct {
	dir       string
	mu        sync.RWMutex
	doc       *Document
	validate  *validator.Validate
	watcher   *fsnotify.Watcher
	callbacks []func(*Document)
	stopCh    chan struct{}
}

// NewManager loads the configuration directory once and returns a Manager.
// Hot reload (fsnotify) is opt-in via Watch rather than always-on.
func NewManager(dir string) (*Manager, error) {
	m := &Manager{
		dir:      dir,
		validate: validator.New(),
		stopCh:   make(chan struct{}),
	}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Reload re-reads and re-validates every *.yaml fragment under the
// configuration directory. Safe to call repeatedly (idempotent).
func (m *Manager) Reload() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return starerrors.Wrapf(starerrors.BadConfiguration, err, "reading configuration directory %s", m.dir)
	}

	merged := map[string]map[string]interface{}{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(m.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return starerrors.Wrapf(starerrors.BadConfiguration, err, "reading configuration fragment %s", path)
		}

		var fragment map[string]map[string]interface{}
		if err := yaml.Unmarshal(data, &fragment); err != nil {
			return starerrors.Wrapf(starerrors.BadConfiguration, err, "parsing configuration fragment %s", path)
		}

		for key, section := range fragment {
			merged[key] = section
		}
	}

	starfleetRaw, ok := merged["STARFLEET"]
	if !ok {
		return starerrors.New(starerrors.BadConfiguration, "missing required STARFLEET configuration section")
	}

	var starfleet Starfleet
	rawYAML, err := yaml.Marshal(starfleetRaw)
	if err != nil {
		return starerrors.Wrapf(starerrors.BadConfiguration, err, "re-encoding STARFLEET section")
	}
	if err := yaml.Unmarshal(rawYAML, &starfleet); err != nil {
		return starerrors.Wrapf(starerrors.BadConfiguration, err, "decoding STARFLEET section")
	}

	if starfleet.AccountIndex == "" {
		starfleet.AccountIndex = defaultAccountIndex
	}

	if err := m.validate.Struct(starfleet); err != nil {
		return starerrors.Wrapf(starerrors.BadConfiguration, err, "STARFLEET section failed schema validation")
	}

	if _, err := url.ParseRequestURI(starfleet.FanOutQueueURL); err != nil || !strings.HasPrefix(starfleet.FanOutQueueURL, "https://") {
		return starerrors.Newf(starerrors.BadConfiguration, "FanOutQueueUrl must be an https URL, got %q", starfleet.FanOutQueueURL)
	}

	if starfleet.SlackEnabled && starfleet.SecretsManager == nil {
		return starerrors.New(starerrors.BadConfiguration, "SlackEnabled requires a SecretsManager configuration entry")
	}

	doc := &Document{Starfleet: starfleet, Raw: merged}

	m.mu.Lock()
	m.doc = doc
	m.mu.Unlock()

	return nil
}

// Get returns the current validated configuration document.
func (m *Manager) Get() *Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc
}

// OnChange registers a callback invoked after a successful hot reload.
func (m *Manager) OnChange(cb func(*Document)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// Watch starts an fsnotify watch on the configuration directory, reloading
// and invoking registered callbacks on every write. No command in this
// module calls it: the operator CLI loads once per command, and the
// Lambda-style handlers load once per cold start.
func (m *Manager) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating configuration watcher: %w", err)
	}
	if err := watcher.Add(m.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching configuration directory %s: %w", m.dir, err)
	}

	m.mu.Lock()
	m.watcher = watcher
	m.mu.Unlock()

	go m.watchLoop()
	return nil
}

func (m *Manager) watchLoop() {
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := m.Reload(); err != nil {
				continue
			}
			m.mu.RLock()
			doc := m.doc
			callbacks := append([]func(*Document){}, m.callbacks...)
			m.mu.RUnlock()
			for _, cb := range callbacks {
				cb(doc)
			}
		case _, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
		case <-m.stopCh:
			return
		}
	}
}

// Stop tears down the directory watcher, if one is running.
func (m *Manager) Stop() {
	select {
	case <-m.stopCh:
		// already stopped
	default:
		close(m.stopCh)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher != nil {
		m.watcher.Close()
		m.watcher = nil
	}
}
