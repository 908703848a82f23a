package plugin

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/security"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

// Host launches calendar plugin binaries and keeps their processes alive
// until Close.
type Host struct {
	logger  *slog.Logger
	mu      sync.Mutex
	clients map[string]*plugin.Client
}

// NewHost creates a plugin host.
func NewHost(logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{logger: logger, clients: make(map[string]*plugin.Client)}
}

// NamedSource is an EventSource with the name its events are keyed by.
type NamedSource struct {
	Name   string
	Source EventSource
}

// Launch starts the plugin at path, or reuses its running process.
func (h *Host) Launch(path string) (NamedSource, error) {
	binary, err := validateBinaryPath(path)
	if err != nil {
		return NamedSource{}, err
	}
	name := strings.TrimSuffix(filepath.Base(binary), filepath.Ext(binary))

	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[binary]
	if ok && client.Exited() {
		delete(h.clients, binary)
		ok = false
	}
	if !ok {
		// #nosec G204 -- binary path is validated by validateBinaryPath
		client = plugin.NewClient(&plugin.ClientConfig{
			HandshakeConfig:  HandshakeConfig,
			Plugins:          PluginMap(nil),
			Cmd:              exec.Command(binary),
			Logger:           newHclogAdapter(h.logger, "plugin."+name),
			AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		})
	}

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return NamedSource{}, fmt.Errorf("connect calendar plugin %s: %w", name, err)
	}
	raw, err := rpcClient.Dispense(Name)
	if err != nil {
		client.Kill()
		return NamedSource{}, fmt.Errorf("dispense calendar plugin %s: %w", name, err)
	}
	source, ok := raw.(EventSource)
	if !ok {
		client.Kill()
		return NamedSource{}, fmt.Errorf("calendar plugin %s does not serve events", name)
	}

	if _, known := h.clients[binary]; !known {
		h.logger.Info("calendar plugin loaded", "plugin", name, "binary", binary)
	}
	h.clients[binary] = client
	return NamedSource{Name: name, Source: source}, nil
}

// Close kills every launched plugin.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for binary, client := range h.clients {
		client.Kill()
		h.logger.Debug("calendar plugin stopped", "binary", binary)
	}
	h.clients = make(map[string]*plugin.Client)
}

// validateBinaryPath requires an absolute path to a regular file.
func validateBinaryPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("plugin path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("plugin path must be absolute: %s", path)
	}
	resolved, err := security.ValidateFilePath(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("plugin binary not found: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("plugin path is not a regular file: %s", path)
	}
	return resolved, nil
}

// hclogAdapter routes go-plugin's hclog output to slog.
type hclogAdapter struct {
	logger *slog.Logger
	name   string
}

func newHclogAdapter(logger *slog.Logger, name string) *hclogAdapter {
	return &hclogAdapter{logger: logger.With("component", name), name: name}
}

func (h *hclogAdapter) Log(level hclog.Level, msg string, args ...interface{}) {
	switch level {
	case hclog.Info:
		h.logger.Info(msg, args...)
	case hclog.Warn:
		h.logger.Warn(msg, args...)
	case hclog.Error:
		h.logger.Error(msg, args...)
	default:
		h.logger.Debug(msg, args...)
	}
}

func (h *hclogAdapter) Trace(msg string, args ...interface{}) { h.logger.Debug(msg, args...) }
func (h *hclogAdapter) Debug(msg string, args ...interface{}) { h.logger.Debug(msg, args...) }
func (h *hclogAdapter) Info(msg string, args ...interface{})  { h.logger.Info(msg, args...) }
func (h *hclogAdapter) Warn(msg string, args ...interface{})  { h.logger.Warn(msg, args...) }
func (h *hclogAdapter) Error(msg string, args ...interface{}) { h.logger.Error(msg, args...) }

func (h *hclogAdapter) IsTrace() bool { return false }
func (h *hclogAdapter) IsDebug() bool { return true }
func (h *hclogAdapter) IsInfo() bool  { return true }
func (h *hclogAdapter) IsWarn() bool  { return true }
func (h *hclogAdapter) IsError() bool { return true }

func (h *hclogAdapter) ImpliedArgs() []interface{} { return nil }

func (h *hclogAdapter) With(args ...interface{}) hclog.Logger {
	return &hclogAdapter{logger: h.logger.With(args...), name: h.name}
}

func (h *hclogAdapter) Name() string { return h.name }

func (h *hclogAdapter) Named(name string) hclog.Logger {
	return &hclogAdapter{logger: h.logger, name: h.name + "." + name}
}

func (h *hclogAdapter) ResetNamed(name string) hclog.Logger {
	return &hclogAdapter{logger: h.logger, name: name}
}

func (h *hclogAdapter) SetLevel(hclog.Level) {}

func (h *hclogAdapter) GetLevel() hclog.Level { return hclog.Debug }

func (h *hclogAdapter) StandardLogger(*hclog.StandardLoggerOptions) *log.Logger {
	return slog.NewLogLogger(h.logger.Handler(), slog.LevelInfo)
}

func (h *hclogAdapter) StandardWriter(*hclog.StandardLoggerOptions) io.Writer {
	return os.Stderr
}
