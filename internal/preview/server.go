// Package preview serves a live HTML preview of one chant alignment:
// the syllabified text over its volpiano melody, re-rendered and pushed
// over WebSocket whenever the input files change.
package preview

import (
	"embed"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/chantworks/cantilena/core/align"
	"github.com/chantworks/cantilena/core/errors"
	"github.com/chantworks/cantilena/internal/logging"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates is the parsed template set.
var Templates *template.Template

// Config holds preview server configuration.
type Config struct {
	Addr         string
	TextPath     string
	VolpianoPath string
	Watch        bool
	Options      align.Options
}

// ServerConfig is the active server configuration.
var ServerConfig Config

// Start starts the preview server with the given configuration.
func Start(cfg Config) error {
	ServerConfig = cfg

	if cfg.TextPath == "" || cfg.VolpianoPath == "" {
		return errors.NewValidation("paths", "text and volpiano files are required")
	}
	if _, _, err := loadInputs(); err != nil {
		return err
	}

	if err := initTemplates(); err != nil {
		return err
	}

	previewHub = NewHub()
	go previewHub.Run()

	if cfg.Watch {
		watcher, err := watchInputs([]string{cfg.TextPath, cfg.VolpianoPath}, reloadAndBroadcast)
		if err != nil {
			return errors.Wrap(err, "failed to watch input files")
		}
		defer watcher.Close()
	}

	mux := setupRoutes()

	logging.ServerStartup("preview", "http", addrPort(cfg.Addr),
		"text_file", cfg.TextPath,
		"volpiano_file", cfg.VolpianoPath,
		"watch", cfg.Watch)

	handler := logging.CombinedMiddleware(mux)
	return http.ListenAndServe(cfg.Addr, handler)
}

// initTemplates parses the embedded template set.
func initTemplates() error {
	var err error
	Templates, err = template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	return nil
}

// setupRoutes configures all HTTP routes.
func setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", handleIndex)
	mux.HandleFunc("/fragment", handleFragment)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/ws", handleWebSocket)

	return mux
}

// loadInputs reads the chant text and volpiano input files.
func loadInputs() (string, string, error) {
	text, err := os.ReadFile(ServerConfig.TextPath)
	if err != nil {
		return "", "", errors.NewIO("read", ServerConfig.TextPath, err)
	}
	volpiano, err := os.ReadFile(ServerConfig.VolpianoPath)
	if err != nil {
		return "", "", errors.NewIO("read", ServerConfig.VolpianoPath, err)
	}
	return strings.TrimSpace(string(text)), strings.TrimSpace(string(volpiano)), nil
}

// reloadAndBroadcast re-renders the alignment from the input files and
// pushes the result to every connected client.
func reloadAndBroadcast() {
	text, volpiano, err := loadInputs()
	if err != nil {
		logging.Error("failed to reload inputs", "error", err)
		previewHub.Broadcast(UpdateMessage{Type: "error", Error: err.Error()})
		return
	}
	rendered, err := renderAlignment(text, volpiano, ServerConfig.Options)
	if err != nil {
		logging.Error("failed to re-render alignment", "error", err)
		previewHub.Broadcast(UpdateMessage{Type: "error", Error: err.Error()})
		return
	}
	previewHub.Broadcast(UpdateMessage{
		Type:        "render",
		HTML:        rendered.HTML,
		NeedsReview: rendered.NeedsReview,
	})
}

// addrPort extracts the numeric port for startup logging.
func addrPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, _ := strconv.Atoi(portStr)
	return port
}
