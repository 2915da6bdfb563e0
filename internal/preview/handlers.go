package preview

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/chantworks/cantilena/internal/logging"
)

// pageData feeds the full preview page template.
type pageData struct {
	Title    string
	Fragment template.HTML
	Watch    bool
}

// handleIndex renders the full preview page around the current
// alignment fragment.
func handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	text, volpiano, err := loadInputs()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rendered, err := renderAlignment(text, volpiano, ServerConfig.Options)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{
		Title:    incipitTitle(text),
		Fragment: template.HTML(rendered.HTML),
		Watch:    ServerConfig.Watch,
	}
	if err := Templates.ExecuteTemplate(w, "preview", data); err != nil {
		logging.Error("failed to render preview page", "error", err)
	}
}

// handleFragment renders just the alignment fragment, as pushed over
// the WebSocket.
func handleFragment(w http.ResponseWriter, r *http.Request) {
	text, volpiano, err := loadInputs()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rendered, err := renderAlignment(text, volpiano, ServerConfig.Options)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(rendered.HTML))
}

// handleHealth reports server liveness and the connected client count.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	clients := 0
	if previewHub != nil {
		clients = previewHub.ClientCount()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": clients,
	})
}

// incipitTitle derives a page title from the opening words of the text.
func incipitTitle(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "Chant preview"
	}
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ")
}
