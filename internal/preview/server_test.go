package preview

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chantworks/cantilena/core/align"
	"github.com/chantworks/cantilena/internal/corpus"
)

// setupPreview points the package at temp input files and a fresh
// template set and render cache.
func setupPreview(t *testing.T, text, volpiano string) {
	t.Helper()

	dir := t.TempDir()
	textPath := filepath.Join(dir, "text.txt")
	volpianoPath := filepath.Join(dir, "melody.txt")
	if err := os.WriteFile(textPath, []byte(text+"\n"), 0o644); err != nil {
		t.Fatalf("failed to write text file: %v", err)
	}
	if err := os.WriteFile(volpianoPath, []byte(volpiano+"\n"), 0o644); err != nil {
		t.Fatalf("failed to write volpiano file: %v", err)
	}

	original := ServerConfig
	ServerConfig = Config{
		Addr:         "localhost:0",
		TextPath:     textPath,
		VolpianoPath: volpianoPath,
	}
	t.Cleanup(func() { ServerConfig = original })

	if Templates == nil {
		if err := initTemplates(); err != nil {
			t.Fatalf("failed to parse templates: %v", err)
		}
	}
	renderCache.Invalidate()
}

func TestHandleIndex(t *testing.T) {
	setupPreview(t, "Amen", "1---f--g---3")

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handleIndex(w, req)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<title>Amen</title>") {
		t.Error("page title should carry the incipit")
	}
	if !strings.Contains(body, `<table class="alignment">`) {
		t.Error("page should contain the alignment table")
	}
	if !strings.Contains(body, "<td>A-</td>") || !strings.Contains(body, "<td>men</td>") {
		t.Errorf("text row should carry the syllables: %s", body)
	}
	if strings.Contains(body, "needs review") {
		t.Error("clean alignment should not show the review banner")
	}
	if strings.Contains(body, "new WebSocket") {
		t.Error("live reload script should only appear with watch enabled")
	}
}

func TestHandleIndexWatchScript(t *testing.T) {
	setupPreview(t, "Amen", "1---f--g---3")
	ServerConfig.Watch = true

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handleIndex(w, req)

	if !strings.Contains(w.Body.String(), "new WebSocket") {
		t.Error("watch mode should embed the live reload script")
	}
}

func TestHandleIndexReviewBanner(t *testing.T) {
	// One melody syllable under two text syllables
	setupPreview(t, "Amen", "1---f---3")

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handleIndex(w, req)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "needs review") {
		t.Error("padded alignment should show the review banner")
	}
}

func TestHandleIndexNotFound(t *testing.T) {
	setupPreview(t, "Amen", "1---f--g---3")

	req := httptest.NewRequest("GET", "/nope", nil)
	w := httptest.NewRecorder()
	handleIndex(w, req)

	if w.Code != 404 {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestHandleFragment(t *testing.T) {
	setupPreview(t, "Amen", "1---f--g---3")

	req := httptest.NewRequest("GET", "/fragment", nil)
	w := httptest.NewRecorder()
	handleFragment(w, req)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `<table class="alignment">`) {
		t.Error("fragment should contain the alignment table")
	}
	if strings.Contains(body, "<html") {
		t.Error("fragment should not be a full page")
	}
}

func TestHandleFragmentAlignError(t *testing.T) {
	// The unmatched brace survives cleaning, so alignment fails outright
	setupPreview(t, "qu{i", "1---g---3")

	req := httptest.NewRequest("GET", "/fragment", nil)
	w := httptest.NewRecorder()
	handleFragment(w, req)

	if w.Code != 422 {
		t.Errorf("expected status 422, got %d", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	setupPreview(t, "Amen", "1---f--g---3")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	handleHealth(w, req)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %v", resp["status"])
	}
}

func TestRenderAlignmentCache(t *testing.T) {
	setupPreview(t, "Amen", "1---f--g---3")

	digest := corpus.Digest("Amen", "1---f--g---3")
	renderCache.Set(digest, Rendered{HTML: "cached fragment", Digest: digest})

	got, err := renderAlignment("Amen", "1---f--g---3", align.Options{})
	if err != nil {
		t.Fatalf("renderAlignment failed: %v", err)
	}
	if got.HTML != "cached fragment" {
		t.Error("matching digest should be served from the cache")
	}

	renderCache.Invalidate()
	got, err = renderAlignment("Amen", "1---f--g---3", align.Options{})
	if err != nil {
		t.Fatalf("renderAlignment failed: %v", err)
	}
	if !strings.Contains(got.HTML, `<table class="alignment">`) {
		t.Error("invalidated cache should force a re-render")
	}
	if got.Digest != digest {
		t.Errorf("rendered digest %q does not match content digest %q", got.Digest, digest)
	}
}

func TestIncipitTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"empty", "", "Chant preview"},
		{"short", "Kyrie eleison", "Kyrie eleison"},
		{"truncated", "Aspiciens a longe ecce video dei potentiam", "Aspiciens a longe ecce video"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := incipitTitle(tt.text); got != tt.want {
				t.Errorf("incipitTitle(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestAddrPort(t *testing.T) {
	tests := []struct {
		addr string
		want int
	}{
		{"localhost:8421", 8421},
		{":8080", 8080},
		{"bare", 0},
	}
	for _, tt := range tests {
		if got := addrPort(tt.addr); got != tt.want {
			t.Errorf("addrPort(%q) = %d, want %d", tt.addr, got, tt.want)
		}
	}
}

func TestLoadInputsMissingFile(t *testing.T) {
	setupPreview(t, "Amen", "1---f--g---3")
	ServerConfig.TextPath = filepath.Join(t.TempDir(), "absent.txt")

	if _, _, err := loadInputs(); err == nil {
		t.Error("missing input file should fail")
	}
}
