package preview

import (
	"bytes"
	"time"

	"github.com/chantworks/cantilena/core/align"
	"github.com/chantworks/cantilena/core/errors"
	"github.com/chantworks/cantilena/internal/cache"
	"github.com/chantworks/cantilena/internal/corpus"
)

// renderTTL bounds how long a rendered fragment is reused after its
// inputs stop changing.
const renderTTL = 5 * time.Minute

// renderCache memoizes rendered fragments by content digest, so watch
// events that touch the files without changing them cost nothing.
var renderCache = cache.New[string, Rendered](renderTTL)

// Rendered is one rendered alignment fragment.
type Rendered struct {
	HTML        string
	NeedsReview bool
	Digest      string
}

// fragmentData feeds the fragment template.
type fragmentData struct {
	Pairs       []align.Pair
	NeedsReview bool
}

// renderAlignment aligns one chant and renders its fragment, reusing
// the cached rendering when the inputs have not changed.
func renderAlignment(text, volpiano string, opts align.Options) (Rendered, error) {
	digest := corpus.Digest(text, volpiano)
	if hit, ok := renderCache.Get(digest); ok {
		return hit, nil
	}

	result, err := align.Align(text, volpiano, opts)
	if err != nil {
		return Rendered{}, errors.Wrap(err, "failed to align chant")
	}

	var buf bytes.Buffer
	data := fragmentData{Pairs: result.Pairs, NeedsReview: result.NeedsReview}
	if err := Templates.ExecuteTemplate(&buf, "fragment", data); err != nil {
		return Rendered{}, errors.Wrap(err, "failed to render fragment")
	}

	rendered := Rendered{
		HTML:        buf.String(),
		NeedsReview: result.NeedsReview,
		Digest:      digest,
	}
	renderCache.Set(digest, rendered)
	return rendered, nil
}
