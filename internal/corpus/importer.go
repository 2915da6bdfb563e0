package corpus

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/chantworks/cantilena/core/errors"
	"github.com/chantworks/cantilena/core/xml"
	"github.com/chantworks/cantilena/internal/logging"
	"github.com/chantworks/cantilena/internal/validation"
)

// ImportStats summarizes one import pass.
type ImportStats struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Import reads a Cantus-style XML export and stores its chants. Files
// ending in .gz or .xz are decompressed transparently. Chants whose
// digest is already stored are skipped, so importing the same export
// twice changes nothing.
func (s *Store) Import(ctx context.Context, path string) (ImportStats, error) {
	var stats ImportStats

	data, err := readChantFile(path)
	if err != nil {
		return stats, err
	}

	doc, err := xml.Parse(data)
	if err != nil {
		return stats, &errors.ParseError{Format: "xml", Path: path, Message: "malformed chant export", Err: err}
	}

	nodes, err := doc.XPath("//chant")
	if err != nil {
		return stats, errors.Wrap(err, "failed to query chant elements")
	}
	if len(nodes) == 0 {
		return stats, &errors.ParseError{Format: "xml", Path: path, Message: "no chant elements found"}
	}

	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		chant := Chant{
			CantusID: strings.TrimSpace(node.ChildText("cantus_id")),
			Incipit:  strings.TrimSpace(node.ChildText("incipit")),
			FullText: strings.TrimSpace(node.ChildText("full_text")),
			Volpiano: strings.TrimSpace(node.ChildText("volpiano")),
			Source:   strings.TrimSpace(node.ChildText("srclink")),
		}
		chant.Digest = Digest(chant.FullText, chant.Volpiano)

		exists, err := s.HasDigest(ctx, chant.Digest)
		if err != nil {
			return stats, err
		}
		if exists {
			stats.Skipped++
			continue
		}

		if err := s.InsertChant(ctx, &chant); err != nil {
			return stats, err
		}
		stats.Imported++
		logging.ChantImport(chant.CantusID, path, "incipit", chant.Incipit)
	}

	return stats, nil
}

// readChantFile reads an export file, verifying its claimed type and
// decompressing .gz and .xz contents.
func readChantFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	if _, err := validation.ValidateFileType(f, path); err != nil {
		return nil, &errors.ParseError{Format: "xml", Path: path, Message: "file type check failed", Err: err}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.NewIO("seek", path, err)
	}

	var reader io.Reader = f
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			return nil, &errors.ParseError{Format: "xz", Path: path, Message: "bad xz stream", Err: err}
		}
		reader = xzr
	case strings.HasSuffix(lower, ".gz"):
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return nil, &errors.ParseError{Format: "gzip", Path: path, Message: "bad gzip stream", Err: err}
		}
		defer gzr.Close()
		reader = gzr
	}

	// Cap reads so a crafted compressed file cannot exhaust memory.
	data, err := io.ReadAll(io.LimitReader(reader, validation.MaxFileSize+1))
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	if len(data) > validation.MaxFileSize {
		return nil, errors.NewValidation("file", fmt.Sprintf("%s exceeds the %d byte import limit", path, validation.MaxFileSize))
	}
	return data, nil
}
