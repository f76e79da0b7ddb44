package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"boxoffice-pulse/parser"
)

// SourceDocument is one report retrieved from the backlog: raw bytes plus
// the basic metadata every source can provide.
type SourceDocument struct {
	Name      string
	CreatedAt time.Time
	Data      []byte
}

// Source is an ordered, read-only collection of report documents.
type Source interface {
	List() ([]SourceDocument, error)
}

// Extractor turns document bytes into positional text tokens per page. The
// extraction itself is an external collaborator; the parser's contract
// begins at the token list.
type Extractor interface {
	Extract(doc SourceDocument) ([][]string, error)
}

// DirSource lists report documents from a directory on disk, oldest-known
// metadata preserved via file modification times.
type DirSource struct {
	dir string
}

// NewDirSource creates a filesystem-backed document source
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// List reads every regular file in the directory. An unreadable directory
// is a startup failure; an unreadable individual file is reported by the
// controller as a per-document error instead.
func (s *DirSource) List() ([]SourceDocument, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read report directory %s: %w", s.dir, err)
	}

	var docs []SourceDocument
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			// Carry the document with no data; the controller counts the
			// extraction failure without aborting the run.
			data = nil
		}
		docs = append(docs, SourceDocument{
			Name:      entry.Name(),
			CreatedAt: info.ModTime().UTC(),
			Data:      data,
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// TextExtractor tokenizes pre-extracted text dumps: pages are separated by
// form feeds, tokens by whitespace. Real report extraction runs upstream;
// this is the shipped default for the token-dump files the backlog holds.
type TextExtractor struct{}

// Extract implements Extractor
func (TextExtractor) Extract(doc SourceDocument) ([][]string, error) {
	if len(doc.Data) == 0 {
		return nil, fmt.Errorf("document %s has no content", doc.Name)
	}
	var pages [][]string
	for _, raw := range strings.Split(string(doc.Data), "\f") {
		tokens := strings.Fields(raw)
		if len(tokens) > 0 {
			pages = append(pages, tokens)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("document %s produced no tokens", doc.Name)
	}
	return pages, nil
}

// Filename date conventions accumulated over the years of the backlog.
var filenameDateRes = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}`), "2006-01-02"},
	{regexp.MustCompile(`\d{8}`), "20060102"},
}

// deriveAsOfDate determines the as-of date of a document, trying sources in
// priority order: a date printed in the document content, then creation
// metadata, then a filename convention. First success wins.
func deriveAsOfDate(doc SourceDocument, pages [][]string) (time.Time, error) {
	if d, ok := parser.FindReportDate(pages); ok {
		return d, nil
	}
	if !doc.CreatedAt.IsZero() {
		return doc.CreatedAt, nil
	}
	for _, conv := range filenameDateRes {
		if m := conv.re.FindString(doc.Name); m != "" {
			if d, err := time.Parse(conv.layout, m); err == nil {
				return d, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("cannot derive as-of date for %s", doc.Name)
}
