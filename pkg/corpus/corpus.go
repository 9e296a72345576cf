// Package corpus loads plain-text documents from disk. A corpus directory
// holds one subdirectory per author, each containing the author's documents
// as .txt files. Files are read once and handed to conversion; nothing is
// cached.
package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrEmptyCorpus is returned when a directory yields no documents.
var ErrEmptyCorpus = errors.New("no documents found")

// Document is one loaded text with its provenance.
type Document struct {
	// Author is the name of the author subdirectory, or the directory base
	// name for flat corpora.
	Author string

	// Path is the file the text was read from.
	Path string

	// Text is the raw document content.
	Text string
}

// LoadDir reads the .txt files directly inside dir, in lexical order. A
// positive limit caps the number of files; limit <= 0 loads all of them.
func LoadDir(dir string, limit int) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory: %w", err)
	}

	author := filepath.Base(dir)
	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		if limit > 0 && len(docs) >= limit {
			break
		}

		path := filepath.Join(dir, entry.Name())
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		docs = append(docs, Document{Author: author, Path: path, Text: string(text)})
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmptyCorpus, dir)
	}
	return docs, nil
}

// LoadDataset reads nDocs documents for each of the first nAuthors author
// subdirectories of root, in lexical order. nAuthors <= 0 loads every
// author; nDocs <= 0 loads every document per author, matching LoadDir's
// limit handling. Documents are returned grouped by author, authors in
// order.
func LoadDataset(root string, nAuthors, nDocs int) ([]Document, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading dataset directory: %w", err)
	}

	var authors []string
	for _, entry := range entries {
		if entry.IsDir() {
			authors = append(authors, entry.Name())
		}
	}
	sort.Strings(authors)

	if len(authors) == 0 {
		return nil, fmt.Errorf("%w: no author directories in %s", ErrEmptyCorpus, root)
	}
	if nAuthors > 0 {
		if len(authors) < nAuthors {
			return nil, fmt.Errorf("dataset has %d author directories, need %d", len(authors), nAuthors)
		}
		authors = authors[:nAuthors]
	}

	var docs []Document
	for _, author := range authors {
		authorDocs, err := LoadDir(filepath.Join(root, author), nDocs)
		if err != nil {
			return nil, err
		}
		if nDocs > 0 && len(authorDocs) < nDocs {
			return nil, fmt.Errorf("author %s has %d documents, need %d", author, len(authorDocs), nDocs)
		}
		docs = append(docs, authorDocs...)
	}

	return docs, nil
}

// Texts extracts the raw texts of docs in order.
func Texts(docs []Document) []string {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	return texts
}
