// Package stringtable loads game string tables (*.string_table.xml), exposes
// the entries of one language section for translation and writes the
// document back out.
//
// The expected layout is:
//
//	<root>
//	    <language id="english">
//	        <entry id="str_key">Text</entry>
//	    </language>
//	    <language id="schinese">...</language>
//	</root>
package stringtable

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	rootTag     = "root"
	languageTag = "language"
	entryTag    = "entry"
	idAttr      = "id"

	// DefaultLanguage is the language section translated when none is given.
	DefaultLanguage = "schinese"
)

var (
	ErrInvalidSource     = errors.New("source is not readable")
	ErrRootMismatch      = errors.New("root element must be <root>")
	ErrUnexpectedSection = errors.New("children of <root> must all be <language>")
	ErrLanguageNotFound  = errors.New("no <language> section with the requested id")
	ErrIndexOutOfRange   = errors.New("entry index out of range")
)

// Document is a parsed string table. Only the entries of the active language
// section that carry text are exposed; they are addressed by their index in
// document order.
type Document struct {
	root     *Node
	language string
	section  *Node
	entries  []*Node
}

// New parses a string table from r and selects the language section whose id
// equals languageID (DefaultLanguage when empty).
func New(r io.Reader, languageID string) (*Document, error) {
	if r == nil {
		return nil, ErrInvalidSource
	}
	if languageID == "" {
		languageID = DefaultLanguage
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}

	root, err := parseTree(data)
	if err != nil {
		return nil, err
	}

	section, err := LocateLanguageSection(root, languageID)
	if err != nil {
		return nil, err
	}

	d := &Document{root: root, language: languageID, section: section}
	for _, e := range section.ChildrenNamed(entryTag) {
		if e.HasText() {
			d.entries = append(d.entries, e)
		}
	}

	log.Debug().
		Str("language", languageID).
		Int("translatable", len(d.entries)).
		Msg("Loaded string table")

	return d, nil
}

// Open parses the string table at path.
func Open(path, languageID string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open string table: %w", err)
	}
	defer f.Close()

	d, err := New(f, languageID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// LocateLanguageSection validates the document shape and returns the
// <language> section with the given id.
func LocateLanguageSection(root *Node, languageID string) (*Node, error) {
	if root == nil || root.Name != rootTag {
		name := ""
		if root != nil {
			name = root.Name
		}
		return nil, fmt.Errorf("%w: got <%s>", ErrRootMismatch, name)
	}

	for _, c := range root.Children {
		if c.Name != languageTag {
			return nil, fmt.Errorf("%w: found <%s>", ErrUnexpectedSection, c.Name)
		}
	}

	for _, c := range root.Children {
		if id, _ := c.Attr(idAttr); id == languageID {
			return c, nil
		}
	}

	return nil, fmt.Errorf("%w: id=%q", ErrLanguageNotFound, languageID)
}

// Language returns the id of the active language section.
func (d *Document) Language() string { return d.language }

// Len returns the number of translatable entries.
func (d *Document) Len() int { return len(d.entries) }

// Text returns the current text of entry i.
func (d *Document) Text(i int) (string, error) {
	if i < 0 || i >= len(d.entries) {
		return "", fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return d.entries[i].Text, nil
}

// ID returns the id attribute of entry i, or "" if it has none.
func (d *Document) ID(i int) string {
	if i < 0 || i >= len(d.entries) {
		return ""
	}
	id, _ := d.entries[i].Attr(idAttr)
	return id
}

// SetText replaces the text of entry i. The new text is written back as
// CDATA so markup in translations is not escaped.
func (d *Document) SetText(i int, text string) error {
	if i < 0 || i >= len(d.entries) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	d.entries[i].Text = text
	d.entries[i].Raw = true
	return nil
}

// Serialize renders the whole document, including the sections not being
// translated.
func (d *Document) Serialize(pretty bool) string {
	var sb strings.Builder
	// strings.Builder never fails a write.
	_ = render(&sb, d.root, pretty)
	return sb.String()
}

// WriteTo writes the pretty-printed document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.Serialize(true))
	return int64(n), err
}

// WriteFile writes the document to path as UTF-8.
func (d *Document) WriteFile(path string, pretty bool) error {
	if err := os.WriteFile(path, []byte(d.Serialize(pretty)), 0644); err != nil {
		return fmt.Errorf("write string table: %w", err)
	}

	log.Info().Str("path", path).Int("entries", len(d.entries)).Msg("String table written")
	return nil
}
