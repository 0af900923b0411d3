package models

import (
	"fmt"
	"strings"
)

// MetadataTextLimit is the maximum length of verse text stored as index
// metadata. Longer text is truncated with an ellipsis suffix.
const MetadataTextLimit = 500

// VerseRef identifies a verse within the corpus by book, chapter and verse.
type VerseRef struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
}

// String returns the human-readable "book chapter:verse" form.
func (r VerseRef) String() string {
	return fmt.Sprintf("%s %d:%d", r.Book, r.Chapter, r.Verse)
}

// VerseRecord is a single corpus line. Ref is nil when the line did not match
// the expected "<book><chapter>:<verse>: <text>" format; the raw line is then
// retained verbatim in Text. An unparsed record is never dropped.
type VerseRecord struct {
	Ref  *VerseRef `json:"ref,omitempty"`
	Text string    `json:"text"`
}

// Parsed reports whether the record carries valid location data.
func (v VerseRecord) Parsed() bool {
	return v.Ref != nil
}

// LocationLabel returns the verse location for logging and index IDs.
// Unparsed records render as "Unknown Unknown:Unknown", matching the labels
// the index already contains.
func (v VerseRecord) LocationLabel() string {
	if v.Ref == nil {
		return "Unknown Unknown:Unknown"
	}
	return v.Ref.String()
}

// EmbeddedVerse is a verse record together with its embedding vector.
// Serialized as a flat JSON record so the embedding stage's output artifact is
// stable and replayable by the upload stage.
type EmbeddedVerse struct {
	VerseRecord
	Embedding []float32 `json:"embedding"`
}

// IndexEntry is the upsert payload for one verse in the vector index.
type IndexEntry struct {
	ID       string        `json:"id"`
	Values   []float32     `json:"values"`
	Metadata EntryMetadata `json:"metadata"`
}

// EntryMetadata is the metadata stored alongside each vector. Location fields
// are strings so unparsed verses can carry the "Unknown" label.
type EntryMetadata struct {
	Book    string `json:"book"`
	Chapter string `json:"chapter"`
	Verse   string `json:"verse"`
	Text    string `json:"text"`
}

// IndexEntry converts the embedded verse into an index entry. globalIndex is
// the verse's absolute position in the corpus, which keeps IDs unique even
// when distinct unparsed records share the "Unknown" location labels.
func (e EmbeddedVerse) IndexEntry(globalIndex int) IndexEntry {
	book, chapter, verse := "Unknown", "Unknown", "Unknown"
	if e.Ref != nil {
		book = e.Ref.Book
		chapter = fmt.Sprintf("%d", e.Ref.Chapter)
		verse = fmt.Sprintf("%d", e.Ref.Verse)
	}

	// Truncate by runes so multi-byte text (the corpus is Korean) is never
	// split mid-character.
	text := e.Text
	if runes := []rune(text); len(runes) > MetadataTextLimit {
		text = string(runes[:MetadataTextLimit]) + "..."
	}

	return IndexEntry{
		ID:     fmt.Sprintf("%s-%s-%s-%d", book, chapter, verse, globalIndex),
		Values: e.Embedding,
		Metadata: EntryMetadata{
			Book:    book,
			Chapter: chapter,
			Verse:   verse,
			Text:    text,
		},
	}
}

// RetrievalMatch is one nearest-neighbor result from the vector index.
type RetrievalMatch struct {
	Score    float64       `json:"score"`
	Metadata EntryMetadata `json:"metadata"`
}

// Citation renders the match as a "<book> <chapter>:<verse>: <text>" line for
// prompt assembly. Empty metadata fields fall back to the same labels the
// original index population used.
func (m RetrievalMatch) Citation() string {
	book := m.Metadata.Book
	if book == "" {
		book = "Unknown"
	}
	chapter := m.Metadata.Chapter
	if chapter == "" {
		chapter = "Unknown"
	}
	verse := m.Metadata.Verse
	if verse == "" {
		verse = "Unknown"
	}
	text := strings.TrimSpace(m.Metadata.Text)
	if text == "" {
		text = "(no text)"
	}
	return fmt.Sprintf("%s %s:%s: %s", book, chapter, verse, text)
}
