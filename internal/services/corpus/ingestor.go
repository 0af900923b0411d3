package corpus

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scriptura/internal/models"
)

// verseLineRegex matches "<book><chapter>:<verse>: <text>" with the book name
// immediately adjacent to the chapter number, e.g. "창세기1:1: 태초에...".
var verseLineRegex = regexp.MustCompile(`^(.+?)(\d+):(\d+):\s(.+)$`)

// Ingestor parses a verse-tagged text corpus into verse records. Parsing is
// deliberately lenient: a malformed line becomes an unparsed record with the
// raw text retained, never an error, so one bad line cannot halt ingestion of
// a multi-thousand-line corpus.
type Ingestor struct {
	logger arbor.ILogger
}

// NewIngestor creates a new corpus ingestor
func NewIngestor(logger arbor.ILogger) *Ingestor {
	return &Ingestor{logger: logger}
}

// Parse converts raw corpus lines into verse records, one record per input
// line. No line is ever dropped; the output always has the same length as
// the input.
func (i *Ingestor) Parse(lines []string) []models.VerseRecord {
	records := make([]models.VerseRecord, 0, len(lines))
	unparsed := 0

	for _, line := range lines {
		record := i.ParseLine(line)
		if !record.Parsed() {
			unparsed++
		}
		records = append(records, record)
	}

	i.logger.Info().
		Int("total", len(records)).
		Int("unparsed", unparsed).
		Msg("Corpus parsed")

	return records
}

// ParseLine parses a single corpus line. A line that does not match the
// verse pattern yields an unparsed record carrying the trimmed raw line.
func (i *Ingestor) ParseLine(line string) models.VerseRecord {
	match := verseLineRegex.FindStringSubmatch(line)
	if match == nil {
		if strings.TrimSpace(line) != "" {
			i.logger.Warn().
				Str("line", line).
				Msg("Verse line did not match expected format, keeping as unparsed")
		}
		return models.VerseRecord{Text: strings.TrimSpace(line)}
	}

	chapter, chErr := strconv.Atoi(match[2])
	verse, vsErr := strconv.Atoi(match[3])
	if chErr != nil || vsErr != nil {
		// Only reachable on absurd digit runs that overflow int; treat the
		// line as unparsed rather than failing ingestion.
		i.logger.Warn().
			Str("line", line).
			Msg("Verse location out of range, keeping as unparsed")
		return models.VerseRecord{Text: strings.TrimSpace(line)}
	}

	return models.VerseRecord{
		Ref: &models.VerseRef{
			Book:    strings.TrimSpace(match[1]),
			Chapter: chapter,
			Verse:   verse,
		},
		Text: strings.TrimSpace(match[4]),
	}
}

// LoadFile reads a UTF-8 corpus file, one verse per line, and parses it.
func (i *Ingestor) LoadFile(path string) ([]models.VerseRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus file %s: %w", path, err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus file %s: %w", path, err)
	}

	i.logger.Info().
		Str("path", path).
		Int("lines", len(lines)).
		Msg("Corpus file loaded")

	return i.Parse(lines), nil
}
