// Package sniff recovers tabular structure from raw CSV text: which
// delimiter splits the columns and which row carries the header. Both
// detectors are best-effort and never fail; the worst case is a default
// guess (comma, row 0).
package sniff

import (
	"encoding/csv"
	"strings"
)

// Dialect describes the structure recovered from a CSV byte stream.
// HeaderRow is the 1-based position of the header among parsed rows, 0
// when the input has no header.
type Dialect struct {
	Delimiter rune
	HeaderRow int
	Columns   []string
}

// sampleLines bounds how many lines delimiter detection inspects.
const sampleLines = 30

var delimiterCandidates = []rune{',', '\t', ';'}

// DetectDelimiter picks the candidate delimiter (comma, tab, semicolon)
// whose column counts are most consistent over the first sampled lines.
// The score is mode frequency times mode column count, with a
// single-column mode scoring zero so a delimiter that never splits
// anything cannot win. Comma wins ties and empty input.
func DetectDelimiter(lines []string, commentPrefix string) rune {
	filtered := FilterComments(lines, commentPrefix)
	if len(filtered) > sampleLines {
		filtered = filtered[:sampleLines]
	}

	best := ','
	bestScore := -1
	for _, delim := range delimiterCandidates {
		var counts []int
		for _, line := range filtered {
			if strings.TrimSpace(line) == "" {
				continue
			}
			r := csv.NewReader(strings.NewReader(line))
			r.Comma = delim
			r.FieldsPerRecord = -1
			r.LazyQuotes = true
			record, err := r.Read()
			if err != nil {
				continue
			}
			counts = append(counts, len(record))
		}
		if len(counts) == 0 {
			continue
		}
		modeVal, modeFreq := mode(counts)
		score := 0
		if modeVal > 1 {
			score = modeFreq * modeVal
		}
		if score > bestScore {
			bestScore = score
			best = delim
		}
	}
	return best
}

// FindHeaderRow returns the index of the first row whose length matches
// the stable column count: the most frequent length among non-blank rows,
// preferring one that occurs in at least minSameCount rows so a one-off
// preamble line cannot dictate the shape. Returns 0 when undecidable.
func FindHeaderRow(rows [][]string, minSameCount int) int {
	var lengths []int
	for _, row := range rows {
		if !IsBlankRow(row) {
			lengths = append(lengths, len(row))
		}
	}
	if len(lengths) == 0 {
		return 0
	}

	ranked := rankByFrequency(lengths)
	best := -1
	for _, entry := range ranked {
		if entry.freq >= minSameCount {
			best = entry.val
			break
		}
	}
	if best < 0 {
		best = ranked[0].val
	}

	for i, row := range rows {
		if len(row) == best {
			return i
		}
	}
	return 0
}

// IsBlankRow reports whether every cell is empty or whitespace.
func IsBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// FilterComments drops lines whose trimmed form starts with commentPrefix.
func FilterComments(lines []string, commentPrefix string) []string {
	if commentPrefix == "" {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && strings.HasPrefix(trimmed, commentPrefix) {
			continue
		}
		out = append(out, line)
	}
	return out
}

type freqEntry struct {
	val  int
	freq int
}

// mode returns the most frequent value and its frequency; ties resolve to
// the value seen first.
func mode(values []int) (int, int) {
	ranked := rankByFrequency(values)
	return ranked[0].val, ranked[0].freq
}

// rankByFrequency orders distinct values by descending frequency, with
// first appearance breaking ties.
func rankByFrequency(values []int) []freqEntry {
	index := make(map[int]int)
	var ranked []freqEntry
	for _, v := range values {
		if at, ok := index[v]; ok {
			ranked[at].freq++
			continue
		}
		index[v] = len(ranked)
		ranked = append(ranked, freqEntry{val: v, freq: 1})
	}
	// Insertion-stable selection sort keeps first-seen order on ties.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].freq > ranked[j-1].freq; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return ranked
}
