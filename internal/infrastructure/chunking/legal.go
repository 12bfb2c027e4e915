package chunking

import (
	"regexp"
	"strings"

	"github.com/vietlawhub/legal-gateway/internal/core/domain"
)

var (
	chapterPattern = regexp.MustCompile(`(?i)^(?:[#*]+\s*)?(Chương\s+[IVXLCDM]+\b.*)`)
	articlePattern = regexp.MustCompile(`(?i)^(?:[#*]+\s*)?(Điều\s+(\d+))\b`)
)

const defaultChapter = "QUY ĐỊNH CHUNG"

// LegalSplitter cuts statute text along its structural headings (Chương /
// Điều). Each article becomes one chunk; oversized articles fall back to a
// recursive size-bounded split that keeps the article label on every piece.
type LegalSplitter struct {
	ChunkSize int
	Overlap   int
}

func NewLegalSplitter(chunkSize, overlap int) *LegalSplitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &LegalSplitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *LegalSplitter) Split(text string) []domain.LegalChunk {
	var out []domain.LegalChunk

	chapter := defaultChapter
	article := ""
	chapterPending := false
	var body []string

	flush := func() {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		body = body[:0]
		if content == "" {
			return
		}
		for _, piece := range s.splitBySize(content) {
			out = append(out, domain.LegalChunk{
				Chapter: chapter,
				Article: article,
				Text:    piece,
			})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := chapterPattern.FindStringSubmatch(line); m != nil {
			flush()
			chapter = strings.TrimSpace(strings.ReplaceAll(m[1], "*", ""))
			chapterPending = true
			continue
		}
		if m := articlePattern.FindStringSubmatch(line); m != nil {
			flush()
			article = "Điều " + m[2]
			chapterPending = false
			body = append(body, line)
			continue
		}
		// Gazette layout puts the chapter title in capitals on the line
		// after the "Chương N" heading.
		if chapterPending && line == strings.ToUpper(line) {
			chapter += " " + strings.TrimSpace(strings.ReplaceAll(line, "*", ""))
			chapterPending = false
			continue
		}
		chapterPending = false
		body = append(body, line)
	}
	flush()

	return out
}

// splitBySize applies the separator ladder recursively until every piece fits
// the chunk size.
func (s *LegalSplitter) splitBySize(text string) []string {
	return s.recursiveSplit(text, []string{"\n\n", "\n", ". ", "; ", " "})
}

func (s *LegalSplitter) recursiveSplit(text string, separators []string) []string {
	if len([]rune(text)) <= s.ChunkSize {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}
	if len(separators) == 0 {
		return s.hardSplit(text)
	}

	separator := separators[0]
	rest := separators[1:]
	if !strings.Contains(text, separator) {
		return s.recursiveSplit(text, rest)
	}

	var out []string
	var current string
	for _, part := range strings.Split(text, separator) {
		if strings.TrimSpace(part) == "" {
			continue
		}

		candidate := part
		if current != "" {
			candidate = current + separator + part
		}
		if len([]rune(candidate)) <= s.ChunkSize {
			current = candidate
			continue
		}

		if current != "" {
			out = append(out, strings.TrimSpace(current))
		}
		if len([]rune(part)) > s.ChunkSize {
			out = append(out, s.recursiveSplit(part, rest)...)
			current = ""
			continue
		}
		current = part
	}
	if trimmed := strings.TrimSpace(current); trimmed != "" {
		out = append(out, trimmed)
	}
	return out
}

// hardSplit is the last resort: fixed-size rune windows with overlap.
func (s *LegalSplitter) hardSplit(text string) []string {
	runes := []rune(text)
	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			out = append(out, piece)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
