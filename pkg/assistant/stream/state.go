package stream

import (
	"fmt"
	"regexp"
	"strings"

	"library-ai-be/pkg/assistant/catalog"
)

// BoundaryMarker ends the model's reasoning inside the answer text.
const BoundaryMarker = "</think>"

var titlePattern = regexp.MustCompile(`《([^》]+)》`)

// maxOpenTitle bounds how far back an unclosed 《 keeps the scan window open.
const maxOpenTitle = 256

// State is the per-turn accumulator. It is owned by exactly one turn and is
// not safe for concurrent use. The chunk counter and the title set only grow,
// and every resolved title is a member of the title set.
type State struct {
	buf      strings.Builder
	scanFrom int
	chunks   int
	sawThink bool
	titles   []string
	seen     map[string]struct{}
	resolved map[string]catalog.Record
}

func NewState() *State {
	return &State{
		seen:     make(map[string]struct{}),
		resolved: make(map[string]catalog.Record),
	}
}

// Append adds text to the buffer and records any title it completes,
// including titles split across frames.
func (s *State) Append(text string) {
	if text == "" {
		return
	}
	s.buf.WriteString(text)

	full := s.buf.String()
	pending := full[s.scanFrom:]
	consumed := 0
	for _, m := range titlePattern.FindAllStringSubmatchIndex(pending, -1) {
		s.addTitle(pending[m[2]:m[3]])
		consumed = m[1]
	}

	rest := pending[consumed:]
	if open := strings.LastIndex(rest, "《"); open >= 0 && !strings.Contains(rest[open:], "》") && len(rest)-open <= maxOpenTitle {
		s.scanFrom += consumed + open
		return
	}
	s.scanFrom = len(full)
}

// AppendRaw adds text to the buffer without title detection. Text the
// service writes itself, such as the enrichment summary, goes through here.
func (s *State) AppendRaw(text string) {
	s.buf.WriteString(text)
	s.scanFrom = s.buf.Len()
}

func (s *State) addTitle(title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	if _, ok := s.seen[title]; ok {
		return
	}
	s.seen[title] = struct{}{}
	s.titles = append(s.titles, title)
}

func (s *State) countChunk() {
	s.chunks++
}

func (s *State) markThink() {
	s.sawThink = true
}

// Resolve records a catalog hit for a detected title.
func (s *State) Resolve(title string, rec catalog.Record) error {
	if _, ok := s.seen[title]; !ok {
		return fmt.Errorf("resolve %q: title was never detected", title)
	}
	s.resolved[title] = rec
	return nil
}

func (s *State) Text() string {
	return s.buf.String()
}

func (s *State) Chunks() int {
	return s.chunks
}

func (s *State) SawThink() bool {
	return s.sawThink
}

// Titles returns the detected titles in order of first appearance.
func (s *State) Titles() []string {
	out := make([]string, len(s.titles))
	copy(out, s.titles)
	return out
}

func (s *State) HasTitle(title string) bool {
	_, ok := s.seen[title]
	return ok
}

func (s *State) Resolved(title string) (catalog.Record, bool) {
	rec, ok := s.resolved[title]
	return rec, ok
}

func (s *State) ResolvedCount() int {
	return len(s.resolved)
}

// AfterBoundary returns the text following the last reasoning boundary, or
// all of text when there is none.
func AfterBoundary(text string) string {
	if idx := strings.LastIndex(text, BoundaryMarker); idx >= 0 {
		return text[idx+len(BoundaryMarker):]
	}
	return text
}

// ExtractTitles lists the distinct non-empty titles quoted in text, in order
// of first appearance.
func ExtractTitles(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range titlePattern.FindAllStringSubmatch(text, -1) {
		title := strings.TrimSpace(m[1])
		if title == "" {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, title)
	}
	return out
}
