package crawler

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// WordCount is one entry of the ranked result
type WordCount struct {
	Word  string
	Count int
}

// Result is the outcome of a crawl
type Result struct {
	WordCounts  []WordCount // Top words, ranked; empty if no page was fetched
	URLsVisited int         // Distinct URLs claimed during the crawl
}

// MarshalJSON renders the result as
//
//	{"wordCounts":{"dog":4,"cat":3},"urlsVisited":2}
//
// keeping the word counts in rank order.
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"wordCounts":{`)
	for i, wc := range r.WordCounts {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(wc.Word)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal word %q: %w", wc.Word, err)
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", wc.Count)
	}
	fmt.Fprintf(&buf, `},"urlsVisited":%d}`, r.URLsVisited)
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the format written by MarshalJSON, preserving the
// order of the word counts.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw struct {
		WordCounts  json.RawMessage `json:"wordCounts"`
		URLsVisited int             `json:"urlsVisited"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.URLsVisited = raw.URLsVisited
	r.WordCounts = nil
	if len(raw.WordCounts) == 0 || string(raw.WordCounts) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.WordCounts))
	if _, err := dec.Token(); err != nil { // {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		word, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected word token %v", tok)
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("failed to decode count for %q: %w", word, err)
		}
		r.WordCounts = append(r.WordCounts, WordCount{Word: word, Count: count})
	}
	return nil
}
