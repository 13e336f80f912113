package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Record is one decoded run-log line.
type Record struct {
	Time      time.Time
	Level     string
	Message   string
	Stage     string
	Language  string
	EventType string
	// Attrs holds the remaining fields, excluding the ones above.
	Attrs map[string]any
}

var promoted = map[string]struct{}{
	"time": {}, "level": {}, "msg": {}, "stage": {}, "language": {}, "event_type": {},
}

// Parse decodes a JSON log line. Lines that are not JSON objects are
// returned as a bare message so nothing is hidden.
func Parse(line string) Record {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Record{Message: line}
	}
	rec := Record{
		Level:     stringField(raw, "level"),
		Message:   stringField(raw, "msg"),
		Stage:     stringField(raw, "stage"),
		Language:  stringField(raw, "language"),
		EventType: stringField(raw, "event_type"),
	}
	if ts := stringField(raw, "time"); ts != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			rec.Time = parsed
		}
	}
	for key, value := range raw {
		if _, ok := promoted[key]; ok {
			continue
		}
		if rec.Attrs == nil {
			rec.Attrs = make(map[string]any)
		}
		rec.Attrs[key] = value
	}
	return rec
}

func stringField(raw map[string]any, key string) string {
	if value, ok := raw[key].(string); ok {
		return value
	}
	return ""
}

// Filter selects records. Empty fields match everything.
type Filter struct {
	Stage    string
	Language string
	// MinLevel drops records below the level (DEBUG, INFO, WARN, ERROR).
	MinLevel string
}

var levelRank = map[string]int{"DEBUG": 0, "INFO": 1, "WARN": 2, "ERROR": 3}

// Match reports whether rec passes f.
func (f Filter) Match(rec Record) bool {
	if f.Stage != "" && rec.Stage != f.Stage {
		return false
	}
	if f.Language != "" && rec.Language != f.Language {
		return false
	}
	if min, ok := levelRank[strings.ToUpper(f.MinLevel)]; ok {
		if rank, known := levelRank[strings.ToUpper(rec.Level)]; known && rank < min {
			return false
		}
	}
	return true
}

// Format renders rec as a single console line.
func Format(rec Record) string {
	var b strings.Builder
	if !rec.Time.IsZero() {
		b.WriteString(rec.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	if rec.Level != "" {
		fmt.Fprintf(&b, "%-5s ", rec.Level)
	}
	if rec.Stage != "" {
		b.WriteString("[" + rec.Stage)
		if rec.Language != "" {
			b.WriteString("/" + rec.Language)
		}
		b.WriteString("] ")
	}
	b.WriteString(rec.Message)

	keys := make([]string, 0, len(rec.Attrs))
	for key := range rec.Attrs {
		switch key {
		case "component", "content_dir", "content_id", "correlation_id":
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, rec.Attrs[key])
	}
	return b.String()
}
