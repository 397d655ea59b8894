package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawBoard is an untrusted board payload, as saved by a client or read back
// from storage. Entries are kept loosely typed; Normalize turns them into a
// Board.
type RawBoard struct {
	People    []any `json:"people"`
	Tasks     []any `json:"tasks"`
	Templates []any `json:"templates"`
	UpdatedAt any   `json:"updated_at,omitempty"`
}

// DecodeRawBoard decodes a JSON document into a RawBoard. Only a document that
// is not a JSON object is rejected; any non-list field is treated as empty.
func DecodeRawBoard(data []byte) (RawBoard, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return RawBoard{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return RawBoardFromMap(doc), nil
}

// RawBoardFromMap builds a RawBoard from an already decoded JSON object.
func RawBoardFromMap(doc map[string]any) RawBoard {
	return RawBoard{
		People:    asList(doc["people"]),
		Tasks:     asList(doc["tasks"]),
		Templates: asList(doc["templates"]),
		UpdatedAt: doc["updated_at"],
	}
}

// ToRaw converts a typed board back into its loosely typed form so it can be
// pushed through the normalizer again. Every field is copied; timestamps the
// normalizer cannot read back fall to its defaults there.
func (b Board) ToRaw() RawBoard {
	people := make([]any, 0, len(b.People))
	for _, p := range b.People {
		people = append(people, map[string]any{"id": p.ID, "name": p.Name, "color": p.Color})
	}

	tasks := make([]any, 0, len(b.Tasks))
	for _, t := range b.Tasks {
		rec := map[string]any{
			"id":         t.ID,
			"title":      t.Title,
			"assignees":  stringsToAny(t.Assignees),
			"column":     string(t.Column),
			"order":      float64(t.Order),
			"created_at": t.CreatedAt.Format(time.RFC3339Nano),
			"fixed":      t.Fixed,
		}
		if t.EndDate != nil {
			rec["end_date"] = t.EndDate.String()
		}
		if t.TemplateID != "" {
			rec["template_id"] = t.TemplateID
		}
		if t.WeekStart != nil {
			rec["week_start"] = t.WeekStart.String()
		}
		if t.SpanID != "" {
			rec["span_id"] = t.SpanID
		}
		tasks = append(tasks, rec)
	}

	templates := make([]any, 0, len(b.Templates))
	for _, tpl := range b.Templates {
		weekdays := make([]any, 0, len(tpl.Weekdays))
		for _, d := range tpl.Weekdays {
			weekdays = append(weekdays, string(d))
		}
		templates = append(templates, map[string]any{
			"id":         tpl.ID,
			"title":      tpl.Title,
			"assignees":  stringsToAny(tpl.Assignees),
			"end_date":   tpl.EndDate.String(),
			"weekdays":   weekdays,
			"created_at": tpl.CreatedAt.Format(time.RFC3339Nano),
		})
	}

	return RawBoard{
		People:    people,
		Tasks:     tasks,
		Templates: templates,
		UpdatedAt: b.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func stringsToAny(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func asList(value any) []any {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	return list
}

// record is one loosely typed entry of a raw list.
type record map[string]any

func asRecord(value any) (record, bool) {
	m, ok := value.(map[string]any)
	return record(m), ok
}

// str mirrors a permissive "value or empty" string read: nil, false and
// empty values become "".
func (r record) str(key string) string {
	return stringify(r[key])
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if !v {
			return ""
		}
		return "true"
	case float64:
		if v == 0 {
			return ""
		}
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// strList reads a list of scalar values as trimmed strings. Non-list values
// yield nil.
func (r record) strList(key string) []string {
	list, ok := r[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		switch item.(type) {
		case map[string]any, []any, nil:
			continue
		}
		s := strings.TrimSpace(stringify(item))
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// intOr coerces a number or numeric string, falling back to def.
func (r record) intOr(key string, def int) int {
	switch v := r[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return def
		}
		return int(v)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int(f)
		}
	case bool:
		if v {
			return 1
		}
		return 0
	}
	return def
}

// truthy reads a loosely typed flag.
func (r record) truthy(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	return false
}
