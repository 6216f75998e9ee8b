package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/matchmate/internal/client/models"
	"github.com/dmitrijs2005/matchmate/internal/common"
)

// Shape names the envelope variant results were extracted from.
type Shape string

const (
	ShapeStrict     Shape = "strict"
	ShapeLegacy     Shape = "legacy"
	ShapeBestEffort Shape = "best_effort"
	ShapePromoted   Shape = "promoted"
	ShapeEmpty      Shape = "empty"
)

// Envelope is a parsed search response.
type Envelope struct {
	// Status is the raw status value, "" when the envelope has none.
	Status  string
	Message string
	Records []map[string]any
	Meta    models.Meta
	HasMeta bool
	Shape   Shape
}

// StatusOK reports whether Status is a recognized success value.
func (e *Envelope) StatusOK() bool {
	switch strings.ToLower(strings.TrimSpace(e.Status)) {
	case "", "success", "ok":
		return true
	}
	return false
}

// A variant reports whether its location was present, separately from the
// records found there: an empty array is a match with zero results.
type variant struct {
	shape Shape
	parse func(env map[string]any) ([]map[string]any, bool)
}

// variants are tried in order; the first that matches wins.
var variants = []variant{
	{ShapeStrict, parseStrict},
	{ShapeLegacy, parseLegacy},
	{ShapeBestEffort, parseBestEffort},
}

// ParseEnvelope decodes a search response body. It fails with
// common.ErrMalformedResponse when the body is not a JSON object or when
// no records could be found although the metadata reports some.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var env map[string]any
	if err := dec.Decode(&env); err != nil || env == nil {
		return nil, fmt.Errorf("%w: search response is not a JSON object", common.ErrMalformedResponse)
	}

	out := &Envelope{
		Status:  scalar(env["status"]),
		Message: scalar(first(env, "message", "error", "detail")),
		Shape:   ShapeEmpty,
	}
	out.Meta, out.HasMeta = parseMeta(env)

	for _, v := range variants {
		if recs, ok := v.parse(env); ok {
			out.Records, out.Shape = recs, v.shape
			break
		}
	}
	if out.Shape == ShapeEmpty {
		if recs := promoteSingle(env, out.Meta); len(recs) > 0 {
			out.Records, out.Shape = recs, ShapePromoted
		}
	}

	if len(out.Records) == 0 && out.StatusOK() && out.Meta.Total > 0 {
		return out, fmt.Errorf("%w: no results found in envelope but total is %d", common.ErrMalformedResponse, out.Meta.Total)
	}
	return out, nil
}

// parseStrict reads the current contract: data.results or data.items.
func parseStrict(env map[string]any) ([]map[string]any, bool) {
	data, ok := env["data"].(map[string]any)
	if !ok {
		return nil, false
	}
	for _, key := range []string{"results", "items"} {
		if recs, ok := arrayAt(data[key]); ok {
			return recs, true
		}
	}
	return nil, false
}

// parseLegacy reads older shapes: a top-level results, items or profiles
// array, or data itself being the array.
func parseLegacy(env map[string]any) ([]map[string]any, bool) {
	for _, key := range []string{"results", "items", "profiles", "data"} {
		if recs, ok := arrayAt(env[key]); ok {
			return recs, true
		}
	}
	return nil, false
}

// parseBestEffort adopts the first array of objects found by a depth-first
// walk with keys visited in sorted order. It is ambiguous when an envelope
// holds several arrays, so callers log when it is used.
func parseBestEffort(env map[string]any) ([]map[string]any, bool) {
	recs := findObjects(env)
	return recs, len(recs) > 0
}

func findObjects(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if recs := findObjects(t[k]); len(recs) > 0 {
				return recs
			}
		}
	case []any:
		if recs := objects(t); len(recs) > 0 {
			return recs
		}
		for _, e := range t {
			if recs := findObjects(e); len(recs) > 0 {
				return recs
			}
		}
	}
	return nil
}

// promoteSingle wraps a bare data object into a one-element list when the
// metadata reports exactly one result. Compatibility shim for backends that
// unwrap single-result pages.
func promoteSingle(env map[string]any, meta models.Meta) []map[string]any {
	if meta.Total != 1 {
		return nil
	}
	data, ok := env["data"].(map[string]any)
	if !ok || !looksLikeResult(data) {
		return nil
	}
	return []map[string]any{data}
}

func looksLikeResult(m map[string]any) bool {
	for _, k := range []string{"user", "profile", "id", "_id", "userId", "user_id", "firstName", "first_name"} {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// arrayAt reports whether v is an array and returns its object elements.
// Non-object elements are skipped.
func arrayAt(v any) ([]map[string]any, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]map[string]any, 0, len(arr))
	for _, e := range arr {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, true
}

// objects returns the object elements of v when v is an array whose first
// element is an object.
func objects(v any) []map[string]any {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return nil
	}
	if _, ok := arr[0].(map[string]any); !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(arr))
	for _, e := range arr {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func parseMeta(env map[string]any) (models.Meta, bool) {
	var block map[string]any
	for _, key := range []string{"meta", "pagination"} {
		if m, ok := env[key].(map[string]any); ok {
			block = m
			break
		}
	}
	if block == nil {
		if data, ok := env["data"].(map[string]any); ok {
			block, _ = first(data, "meta", "pagination").(map[string]any)
		}
	}
	if block == nil {
		return models.Meta{}, false
	}
	return models.Meta{
		CurrentPage: number(first(block, "current_page", "currentPage", "page")),
		LastPage:    number(first(block, "last_page", "lastPage", "total_pages", "totalPages")),
		PerPage:     number(first(block, "per_page", "perPage", "limit", "page_size", "pageSize")),
		Total:       number(first(block, "total", "total_count", "totalCount")),
	}, true
}

// first returns the value of the first key present in m.
func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func number(v any) int {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
		if f, err := t.Float64(); err == nil {
			return int(f)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	case float64:
		return int(t)
	}
	return 0
}
