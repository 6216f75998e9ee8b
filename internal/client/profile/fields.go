package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/matchmate/internal/client/models"
	"github.com/dmitrijs2005/matchmate/internal/common"
)

const (
	FieldDateOfBirth = "dateOfBirth"
	FieldAbout       = "about"

	// MinAboutLength is the trimmed length "about" needs to be sent on create.
	MinAboutLength = 20

	dateLayout = "2006-01-02"
)

// MandatoryFields must be non-blank before any save, in reporting order.
var MandatoryFields = []string{
	"gender",
	FieldDateOfBirth,
	"city",
	"nationality",
	"maritalStatus",
	"education",
	"occupation",
	"religiosityLevel",
}

// SyncableFields are compared when computing an update payload, in order.
var SyncableFields = []string{
	"firstName",
	"lastName",
	"gender",
	FieldDateOfBirth,
	"city",
	"country",
	"nationality",
	"ethnicity",
	"maritalStatus",
	"children",
	"education",
	"occupation",
	"religiosityLevel",
	"height",
	"weight",
	"languages",
	FieldAbout,
}

var dateInputLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	dateLayout,
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// NormalizeDate renders a date of birth as a calendar date (YYYY-MM-DD).
// Values in an unknown format are returned trimmed but otherwise verbatim.
func NormalizeDate(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(dateLayout)
		}
	}
	return v
}

func normalize(r models.Record) models.Record {
	if v, ok := r[FieldDateOfBirth]; ok {
		r[FieldDateOfBirth] = NormalizeDate(v)
	}
	return r
}

// DecodeRecord turns a profile response body into a Record. An empty body
// or JSON null is an empty record. A {"data": ...} wrapper and a nested
// "profile" object are unwrapped. Scalars are rendered as strings, string
// arrays are joined with ", ", null values and nested objects are dropped.
func DecodeRecord(raw json.RawMessage) (models.Record, error) {
	out := models.Record{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: profile: %v", common.ErrMalformedResponse, err)
	}

	if inner, ok := obj["data"]; ok {
		if inner == nil {
			return out, nil
		}
		m, ok := inner.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: profile data is %T", common.ErrMalformedResponse, inner)
		}
		obj = m
	}
	if nested, ok := obj["profile"].(map[string]any); ok {
		for k, v := range nested {
			obj[k] = v
		}
	}

	for k, v := range obj {
		if s, ok := scalarString(v); ok {
			out[k] = s
		}
	}
	if out.ID() == "" {
		if id := strings.TrimSpace(out["_id"]); id != "" {
			out[models.ProfileIDField] = id
		}
	}
	delete(out, "_id")
	return normalize(out), nil
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := scalarString(e)
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", "), true
	default:
		return "", false
	}
}
