package profile

import (
	"unicode/utf8"

	"github.com/dmitrijs2005/matchmate/internal/client/models"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var mandatoryRules = func() map[string]any {
	rules := make(map[string]any, len(MandatoryFields))
	for _, f := range MandatoryFields {
		rules[f] = "required"
	}
	return rules
}()

// MissingMandatory lists the mandatory fields that are blank in r, in
// MandatoryFields order.
func MissingMandatory(r models.Record) []string {
	data := make(map[string]any, len(MandatoryFields))
	for _, f := range MandatoryFields {
		data[f] = r.Trimmed(f)
	}
	failed := validate.ValidateMap(data, mandatoryRules)

	var missing []string
	for _, f := range MandatoryFields {
		if _, bad := failed[f]; bad {
			missing = append(missing, f)
		}
	}
	return missing
}

// Change is one syncable field that differs between baseline and working.
type Change struct {
	Field string
	From  string
	To    string
}

// Changes compares trimmed values of every syncable field and returns the
// differing ones in SyncableFields order. A field cleared in working shows
// up with an empty To.
func Changes(baseline, working models.Record) []Change {
	var out []Change
	for _, f := range SyncableFields {
		from, to := baseline.Trimmed(f), working.Trimmed(f)
		if from == to {
			continue
		}
		out = append(out, Change{Field: f, From: from, To: to})
	}
	return out
}

// UpdatePayload is the sparse update body: exactly the changed fields with
// their new trimmed value. An empty string is an explicit clear.
func UpdatePayload(baseline, working models.Record) map[string]string {
	changes := Changes(baseline, working)
	payload := make(map[string]string, len(changes))
	for _, c := range changes {
		v := c.To
		if c.Field == FieldDateOfBirth {
			v = NormalizeDate(v)
		}
		payload[c.Field] = v
	}
	return payload
}

// CreatePayload is the full create body: every mandatory field plus
// "about" when it is long enough.
func CreatePayload(working models.Record) map[string]string {
	payload := make(map[string]string, len(MandatoryFields)+1)
	for _, f := range MandatoryFields {
		payload[f] = working.Trimmed(f)
	}
	payload[FieldDateOfBirth] = NormalizeDate(payload[FieldDateOfBirth])
	if about := working.Trimmed(FieldAbout); utf8.RuneCountInString(about) >= MinAboutLength {
		payload[FieldAbout] = about
	}
	return payload
}
