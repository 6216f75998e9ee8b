package search

import (
	"testing"

	"github.com/dmitrijs2005/matchmate/internal/client/models"
	"github.com/dmitrijs2005/matchmate/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		shape Shape
		ids   []string
	}{
		{
			name:  "strict results",
			raw:   `{"status":"success","data":{"results":[{"user":{"id":"u1"},"profile":{"firstName":"A"}}]},"meta":{"total":1}}`,
			shape: ShapeStrict,
			ids:   []string{"u1"},
		},
		{
			name:  "strict items",
			raw:   `{"status":"ok","data":{"items":[{"user":{"id":"u1"}},{"user":{"id":"u2"}}]}}`,
			shape: ShapeStrict,
			ids:   []string{"u1", "u2"},
		},
		{
			name:  "legacy top-level results",
			raw:   `{"results":[{"user_id":"u3"}]}`,
			shape: ShapeLegacy,
			ids:   []string{"u3"},
		},
		{
			name:  "legacy profiles",
			raw:   `{"status":"SUCCESS","profiles":[{"id":"u4","first_name":"B"}]}`,
			shape: ShapeLegacy,
			ids:   []string{"u4"},
		},
		{
			name:  "legacy data array",
			raw:   `{"status":"success","data":[{"user":{"_id":"u5"}}]}`,
			shape: ShapeLegacy,
			ids:   []string{"u5"},
		},
		{
			name:  "best effort deep",
			raw:   `{"status":"success","payload":{"page":{"hits":[{"user":{"id":"u6"}}]}}}`,
			shape: ShapeBestEffort,
			ids:   []string{"u6"},
		},
		{
			name:  "promoted single object",
			raw:   `{"status":"success","data":{"user":{"id":"u7"},"profile":{"firstName":"C"}},"meta":{"total":1}}`,
			shape: ShapePromoted,
			ids:   []string{"u7"},
		},
		{
			name:  "empty strict",
			raw:   `{"status":"success","data":{"results":[]},"meta":{"total":0}}`,
			shape: ShapeStrict,
		},
		{
			name:  "empty legacy",
			raw:   `{"status":"success","results":[],"extra":[{"id":"noise"}]}`,
			shape: ShapeLegacy,
		},
		{
			name:  "nothing present",
			raw:   `{"status":"success","meta":{"total":0}}`,
			shape: ShapeEmpty,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.shape, env.Shape)

			var ids []string
			for _, r := range Project(env.Records) {
				ids = append(ids, r.User.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestParseEnvelope_StrictBeatsLegacy(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"results":[{"id":"legacy"}],"data":{"results":[{"id":"strict"}]}}`))
	require.NoError(t, err)
	assert.Equal(t, ShapeStrict, env.Shape)
	assert.Equal(t, "strict", Project(env.Records)[0].User.ID)
}

func TestParseEnvelope_EmptyPageIgnoresSiblingArrays(t *testing.T) {
	raw := []byte(`{"status":"success","data":{"results":[]},` +
		`"meta":{"total":0,"links":[{"url":null,"label":"1","active":true}]}}`)

	env, err := ParseEnvelope(raw)

	require.NoError(t, err)
	assert.Equal(t, ShapeStrict, env.Shape)
	assert.Empty(t, Project(env.Records))
}

func TestParseEnvelope_EmptyPageWithPositiveTotal(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"status":"success","data":{"results":[]},"meta":{"total":4}}`))
	require.ErrorIs(t, err, common.ErrMalformedResponse)
	require.NotNil(t, env)
	assert.Empty(t, env.Records)
}

func TestParseEnvelope_BestEffortIsDeterministic(t *testing.T) {
	raw := []byte(`{"b":{"list":[{"id":"from-b"}]},"a":{"list":[{"id":"from-a"}]}}`)
	for i := 0; i < 20; i++ {
		env, err := ParseEnvelope(raw)
		require.NoError(t, err)
		require.Equal(t, "from-a", Project(env.Records)[0].User.ID)
	}
}

func TestParseEnvelope_NoPromotionWithoutSingleTotal(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"status":"success","data":{"user":{"id":"u7"}},"meta":{"total":0}}`))
	require.NoError(t, err)
	assert.Equal(t, ShapeEmpty, env.Shape)
	assert.Empty(t, env.Records)
}

func TestParseEnvelope_Malformed(t *testing.T) {
	_, err := ParseEnvelope([]byte(`<html>oops</html>`))
	require.ErrorIs(t, err, common.ErrMalformedResponse)

	_, err = ParseEnvelope([]byte(`[1,2,3]`))
	require.ErrorIs(t, err, common.ErrMalformedResponse)

	env, err := ParseEnvelope([]byte(`{"status":"success","data":{"count":3},"meta":{"total":3}}`))
	require.ErrorIs(t, err, common.ErrMalformedResponse)
	require.NotNil(t, env)
}

func TestParseEnvelope_Meta(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.Meta
		ok   bool
	}{
		{
			name: "snake meta",
			raw:  `{"meta":{"current_page":2,"last_page":5,"per_page":10,"total":48}}`,
			want: models.Meta{CurrentPage: 2, LastPage: 5, PerPage: 10, Total: 48},
			ok:   true,
		},
		{
			name: "camel pagination with strings",
			raw:  `{"pagination":{"currentPage":"3","totalPages":4,"perPage":"20","totalCount":70}}`,
			want: models.Meta{CurrentPage: 3, LastPage: 4, PerPage: 20, Total: 70},
			ok:   true,
		},
		{
			name: "nested under data",
			raw:  `{"data":{"results":[],"meta":{"page":1,"limit":20,"total":0}}}`,
			want: models.Meta{CurrentPage: 1, PerPage: 20},
			ok:   true,
		},
		{
			name: "absent",
			raw:  `{"data":{"results":[]}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.ok, env.HasMeta)
			assert.Equal(t, tt.want, env.Meta)
		})
	}
}

func TestEnvelope_StatusOK(t *testing.T) {
	for status, want := range map[string]bool{
		"":        true,
		"success": true,
		"OK":      true,
		" ok ":    true,
		"error":   false,
		"pending": false,
	} {
		assert.Equal(t, want, (&Envelope{Status: status}).StatusOK(), status)
	}
}

func TestProject(t *testing.T) {
	recs := []map[string]any{
		{
			"user":    map[string]any{"id": "u1", "email": "a@b.c"},
			"profile": map[string]any{"first_name": "Anna", "marital_status": "single", "age": "31", "photo_url": "http://x/p.jpg", "height": 170.0},
		},
		{"firstName": "Ben", "city": "Riga"},
	}
	got := Project(recs)
	require.Len(t, got, 2)

	assert.Equal(t, models.ResultUser{ID: "u1", Email: "a@b.c"}, got[0].User)
	assert.Equal(t, "Anna", got[0].Profile.FirstName)
	assert.Equal(t, "single", got[0].Profile.MaritalStatus)
	assert.Equal(t, 31, got[0].Profile.Age)
	assert.Equal(t, 170, got[0].Profile.Height)
	assert.Equal(t, "http://x/p.jpg", got[0].Profile.PhotoURL)

	assert.Equal(t, "result-1", got[1].User.ID)
	assert.Equal(t, "Ben", got[1].Profile.FirstName)
	assert.Equal(t, "Riga", got[1].Profile.City)
}

func TestUserFacingMessage(t *testing.T) {
	assert.Equal(t, common.ProfileIncompleteMessage, UserFacingMessage("Gender is required"))
	assert.Equal(t, common.ProfileIncompleteMessage, UserFacingMessage("Missing fields"))
	assert.Equal(t, common.ProfileIncompleteMessage, UserFacingMessage("please COMPLETE onboarding"))
	assert.Equal(t, "rate limited", UserFacingMessage("rate limited"))
}
