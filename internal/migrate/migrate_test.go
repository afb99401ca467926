package migrate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bunchhieng/coursetree/internal/model"
)

func TestDecode_LegacyArray(t *testing.T) {
	raw := []byte(`[
		{"id": "c1", "name": "Calculus I", "year": 1, "status": "completed", "rating": null, "review": null, "url": "https://www.khanacademy.org/calc"},
		{"id": "c2", "name": "Physics", "year": 2, "status": "locked", "rating": null, "review": null}
	]`)

	res := Decode(raw)
	require.NoError(t, res.Err)
	assert.Equal(t, ShapeArray, res.Shape)
	assert.True(t, res.Migrated)

	doc := res.Doc
	require.Len(t, doc.Courses, 2)
	require.Len(t, doc.Courses[0].Resources, 1)
	assert.Equal(t, "https://www.khanacademy.org/calc", doc.Courses[0].Resources[0].URL)
	assert.Equal(t, "khanacademy.org", doc.Courses[0].Resources[0].Title)
	assert.Empty(t, doc.Courses[1].Resources)
	assert.NotNil(t, doc.Courses[1].Resources)

	assert.Equal(t, model.DefaultTitle, doc.Title)
	assert.Equal(t, 0, doc.Likes)
	assert.Nil(t, doc.ContactInfo)
	assert.Equal(t, model.AnonymousAuthor, doc.Author())
}

func TestDecode_Envelope(t *testing.T) {
	raw := []byte(`{
		"title": "Alice's plan",
		"likes": 7,
		"contact_info": "alice@example.com",
		"author_name": "Alice",
		"courses": [
			{"id": "c1", "name": "Algorithms", "year": 2, "status": "reviewed", "rating": 5, "review": "great",
			 "prof_review": "clear lectures",
			 "resources": [{"id": "r1", "url": "https://example.com/algo", "title": "Notes", "type": "article"}]}
		]
	}`)

	res := Decode(raw)
	require.NoError(t, res.Err)
	assert.Equal(t, ShapeEnvelope, res.Shape)
	assert.False(t, res.Migrated)

	doc := res.Doc
	assert.Equal(t, "Alice's plan", doc.Title)
	assert.Equal(t, 7, doc.Likes)
	require.NotNil(t, doc.ContactInfo)
	assert.Equal(t, "alice@example.com", *doc.ContactInfo)
	assert.Equal(t, "Alice", doc.Author())

	require.Len(t, doc.Courses, 1)
	c := doc.Courses[0]
	require.NotNil(t, c.Rating)
	assert.Equal(t, 5, *c.Rating)
	assert.Equal(t, "clear lectures", c.ProfReview)
	assert.Equal(t, []model.Resource{{ID: "r1", URL: "https://example.com/algo", Title: "Notes", Type: model.ResourceArticle}}, c.Resources)
}

func TestDecode_EnvelopeDefaults(t *testing.T) {
	doc := Normalize([]byte(`{}`))

	assert.Equal(t, model.DefaultTitle, doc.Title)
	assert.Equal(t, 0, doc.Likes)
	assert.Nil(t, doc.ContactInfo)
	assert.NotNil(t, doc.Courses)
	assert.Empty(t, doc.Courses)
}

func TestDecode_EncodedString(t *testing.T) {
	inner := `[{"id": 42, "name": "Intro", "year": 1, "status": "completed"}]`
	raw, err := json.Marshal(inner)
	require.NoError(t, err)

	res := Decode(raw)
	require.NoError(t, res.Err)
	assert.Equal(t, ShapeEncodedString, res.Shape)
	require.Len(t, res.Doc.Courses, 1)
	assert.Equal(t, "42", res.Doc.Courses[0].ID)
}

func TestDecode_UnparseablePayloadDegrades(t *testing.T) {
	tests := map[string]string{
		"garbage":        `not json at all`,
		"truncated":      `{"courses": [`,
		"null":           `null`,
		"empty":          ``,
		"nested string":  `"\"[]\""`,
		"number payload": `12`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			res := Decode([]byte(raw))
			assert.Equal(t, ShapeUnknown, res.Shape)
			assert.Error(t, res.Err)
			assert.NotNil(t, res.Doc.Courses)
			assert.Empty(t, res.Doc.Courses)
			assert.Equal(t, model.DefaultTitle, res.Doc.Title)
		})
	}
}

func TestDecode_EnvelopeWithOneMalformedCourseKeepsTheRest(t *testing.T) {
	raw := []byte(`{
		"title": "My CS Plan",
		"likes": 2.0,
		"author_name": "Lin",
		"contact_info": 42,
		"courses": [
			{"id": "c1", "name": "Calculus", "year": 1, "status": "completed", "prof_review": "", "resources": []},
			{"id": "c2", "name": {"bad": true}, "year": "2", "status": 9, "rating": 4.5, "review": ["x"]},
			17,
			{"id": "c3", "name": "Physics", "year": 2, "status": "reviewed", "rating": 9, "prof_review": "", "resources": "nope", "url": "https://mit.edu/phys"}
		]
	}`)

	res := Decode(raw)
	require.NoError(t, res.Err)
	assert.Equal(t, ShapeEnvelope, res.Shape)
	assert.True(t, res.Migrated)

	doc := res.Doc
	assert.Equal(t, "My CS Plan", doc.Title)
	assert.Equal(t, 2, doc.Likes)
	assert.Equal(t, "Lin", doc.Author())
	assert.Nil(t, doc.ContactInfo)

	require.Len(t, doc.Courses, 3)
	assert.Equal(t, "Calculus", doc.Courses[0].Name)

	odd := doc.Courses[1]
	assert.Equal(t, "c2", odd.ID)
	assert.Equal(t, "", odd.Name)
	assert.Equal(t, 2, odd.Year)
	assert.Equal(t, model.StatusCompleted, odd.Status)
	require.NotNil(t, odd.Rating)
	assert.Equal(t, 4, *odd.Rating)
	assert.Nil(t, odd.Review)
	assert.NotNil(t, odd.Resources)

	phys := doc.Courses[2]
	require.NotNil(t, phys.Rating)
	assert.Equal(t, 5, *phys.Rating)
	require.Len(t, phys.Resources, 1)
	assert.Equal(t, "mit.edu", phys.Resources[0].Title)
}

func TestDecode_CourseFieldOfWrongTypeIsNotFatal(t *testing.T) {
	res := Decode([]byte(`{"title": "T", "author_name": "A", "courses": "nope"}`))

	require.NoError(t, res.Err)
	assert.Equal(t, ShapeEnvelope, res.Shape)
	assert.True(t, res.Migrated)
	assert.Equal(t, "T", res.Doc.Title)
	assert.NotNil(t, res.Doc.Courses)
	assert.Empty(t, res.Doc.Courses)
}

func TestDecode_YearsClampIntoColumns(t *testing.T) {
	doc := Normalize([]byte(`[
		{"id": "a", "name": "no year", "status": "completed"},
		{"id": "b", "name": "zero", "year": 0, "status": "completed"},
		{"id": "c", "name": "high", "year": 7, "status": "completed"},
		{"id": "d", "name": "text", "year": "3", "status": "completed"}
	]`))

	require.Len(t, doc.Courses, 4)
	years := []int{doc.Courses[0].Year, doc.Courses[1].Year, doc.Courses[2].Year, doc.Courses[3].Year}
	assert.Equal(t, []int{model.MinYear, model.MinYear, model.MaxYear, 3}, years)
	assert.NoError(t, model.Validate(doc))
}

func TestDecode_ResourcesWithoutURLAreDropped(t *testing.T) {
	doc := Normalize([]byte(`[{"id": "c1", "name": "x", "year": 1, "status": "completed",
		"resources": [{"id": "r1", "url": "", "title": "empty"}, {"id": 5, "url": "https://a.example", "title": "A"}, "junk"]}]`))

	require.Len(t, doc.Courses[0].Resources, 1)
	assert.Equal(t, "5", doc.Courses[0].Resources[0].ID)
	assert.Equal(t, "https://a.example", doc.Courses[0].Resources[0].URL)
}

func TestDecode_BadLegacyURLFallsBackToPlaceholder(t *testing.T) {
	doc := Normalize([]byte(`[{"id": "c1", "name": "x", "year": 1, "status": "completed", "url": "::not a url"}]`))

	require.Len(t, doc.Courses[0].Resources, 1)
	assert.Equal(t, model.FallbackResourceTitle, doc.Courses[0].Resources[0].Title)
	assert.Equal(t, "::not a url", doc.Courses[0].Resources[0].URL)
}

func TestDecode_ResourcesWinOverLegacyURL(t *testing.T) {
	doc := Normalize([]byte(`[{"id": "c1", "name": "x", "year": 1, "status": "completed",
		"url": "https://old.example.com", "resources": []}]`))

	assert.Empty(t, doc.Courses[0].Resources)
}

func TestNormalize_Idempotent(t *testing.T) {
	payloads := []string{
		`[{"id": "c1", "name": "A", "year": 1, "status": "completed", "url": "https://www.youtube.com/watch?v=1"},
		  {"id": 7, "name": "B", "year": 3, "status": "locked"}]`,
		`{"title": "T", "likes": 3, "courses": [{"id": "c1", "name": "A", "year": 4, "status": "reviewed", "rating": 4, "review": "ok"}]}`,
		`{"title": "", "author_name": "", "contact_info": "", "courses": null}`,
		`{"title": "T", "likes": 2.0, "courses": [{"id": "c1", "year": "9", "rating": 4.5, "status": 3}, 12]}`,
		`"[{\"id\": \"c1\", \"name\": \"A\", \"year\": 2, \"status\": \"completed\"}]"`,
		`not json`,
	}
	for _, raw := range payloads {
		once := Normalize([]byte(raw))

		encoded, err := json.Marshal(once)
		require.NoError(t, err)
		twice := Decode(encoded)

		assert.Equal(t, once, twice.Doc, "payload %s", raw)
		assert.Equal(t, ShapeEnvelope, twice.Shape)
		assert.False(t, twice.Migrated, "normalized document should need no migration: %s", raw)
	}
}

func TestNormalizeCourse(t *testing.T) {
	c, err := NormalizeCourse(json.RawMessage(`{"id": "x", "name": "Networks", "year": 3, "status": "completed", "url": "https://www.rfc-editor.org"}`), 0)
	require.NoError(t, err)
	assert.Equal(t, "x-res-0", c.Resources[0].ID)
	assert.Equal(t, "rfc-editor.org", c.Resources[0].Title)

	_, err = NormalizeCourse(json.RawMessage(`[]`), 0)
	assert.Error(t, err)
}
