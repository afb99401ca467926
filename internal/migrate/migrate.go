// Package migrate turns every historical encoding of a stored tree into the
// canonical model.TreeData shape.
//
// Three encodings exist in the wild: the current envelope object, a bare list
// of courses written by the first release, and either of those wrapped in a
// JSON string by clients that stringified content before storing it. Courses
// themselves come in two variants: with a resources list, or with a single
// legacy url field.
//
// Decoding is per field. A value of the wrong type falls back to that field's
// default and a malformed course is dropped; only a payload that matches no
// known encoding degrades to an empty tree.
package migrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/bunchhieng/coursetree/internal/model"
)

// Shape identifies which stored encoding a payload used.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeArray
	ShapeEnvelope
	ShapeEncodedString
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeEnvelope:
		return "envelope"
	case ShapeEncodedString:
		return "encoded-string"
	default:
		return "unknown"
	}
}

// Result is the outcome of decoding one stored payload.
type Result struct {
	Doc model.TreeData
	// Shape is the outermost encoding that was found.
	Shape Shape
	// Migrated is true when any legacy rule fired.
	Migrated bool
	// Err holds the decode error when Shape is ShapeUnknown. The document is
	// still usable: it degrades to an empty course list.
	Err error
}

// fields is one JSON object with its values left undecoded, so a value of the
// wrong type only costs that field its default.
type fields map[string]json.RawMessage

// Normalize decodes raw and returns the canonical document. It never fails.
func Normalize(raw []byte) model.TreeData {
	return Decode(raw).Doc
}

// Decode classifies raw, applies the legacy rules and reports what happened.
func Decode(raw []byte) Result {
	return decode(raw, true)
}

func decode(raw []byte, allowString bool) Result {
	switch classify(raw) {
	case ShapeArray:
		var courses []json.RawMessage
		if err := unmarshal(raw, &courses); err != nil {
			return unknown(fmt.Errorf("decode course list: %w", err))
		}
		doc := defaults()
		doc.Courses, _ = normalizeCourses(courses)
		return Result{Doc: doc, Shape: ShapeArray, Migrated: true}

	case ShapeEnvelope:
		var env fields
		if err := unmarshal(raw, &env); err != nil {
			return unknown(fmt.Errorf("decode envelope: %w", err))
		}
		doc, legacy := fromEnvelope(env)
		return Result{Doc: doc, Shape: ShapeEnvelope, Migrated: legacy}

	case ShapeEncodedString:
		if !allowString {
			return unknown(fmt.Errorf("nested string encoding"))
		}
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return unknown(fmt.Errorf("decode encoded string: %w", err))
		}
		res := decode([]byte(inner), false)
		if res.Shape == ShapeUnknown {
			return res
		}
		res.Shape = ShapeEncodedString
		res.Migrated = true
		return res

	default:
		return unknown(fmt.Errorf("unrecognized payload"))
	}
}

func classify(raw []byte) Shape {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ShapeUnknown
	}
	switch trimmed[0] {
	case '[':
		return ShapeArray
	case '{':
		return ShapeEnvelope
	case '"':
		return ShapeEncodedString
	default:
		return ShapeUnknown
	}
}

func unmarshal(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

func unknown(err error) Result {
	return Result{Doc: defaults(), Shape: ShapeUnknown, Err: err}
}

func defaults() model.TreeData {
	doc := model.NewTree()
	doc.AuthorName = model.StringPtr(model.AnonymousAuthor)
	return doc
}

// fromEnvelope fills defaults and normalizes every course. The bool reports
// whether any field needed a default or a legacy conversion.
func fromEnvelope(env fields) (model.TreeData, bool) {
	doc := defaults()
	legacy := false

	if title, ok := env.text("title"); ok && strings.TrimSpace(title) != "" {
		doc.Title = title
	} else {
		legacy = true
	}
	if likes, ok := env.integer("likes"); ok && likes > 0 {
		doc.Likes = likes
	} else if _, present := env["likes"]; present && !ok {
		legacy = true
	}
	if contact, ok := env.text("contact_info"); ok && contact != "" {
		doc.ContactInfo = model.StringPtr(contact)
	}
	if author, ok := env.text("author_name"); ok && strings.TrimSpace(author) != "" {
		doc.AuthorName = model.StringPtr(author)
	} else {
		legacy = true
	}

	var courses []json.RawMessage
	if raw, present := env["courses"]; present && !isNull(raw) {
		if err := unmarshal(raw, &courses); err != nil {
			legacy = true
		}
	}
	var converted bool
	doc.Courses, converted = normalizeCourses(courses)
	return doc, legacy || converted
}

// normalizeCourses converts each stored course on its own. Entries that are
// not objects are dropped; the rest keep their position order.
func normalizeCourses(raws []json.RawMessage) ([]model.Course, bool) {
	out := make([]model.Course, 0, len(raws))
	legacy := false
	for i, raw := range raws {
		var f fields
		if err := unmarshal(raw, &f); err != nil || f == nil {
			legacy = true
			continue
		}
		c, converted := normalizeCourse(f, i)
		legacy = legacy || converted
		out = append(out, c)
	}
	return out, legacy
}

// NormalizeCourse converts one stored course into the canonical shape. It is
// exported for callers that decode single courses, such as imports.
func NormalizeCourse(raw json.RawMessage, index int) (model.Course, error) {
	var f fields
	if err := unmarshal(raw, &f); err != nil {
		return model.Course{}, fmt.Errorf("decode course: %w", err)
	}
	if f == nil {
		return model.Course{}, fmt.Errorf("decode course: not an object")
	}
	c, _ := normalizeCourse(f, index)
	return c, nil
}

func normalizeCourse(f fields, index int) (model.Course, bool) {
	legacy := false
	c := model.Course{ID: f.id("id")}
	if c.ID == "" {
		c.ID = fmt.Sprintf("legacy-%d", index+1)
		legacy = true
	}

	name, ok := f.text("name")
	if !ok {
		legacy = true
	}
	c.Name = name

	year, ok := f.integer("year")
	switch {
	case !ok || year < model.MinYear:
		c.Year = model.MinYear
		legacy = true
	case year > model.MaxYear:
		c.Year = model.MaxYear
		legacy = true
	default:
		c.Year = year
	}

	status, _ := f.text("status")
	c.Status = model.Status(status)
	if !c.Status.Valid() {
		c.Status = model.StatusCompleted
		legacy = true
	}

	if rating, ok := f.integer("rating"); ok {
		switch {
		case rating < 1:
			legacy = true
		case rating > 5:
			c.Rating = intPtr(5)
			legacy = true
		default:
			c.Rating = intPtr(rating)
		}
		if !f.whole("rating") {
			legacy = true
		}
	} else if !isNull(f["rating"]) {
		legacy = true
	}

	if review, ok := f.text("review"); ok {
		c.Review = model.StringPtr(review)
	} else if !isNull(f["review"]) {
		legacy = true
	}
	if prof, ok := f.text("prof_review"); ok {
		c.ProfReview = prof
	} else {
		legacy = true
	}

	resources, ok := f.resources()
	switch {
	case ok:
		c.Resources = resources
		if len(resources) != countEntries(f["resources"]) {
			legacy = true
		}
	case hasText(f, "url"):
		url, _ := f.text("url")
		url = strings.TrimSpace(url)
		c.Resources = []model.Resource{{
			ID:    c.ID + "-res-0",
			URL:   url,
			Title: model.TitleFromURL(url),
			Type:  model.ResourceLink,
		}}
		legacy = true
	default:
		c.Resources = []model.Resource{}
		legacy = true
	}
	return c, legacy
}

// resources decodes the resources list. Entries without a URL are dropped.
// ok is false when the list is missing or not an array.
func (f fields) resources() ([]model.Resource, bool) {
	raw, present := f["resources"]
	if !present || isNull(raw) {
		return nil, false
	}
	var entries []json.RawMessage
	if err := unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	out := make([]model.Resource, 0, len(entries))
	for _, entry := range entries {
		var rf fields
		if err := unmarshal(entry, &rf); err != nil || rf == nil {
			continue
		}
		url, _ := rf.text("url")
		if strings.TrimSpace(url) == "" {
			continue
		}
		title, _ := rf.text("title")
		res := model.Resource{ID: rf.id("id"), URL: url, Title: title}
		if typ, _ := rf.text("type"); typ != "" {
			res.Type = model.ParseResourceType(typ)
		}
		out = append(out, res)
	}
	return out, true
}

// text returns the string at key. ok is false when the key is missing, null
// or holds another type.
func (f fields) text(key string) (string, bool) {
	raw, present := f[key]
	if !present || isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// integer reads a number, or a string holding one, and truncates it toward
// zero.
func (f fields) integer(key string) (int, bool) {
	n, ok := f.number(key)
	if !ok {
		return 0, false
	}
	return int(n), true
}

// whole reports whether the number at key has no fractional part.
func (f fields) whole(key string) bool {
	n, ok := f.number(key)
	return ok && n == math.Trunc(n)
}

func (f fields) number(key string) (float64, bool) {
	raw, present := f[key]
	if !present || isNull(raw) {
		return 0, false
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil || num == "" {
		return 0, false
	}
	n, err := num.Float64()
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || math.Abs(n) > math.MaxInt32 {
		return 0, false
	}
	return n, true
}

// id reads an identifier stored as a string or a number. Any other type
// reads as empty.
func (f fields) id(key string) string {
	raw, present := f[key]
	if !present || isNull(raw) {
		return ""
	}
	var v any
	if err := unmarshal(raw, &v); err != nil {
		return ""
	}
	switch v.(type) {
	case string, json.Number:
		return model.NormalizeID(v)
	default:
		return ""
	}
}

func hasText(f fields, key string) bool {
	s, ok := f.text(key)
	return ok && strings.TrimSpace(s) != ""
}

func countEntries(raw json.RawMessage) int {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return 0
	}
	return len(entries)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func intPtr(n int) *int {
	return &n
}
