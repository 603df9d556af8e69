// Package validation checks request payloads against declarative constraint
// tables before any handler logic runs.
//
// A Schema lists fields in evaluation order; each field carries an ordered
// chain of constraints.  A field stops at its first violation, every field is
// evaluated, and the resulting Error reports the violations in declaration
// order.  The only transformation applied to input is the explicit Trim.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Kind identifies a constraint.
type Kind string

const (
	KindRequired  Kind = "required"
	KindOptional  Kind = "optional"
	KindTrim      Kind = "trim"
	KindMinLength Kind = "minLength"
	KindMaxLength Kind = "maxLength"
	KindInteger   Kind = "isInteger"
	KindRange     Kind = "range"
	KindOneOf     Kind = "oneOf"
	KindTimestamp Kind = "isTimestamp"
)

// Constraint is one predicate (or the trim transform) with the message
// reported when it fails.
type Constraint struct {
	Kind    Kind
	Min     int64
	Max     int64
	Set     []string
	Message string
}

// Field binds a body key to its constraint chain.
type Field struct {
	Name  string
	Chain []Constraint
}

// Schema is the constraint table of one route.
type Schema []Field

// FieldError describes a single violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned when at least one field is invalid.  Error() yields the
// first violation's message, which is what clients see.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return e.Fields[0].Message
}

// First returns the first violation.
func (e *Error) First() FieldError {
	if len(e.Fields) == 0 {
		return FieldError{Message: "validation failed"}
	}
	return e.Fields[0]
}

// ErrMalformedBody is returned by DecodeBody for input that is not a JSON
// object.
var ErrMalformedBody = errors.New("invalid request body")

func Required(msg string) Constraint { return Constraint{Kind: KindRequired, Message: msg} }
func Optional() Constraint           { return Constraint{Kind: KindOptional} }
func Trim() Constraint               { return Constraint{Kind: KindTrim} }
func MinLength(n int, msg string) Constraint {
	return Constraint{Kind: KindMinLength, Min: int64(n), Message: msg}
}
func MaxLength(n int, msg string) Constraint {
	return Constraint{Kind: KindMaxLength, Max: int64(n), Message: msg}
}
func Integer(msg string) Constraint { return Constraint{Kind: KindInteger, Message: msg} }
func Range(min, max int64, msg string) Constraint {
	return Constraint{Kind: KindRange, Min: min, Max: max, Message: msg}
}
func OneOf(set []string, msg string) Constraint {
	return Constraint{Kind: KindOneOf, Set: set, Message: msg}
}
func Timestamp(msg string) Constraint { return Constraint{Kind: KindTimestamp, Message: msg} }

// DecodeBody parses a JSON object, keeping numbers as json.Number so that
// integer checks see the literal.  An empty body decodes to an empty map.
func DecodeBody(r io.Reader) (map[string]any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrMalformedBody
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil || body == nil {
		return nil, ErrMalformedBody
	}
	if dec.More() {
		return nil, ErrMalformedBody
	}
	return body, nil
}

// Validate runs the schema against body.  On success the returned Values
// hold only the declared fields that were present, after transforms and
// type coercion: strings stay strings, isInteger yields int64 and
// isTimestamp yields time.Time.
func (s Schema) Validate(body map[string]any) (Values, error) {
	out := Values{}
	var errs []FieldError
	for _, f := range s {
		v, present := body[f.Name]
		keep, fe := f.run(v, present)
		if fe != nil {
			errs = append(errs, *fe)
			continue
		}
		if keep != nil {
			out[f.Name] = keep.value
		}
	}
	if len(errs) > 0 {
		return nil, &Error{Fields: errs}
	}
	return out, nil
}

type kept struct{ value any }

func (f Field) run(v any, present bool) (*kept, *FieldError) {
	fail := func(c Constraint) (*kept, *FieldError) {
		return nil, &FieldError{Field: f.Name, Message: c.Message}
	}
	for _, c := range f.Chain {
		switch c.Kind {
		case KindOptional:
			if !present || v == nil {
				return nil, nil
			}
		case KindRequired:
			if !present || v == nil {
				return fail(c)
			}
			if s, ok := v.(string); ok && s == "" {
				return fail(c)
			}
		case KindTrim:
			if s, ok := v.(string); ok {
				v = strings.TrimSpace(s)
			}
		case KindMinLength:
			s, ok := v.(string)
			if !ok || int64(utf8.RuneCountInString(s)) < c.Min {
				return fail(c)
			}
		case KindMaxLength:
			s, ok := v.(string)
			if !ok || int64(utf8.RuneCountInString(s)) > c.Max {
				return fail(c)
			}
		case KindInteger:
			n, ok := toInt64(v)
			if !ok {
				return fail(c)
			}
			v = n
		case KindRange:
			n, ok := v.(int64)
			if !ok || n < c.Min || n > c.Max {
				return fail(c)
			}
		case KindOneOf:
			s, ok := v.(string)
			if !ok || !contains(c.Set, s) {
				return fail(c)
			}
		case KindTimestamp:
			s, ok := v.(string)
			if !ok {
				return fail(c)
			}
			ts, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return fail(c)
			}
			v = ts.UTC()
		}
	}
	if !present {
		return nil, nil
	}
	return &kept{value: v}, nil
}

// toInt64 accepts integral JSON numbers (3, 3.0) and decimal strings ("3").
func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return integral(f)
	case float64:
		return integral(t)
	case int:
		return int64(t), true
	case int64:
		return t, true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func integral(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// Values is the validated, declared subset of a request body.
type Values map[string]any

// Has reports whether the field was present in the request.
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// String returns a validated string field.
func (v Values) String(name string) (string, bool) {
	s, ok := v[name].(string)
	return s, ok
}

// StringPtr returns a pointer to a present string field, nil otherwise.
func (v Values) StringPtr(name string) *string {
	if s, ok := v.String(name); ok {
		return &s
	}
	return nil
}

// Int returns a field validated with Integer.
func (v Values) Int(name string) (int64, bool) {
	n, ok := v[name].(int64)
	return n, ok
}

// Time returns a field validated with Timestamp.
func (v Values) Time(name string) (time.Time, bool) {
	t, ok := v[name].(time.Time)
	return t, ok
}
