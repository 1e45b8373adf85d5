// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode"
	"unicode/utf8"
)

// ErrSerialization is an error, which is returned when a landscape cannot be
// rendered as text, or a payload cannot be parsed back.
var ErrSerialization = errors.New("serialization failed")

// Naming represents the naming policy applied to the members of a landscape.
type Naming string

const (
	// NamingDefault keeps the member names as declared.
	NamingDefault Naming = "default"

	// NamingCamelCase lower-cases the leading upper-case run of each member
	// name, e.g. IsDefault becomes isDefault and DNSLabel becomes dnsLabel.
	NamingCamelCase Naming = "camel_case"
)

// SerializerOptions configures how a landscape is rendered as text. The
// options apply to the members of the landscape itself. Keys and values of
// nested maps are kept as they are.
type SerializerOptions struct {
	// Naming is the naming policy for member names.
	Naming Naming

	// OmitNull drops members whose value is null.
	OmitNull bool

	// Indent pretty-prints the payload using the given indent.
	Indent string
}

// member is a single member of a JSON object.
type member struct {
	name  string
	value json.RawMessage
}

// Marshal renders v as JSON text using the given options.
func Marshal(v any, opts SerializerOptions) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	if opts.Naming != NamingCamelCase && !opts.OmitNull && opts.Indent == "" {
		return data, nil
	}

	members, ok, err := objectMembers(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	if ok {
		data = renderMembers(members, opts)
	}

	if opts.Indent == "" {
		return data, nil
	}

	var out bytes.Buffer
	if err := json.Indent(&out, data, "", opts.Indent); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	return out.Bytes(), nil
}

// Unmarshal parses a payload produced by [Marshal] into v. Member names are
// matched case-insensitively, which makes every supported naming policy
// round-trip. Numbers in free-form values are decoded as [json.Number], so
// their text is kept exactly.
func Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after payload", ErrSerialization)
	}

	return nil
}

// objectMembers returns the members of the top-level JSON object in data in
// their original order. The boolean result is false, if data is not an
// object.
func objectMembers(data []byte) ([]member, bool, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, false, err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, false, nil
	}

	members := make([]member, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false, err
		}

		name, ok := tok.(string)
		if !ok {
			return nil, false, fmt.Errorf("unexpected token %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false, err
		}
		members = append(members, member{name: name, value: value})
	}

	return members, true, nil
}

// renderMembers renders the members as a compact JSON object.
func renderMembers(members []member, opts SerializerOptions) []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')

	written := 0
	for _, m := range members {
		if opts.OmitNull && bytes.Equal(m.value, []byte("null")) {
			continue
		}

		name := m.name
		if opts.Naming == NamingCamelCase {
			name = CamelCase(name)
		}

		// Marshalling a string cannot fail.
		key, _ := json.Marshal(name)
		if written > 0 {
			buf.WriteByte(',')
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(m.value)
		written++
	}

	buf.WriteByte('}')

	return buf.Bytes()
}

// CamelCase converts name to camel case. The leading run of upper-case
// letters is lower-cased, except for the last one when it starts a new word.
func CamelCase(name string) string {
	if name == "" {
		return name
	}

	first, _ := utf8.DecodeRuneInString(name)
	if !unicode.IsUpper(first) {
		return name
	}

	runes := []rune(name)
	for i := range runes {
		if !unicode.IsUpper(runes[i]) {
			break
		}

		// Keep the upper-case letter, which starts the next word.
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}

		runes[i] = unicode.ToLower(runes[i])
	}

	return string(runes)
}
