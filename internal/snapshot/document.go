package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/aleister1102/firefoxversions/internal/common"
)

// Keys published by the product-details firefox_versions.json document.
const (
	KeyFirefoxAurora                     = "FIREFOX_AURORA"
	KeyFirefoxDevEdition                 = "FIREFOX_DEVEDITION"
	KeyFirefoxESR                        = "FIREFOX_ESR"
	KeyFirefoxESRNext                    = "FIREFOX_ESR_NEXT"
	KeyFirefoxNightly                    = "FIREFOX_NIGHTLY"
	KeyFirefoxPinebuild                  = "FIREFOX_PINEBUILD"
	KeyLastMergeDate                     = "LAST_MERGE_DATE"
	KeyLastReleaseDate                   = "LAST_RELEASE_DATE"
	KeyLastSoftfreezeDate                = "LAST_SOFTFREEZE_DATE"
	KeyLatestFirefoxDevelVersion         = "LATEST_FIREFOX_DEVEL_VERSION"
	KeyLatestFirefoxOlderVersion         = "LATEST_FIREFOX_OLDER_VERSION"
	KeyLatestFirefoxReleasedDevelVersion = "LATEST_FIREFOX_RELEASED_DEVEL_VERSION"
	KeyLatestFirefoxVersion              = "LATEST_FIREFOX_VERSION"
	KeyNextMergeDate                     = "NEXT_MERGE_DATE"
	KeyNextReleaseDate                   = "NEXT_RELEASE_DATE"
	KeyNextSoftfreezeDate                = "NEXT_SOFTFREEZE_DATE"
)

// Document is the mapping published upstream. Values are kept as decoded:
// strings, nil for JSON null, json.Number for numbers, and nested maps or
// slices for anything else. It is passed through verbatim as event payload;
// keys are not validated.
type Document map[string]any

// Parse decodes an upstream response body. Anything that is not a JSON
// object is a ParseError.
func Parse(data []byte) (Document, error) {
	return decodeJSON(data, "response body")
}

func decodeJSON(data []byte, source string) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, common.NewParseError(source, "empty document", nil)
	}
	if trimmed[0] != '{' {
		return nil, common.NewParseError(source, "document is not a JSON object", nil)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, common.NewParseError(source, "invalid JSON", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, common.NewParseError(source, "invalid JSON", errors.New("unexpected data after document"))
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Canonical returns the stable string form used for snapshot comparison:
// compact JSON with keys sorted and no HTML escaping.
func (d Document) Canonical() string {
	if d == nil {
		d = Document{}
	}
	return encodeCompact(map[string]any(d))
}

// Lookup returns the value stored under key and whether it was present.
func (d Document) Lookup(key string) (any, bool) {
	v, ok := d[key]
	return v, ok
}

// Raw returns the compact JSON encoding of the value under key, so that
// null, "" and 0 are all told apart.
func (d Document) Raw(key string) (string, bool) {
	v, ok := d[key]
	if !ok {
		return "", false
	}
	return encodeCompact(v), true
}

// Text returns the value under key for display. Strings are returned as is,
// null and absent keys give "", other values their JSON encoding.
func (d Document) Text(key string) string {
	switch v := d[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return encodeCompact(v)
	}
}

// Keys returns the document keys in sorted order.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = cloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}

func encodeCompact(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Decoded JSON values always encode.
	_ = enc.Encode(v)
	return strings.TrimSuffix(buf.String(), "\n")
}

// Decode reconstructs a document from a stored snapshot. Snapshots are
// canonical JSON; older ones may be hash dumps, which go through ParseLegacy.
func Decode(stored string) (Document, error) {
	if IsLegacy(stored) {
		return ParseLegacy(stored)
	}
	return decodeJSON([]byte(stored), "stored snapshot")
}
