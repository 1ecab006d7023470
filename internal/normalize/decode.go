package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperifyio/materialbox/internal/material"
)

// Reply shapes accepted from the model.
type replyShape int

const (
	shapeArray replyShape = iota + 1
	shapeWrapped
	shapeSingle
)

func (s replyShape) String() string {
	switch s {
	case shapeArray:
		return "array"
	case shapeWrapped:
		return "materials"
	case shapeSingle:
		return "object"
	}
	return "unknown"
}

var (
	errNotJSON        = errors.New("reply is not valid JSON")
	errUnexpectedKind = errors.New("reply is neither an array nor an object")
	errNotObjects     = errors.New("array elements are not objects")
	errEmptyArray     = errors.New("array is empty")
)

// decodeReply decodes a cleaned reply as one of three variants, tried in
// order: an array of record objects, an object with a "materials" array of
// record objects, or a single record object.
func decodeReply(payload string) ([]material.Record, replyShape, error) {
	trimmed := bytes.TrimSpace([]byte(payload))
	if !json.Valid(trimmed) {
		return nil, 0, errNotJSON
	}
	switch {
	case bytes.HasPrefix(trimmed, []byte("[")):
		recs, err := decodeRecordArray(trimmed)
		return recs, shapeArray, err
	case bytes.HasPrefix(trimmed, []byte("{")):
		var wrapper struct {
			Materials json.RawMessage `json:"materials"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, 0, err
		}
		if m := bytes.TrimSpace(wrapper.Materials); bytes.HasPrefix(m, []byte("[")) {
			recs, err := decodeRecordArray(m)
			return recs, shapeWrapped, err
		}
		rec, err := decodeRecord(trimmed)
		if err != nil {
			return nil, 0, err
		}
		return []material.Record{rec}, shapeSingle, nil
	default:
		return nil, 0, errUnexpectedKind
	}
}

func decodeRecordArray(data []byte) ([]material.Record, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, errEmptyArray
	}
	out := make([]material.Record, 0, len(elems))
	for i, e := range elems {
		if !bytes.HasPrefix(bytes.TrimSpace(e), []byte("{")) {
			return nil, fmt.Errorf("element %d: %w", i, errNotObjects)
		}
		rec, err := decodeRecord(e)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// looseRecord accepts the field shapes models commonly produce: a bare
// string where a list is expected, numbers where a string is expected.
type looseRecord struct {
	Type    json.RawMessage `json:"type"`
	Themes  json.RawMessage `json:"themes"`
	Tags    json.RawMessage `json:"tags"`
	Content json.RawMessage `json:"content"`
	Summary json.RawMessage `json:"summary"`
}

func decodeRecord(data []byte) (material.Record, error) {
	var lr looseRecord
	if err := json.Unmarshal(data, &lr); err != nil {
		return material.Record{}, err
	}
	rec := material.Record{
		Type:    looseString(lr.Type),
		Themes:  looseList(lr.Themes),
		Tags:    looseList(lr.Tags),
		Content: looseString(lr.Content),
		Summary: looseString(lr.Summary),
	}
	if rec.Type == "" {
		rec.Type = material.Uncategorized
	}
	return rec, nil
}

func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// numbers, booleans and nested values keep their JSON text
	return string(raw)
}

func looseList(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	out := []string{}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		if s := strings.TrimSpace(looseString(raw)); s != "" {
			out = append(out, s)
		}
		return out
	}
	for _, item := range list {
		if s := strings.TrimSpace(looseString(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
