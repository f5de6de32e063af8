package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// toUnix converts t to stored unix seconds.
func toUnix(t time.Time) int64 {
	return t.UTC().Unix()
}

// fromUnix converts stored unix seconds to a UTC time.
func fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// nullUnix converts an optional time to a nullable column value.
func nullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toUnix(*t), Valid: true}
}

// fromNullUnix converts a nullable column to an optional time.
func fromNullUnix(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromUnix(v.Int64)
	return &t
}

// marshalStrings encodes a string list as a JSON TEXT column.
// A nil list is stored as "[]".
func marshalStrings(list []string) (string, error) {
	if list == nil {
		return "[]", nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("marshal string list: %w", err)
	}
	return string(data), nil
}

// unmarshalStrings decodes a JSON TEXT column. Never returns nil.
func unmarshalStrings(data string) ([]string, error) {
	list := []string{}
	if data == "" {
		return list, nil
	}
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("unmarshal string list: %w", err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}
