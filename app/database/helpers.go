package database

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Timestamps are stored as RFC3339 UTC text so the same schema works on both
// sqlite and postgres, and lexical order matches chronological order.
const timeLayout = time.RFC3339

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		slog.Warn("Stored timestamp is not RFC3339", "value", s, "error", err)
		return time.Time{}
	}
	return t
}

func encodeList(values []string) string {
	if values == nil {
		values = []string{}
	}
	data, _ := json.Marshal(values)
	return string(data)
}

func decodeList(data string) []string {
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil
	}
	return values
}
