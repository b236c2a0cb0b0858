package journal

import (
	"database/sql"
	"fmt"
	"time"
)

const entryColumns = "id, dispatch_id, rumor_id, title, outcome, detail, source, created_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id         int64
		dispatchID string
		rumorID    sql.NullInt64
		title      sql.NullString
		outcome    string
		detail     sql.NullString
		source     sql.NullString
		createdRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&dispatchID,
		&rumorID,
		&title,
		&outcome,
		&detail,
		&source,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:         id,
		DispatchID: dispatchID,
		Title:      title.String,
		Outcome:    outcome,
		Detail:     detail.String,
		Source:     source.String,
	}
	if rumorID.Valid {
		value := rumorID.Int64
		entry.RumorID = &value
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		entry.CreatedAt = created
	}
	return entry, nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time string")
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", value)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}
