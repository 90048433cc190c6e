package database

import (
	"database/sql"
	"fmt"

	"github.com/tkivela/dealwatch/app/alert"
)

var _ FindingRepository = (*SQLFindingRepository)(nil)

// SQLFindingRepository stores emitted findings keyed by fingerprint. The
// primary-key conflict clause in CheckAndInsert is what makes concurrent
// evaluations of overlapping alerts emit each listing at most once.
type SQLFindingRepository struct {
	db *DB
}

func NewFindingRepository(db *DB) *SQLFindingRepository {
	return &SQLFindingRepository{db: db}
}

func (r *SQLFindingRepository) CheckAndInsert(f alert.Finding) (bool, error) {
	var postedAt *string
	if f.PostedAt != nil {
		s := encodeTime(*f.PostedAt)
		postedAt = &s
	}

	result, err := r.db.Exec(`
		INSERT INTO findings (fingerprint, alert_id, source, source_id, title,
		                      price, location, url, posted_at, thumbnail,
		                      description, emitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (fingerprint) DO NOTHING
	`, f.Fingerprint, f.AlertID, f.Source, f.SourceID, f.Title,
		f.Price, f.Location, f.URL, postedAt, f.Thumbnail,
		f.Description, encodeTime(f.EmittedAt))

	if err != nil {
		return false, fmt.Errorf("failed to insert finding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check insert result: %w", err)
	}

	return affected > 0, nil
}

func (r *SQLFindingRepository) GetRecentFindings(limit int) ([]alert.Finding, error) {
	rows, err := r.db.Query(`
		SELECT fingerprint, alert_id, source, source_id, title, price,
		       location, url, posted_at, thumbnail, description, emitted_at
		FROM findings
		ORDER BY emitted_at DESC, fingerprint
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent findings: %w", err)
	}
	defer rows.Close()

	var findings []alert.Finding
	for rows.Next() {
		var f alert.Finding
		var price sql.NullFloat64
		var postedAt sql.NullString
		var emittedAt string

		err := rows.Scan(&f.Fingerprint, &f.AlertID, &f.Source, &f.SourceID,
			&f.Title, &price, &f.Location, &f.URL, &postedAt,
			&f.Thumbnail, &f.Description, &emittedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finding row: %w", err)
		}

		if price.Valid {
			f.Price = &price.Float64
		}
		if postedAt.Valid {
			t := decodeTime(postedAt.String)
			f.PostedAt = &t
		}
		f.EmittedAt = decodeTime(emittedAt)

		findings = append(findings, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating finding rows: %w", err)
	}

	return findings, nil
}

func (r *SQLFindingRepository) GetFindingCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM findings`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get finding count: %w", err)
	}
	return count, nil
}
