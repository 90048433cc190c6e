package database

import (
	"database/sql"
	"fmt"

	"github.com/tkivela/dealwatch/app/alert"
)

var _ AlertRepository = (*SQLAlertRepository)(nil)

// SQLAlertRepository persists alert definitions in the relational store.
type SQLAlertRepository struct {
	db *DB
}

func NewAlertRepository(db *DB) *SQLAlertRepository {
	return &SQLAlertRepository{db: db}
}

func (r *SQLAlertRepository) CreateAlert(a alert.Alert) error {
	_, err := r.db.Exec(`
		INSERT INTO alerts (id, name, keywords, sources, price_min, price_max,
		                    notify_channels, channel_target, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, a.ID, a.Name, encodeList(a.Keywords), encodeList(a.Sources),
		a.PriceMin, a.PriceMax, encodeList(a.NotifyChannels),
		a.ChannelTarget, a.Active, encodeTime(a.CreatedAt))

	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

func (r *SQLAlertRepository) GetAlert(id string) (*alert.Alert, error) {
	row := r.db.QueryRow(`
		SELECT id, name, keywords, sources, price_min, price_max,
		       notify_channels, channel_target, active, created_at
		FROM alerts
		WHERE id = $1
	`, id)

	a, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return a, nil
}

func (r *SQLAlertRepository) UpdateAlert(a alert.Alert) error {
	result, err := r.db.Exec(`
		UPDATE alerts
		SET name = $2, keywords = $3, sources = $4, price_min = $5, price_max = $6,
		    notify_channels = $7, channel_target = $8, active = $9
		WHERE id = $1
	`, a.ID, a.Name, encodeList(a.Keywords), encodeList(a.Sources),
		a.PriceMin, a.PriceMax, encodeList(a.NotifyChannels),
		a.ChannelTarget, a.Active)

	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alert %s not found", a.ID)
	}

	return nil
}

func (r *SQLAlertRepository) DeleteAlert(id string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM alerts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete alert: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check delete result: %w", err)
	}

	return affected > 0, nil
}

func (r *SQLAlertRepository) ListAlerts() ([]alert.Alert, error) {
	return r.listAlerts(`
		SELECT id, name, keywords, sources, price_min, price_max,
		       notify_channels, channel_target, active, created_at
		FROM alerts
		ORDER BY created_at
	`)
}

func (r *SQLAlertRepository) ListActiveAlerts() ([]alert.Alert, error) {
	return r.listAlerts(`
		SELECT id, name, keywords, sources, price_min, price_max,
		       notify_channels, channel_target, active, created_at
		FROM alerts
		WHERE active = TRUE
		ORDER BY created_at
	`)
}

func (r *SQLAlertRepository) GetAlertCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM alerts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get alert count: %w", err)
	}
	return count, nil
}

func (r *SQLAlertRepository) listAlerts(query string) ([]alert.Alert, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []alert.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alerts = append(alerts, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert rows: %w", err)
	}

	return alerts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*alert.Alert, error) {
	var a alert.Alert
	var keywords, sources, channels, createdAt string
	var priceMin, priceMax sql.NullFloat64

	err := row.Scan(&a.ID, &a.Name, &keywords, &sources, &priceMin, &priceMax,
		&channels, &a.ChannelTarget, &a.Active, &createdAt)
	if err != nil {
		return nil, err
	}

	a.Keywords = decodeList(keywords)
	a.Sources = decodeList(sources)
	a.NotifyChannels = decodeList(channels)
	a.CreatedAt = decodeTime(createdAt)

	if priceMin.Valid {
		a.PriceMin = &priceMin.Float64
	}
	if priceMax.Valid {
		a.PriceMax = &priceMax.Float64
	}

	return &a, nil
}
