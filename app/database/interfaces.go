package database

import (
	"github.com/tkivela/dealwatch/app/alert"
)

type AlertRepository interface {
	CreateAlert(a alert.Alert) error
	GetAlert(id string) (*alert.Alert, error)
	UpdateAlert(a alert.Alert) error
	DeleteAlert(id string) (bool, error)

	ListAlerts() ([]alert.Alert, error)
	ListActiveAlerts() ([]alert.Alert, error)
	GetAlertCount() (int, error)
}

type FindingRepository interface {
	// CheckAndInsert atomically inserts the finding unless its fingerprint is
	// already present. Returns true when the finding is new.
	CheckAndInsert(f alert.Finding) (bool, error)

	GetRecentFindings(limit int) ([]alert.Finding, error)
	GetFindingCount() (int, error)
}
