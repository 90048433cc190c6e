package api

import (
	"encoding/json"
	"strings"

	"github.com/tkivela/dealwatch/app/database"
	"github.com/tkivela/dealwatch/app/engine"
	"github.com/tkivela/dealwatch/app/notify"
	"github.com/tkivela/dealwatch/app/source"
	"github.com/tkivela/dealwatch/app/uid"
)

type Handler struct {
	engine    *engine.Engine
	alertRepo database.AlertRepository
	sources   *source.Registry
	notifiers *notify.Registry
	ids       uid.Generator
}

// KeywordList accepts keywords either as a JSON array or as a single
// comma-separated string, so both forms of client input work.
type KeywordList []string

func (k *KeywordList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*k = list
		return nil
	}

	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	*k = strings.Split(joined, ",")
	return nil
}

type createAlertRequest struct {
	Name          string      `json:"name"`
	Keywords      KeywordList `json:"keywords"`
	Sources       []string    `json:"sources"`
	PriceMin      *float64    `json:"price_min"`
	PriceMax      *float64    `json:"price_max"`
	Notify        []string    `json:"notify"`
	ChannelTarget string      `json:"channel_target"`
	Active        *bool       `json:"active"`
}
