package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/aqi-forecast-etl/internal/domain"
)

func encodeModel(m domain.TrendModel) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s model: %w", m.Scope, err)
	}
	return data, nil
}

func decodeModel(data []byte) (domain.TrendModel, error) {
	var m domain.TrendModel
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.TrendModel{}, fmt.Errorf("decode model: %w", err)
	}
	return m, nil
}
