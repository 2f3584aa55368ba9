// Package metering queries the usage-events endpoint of the metering
// provider and projects its generic columnar response into typed rows.
package metering

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// Column names the projection depends on. The provider does not guarantee
// column ordering between schema versions, so cells are located by name.
const (
	ColumnCustomerID   = "customerId"
	ColumnMeasureValue = "measure_value::double"
	ColumnSourceTime   = "sourceTimeInMillis"
	ColumnMeasureName  = "measure_name"
)

// ErrMalformedPayload marks a response body that cannot be decoded at all.
var ErrMalformedPayload = errors.New("malformed_payload")

// Payload is the provider's generic result table: a column list plus
// positionally aligned string rows. Immutable once decoded.
type Payload struct {
	Columns       []string        `json:"columns"`
	Rows          [][]string      `json:"rows"`
	NextPageToken string          `json:"nextPageToken"`
	Query         json.RawMessage `json:"query"`
}

// DecodePayload parses the raw response body. Row-level irregularities are
// tolerated later, during projection; a body that is not the expected object
// shape at all is fatal to the call.
func DecodePayload(body []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &p, nil
}

// UsageRow is the typed projection of one table row.
type UsageRow struct {
	ExternalAccountID string
	MeterName         string
	MeasureValue      float64
	SourceTimeMillis  int64
	// SourceTimeText keeps the cell as received; it becomes the tracking id
	// the billing engine dedups on, so it must survive round-tripping.
	SourceTimeText string
}

func indexOf(columns []string, name string) int {
	for i, column := range columns {
		if column == name {
			return i
		}
	}
	return -1
}

// Project extracts the four required fields from every row. A payload with
// no columns, or missing any required column, projects to zero rows: empty
// results legitimately arrive without a schema, and a renamed column must
// degrade the whole batch rather than mis-read cells by position. Rows whose
// numeric cells fail to parse are skipped; one bad row never voids the batch.
func (p *Payload) Project(log *zap.Logger) (rows []UsageRow, dropped int) {
	if len(p.Columns) == 0 {
		return nil, 0
	}

	customerIdx := indexOf(p.Columns, ColumnCustomerID)
	valueIdx := indexOf(p.Columns, ColumnMeasureValue)
	timeIdx := indexOf(p.Columns, ColumnSourceTime)
	nameIdx := indexOf(p.Columns, ColumnMeasureName)
	if customerIdx < 0 || valueIdx < 0 || timeIdx < 0 || nameIdx < 0 {
		log.Warn("required column missing from usage payload",
			zap.Strings("columns", p.Columns),
		)
		return nil, 0
	}

	rows = make([]UsageRow, 0, len(p.Rows))
	for i, cells := range p.Rows {
		row, err := projectRow(cells, customerIdx, valueIdx, timeIdx, nameIdx)
		if err != nil {
			dropped++
			log.Warn("usage row dropped",
				zap.Int("row", i),
				zap.Error(err),
			)
			continue
		}
		rows = append(rows, row)
	}
	return rows, dropped
}

func projectRow(cells []string, customerIdx, valueIdx, timeIdx, nameIdx int) (UsageRow, error) {
	width := len(cells)
	if customerIdx >= width || valueIdx >= width || timeIdx >= width || nameIdx >= width {
		return UsageRow{}, fmt.Errorf("row has %d cells, need column index %d", width, maxIndex(customerIdx, valueIdx, timeIdx, nameIdx))
	}

	value, err := strconv.ParseFloat(cells[valueIdx], 64)
	if err != nil {
		return UsageRow{}, fmt.Errorf("measure value %q: %w", cells[valueIdx], err)
	}

	millis, err := strconv.ParseInt(cells[timeIdx], 10, 64)
	if err != nil {
		return UsageRow{}, fmt.Errorf("source time %q: %w", cells[timeIdx], err)
	}
	if millis < 0 {
		return UsageRow{}, fmt.Errorf("source time %q is negative", cells[timeIdx])
	}

	return UsageRow{
		ExternalAccountID: cells[customerIdx],
		MeterName:         cells[nameIdx],
		MeasureValue:      value,
		SourceTimeMillis:  millis,
		SourceTimeText:    cells[timeIdx],
	}, nil
}

func maxIndex(indices ...int) int {
	max := indices[0]
	for _, idx := range indices[1:] {
		if idx > max {
			max = idx
		}
	}
	return max
}
