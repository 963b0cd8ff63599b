package blob

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gridhub/aggcoord/core/model"
)

// DecodeRows reads result rows from a stream of newline-delimited or
// concatenated JSON objects. A stream holding JSON arrays of rows is also
// accepted; documents of both shapes may be mixed.
func DecodeRows(r io.Reader) ([]model.ResultRow, error) {
	dec := json.NewDecoder(r)

	var rows []model.ResultRow
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); errors.Is(err, io.EOF) {
			return rows, nil
		} else if err != nil {
			return nil, fmt.Errorf("decode result rows: %w", err)
		}

		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var batch []model.ResultRow
			if err := json.Unmarshal(trimmed, &batch); err != nil {
				return nil, fmt.Errorf("decode result row batch: %w", err)
			}
			rows = append(rows, batch...)
			continue
		}

		var row model.ResultRow
		if err := json.Unmarshal(trimmed, &row); err != nil {
			return nil, fmt.Errorf("decode result row %d: %w", len(rows), err)
		}
		rows = append(rows, row)
	}
}
