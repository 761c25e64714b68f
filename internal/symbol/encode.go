package symbol

import (
	"bytes"
	"encoding/json"
)

// EncodeJSONL renders records as line-delimited JSON, one record per line.
// HTML escaping is disabled so annotation text like "Dict[str, int]" stays
// readable. With input sorted by FQN the output is byte-deterministic.
func EncodeJSONL(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
