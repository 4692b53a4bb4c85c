package vault

import "encoding/json"

// decodeSecretFields parses a Secrets Manager secret's JSON string value
// into a flat map of field name to string value.
func decodeSecretFields(raw string) (map[string]string, error) {
	var fields map[string]string
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
