package a2a

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}

func decodeJSON(body []byte, v interface{}) error {
	return json.Unmarshal(body, v)
}
