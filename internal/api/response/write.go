package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes data as a JSON body with the given status. Encoding
// happens before the header is committed, so a marshal failure still
// surfaces as a 500 rather than a truncated 2xx body.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	if data == nil {
		w.WriteHeader(status)
		return
	}
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	w.Write(body)
}

// NoContent answers requests that succeed without a body, such as
// leaving a lobby
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
