package database

import (
	"database/sql"
	"encoding/json"

	"github.com/username/shrinklens/backend/src/logger"
)

// stateNamespace versions the key/value slot layout. Bumping it silently
// orphans slots written under older layouts instead of crashing the load
// path on an incompatible shape.
const stateNamespace = "shrinklens.v2."

// StateKeyFilter is the slot holding the active filter selection.
const StateKeyFilter = "filter"

// SaveState writes one JSON-encoded slot. Write failures are logged and
// swallowed: the in-memory state stays authoritative for the session even
// when persistence fails.
func SaveState(key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		logger.L.Error("Failed to marshal state slot", "key", key, "error", err)
		return
	}
	_, err = DB.Exec(
		`INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		stateNamespace+key, string(data))
	if err != nil {
		logger.L.Error("Failed to persist state slot", "key", key, "error", err)
	}
}

// LoadState reads one slot into dest. Missing or corrupt slots fail soft:
// dest is left untouched and false is returned, never an error.
func LoadState(key string, dest interface{}) bool {
	var raw string
	err := DB.QueryRow(`SELECT value FROM app_state WHERE key = ?`, stateNamespace+key).Scan(&raw)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.L.Warn("Failed to read state slot", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logger.L.Warn("Discarding corrupt state slot", "key", key, "error", err)
		return false
	}
	return true
}
