package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"TradeHelper/internal/model"
)

// stateFile is the on-disk layout of the session store.
type stateFile struct {
	Sessions  map[string]*model.Session `json:"sessions"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// LoadState reads sessions from a JSON file. Returns an empty map if the file doesn't exist.
func LoadState(filePath string) (map[string]*model.Session, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*model.Session{}, nil
		}
		return nil, err
	}
	var state stateFile
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.Sessions == nil {
		state.Sessions = map[string]*model.Session{}
	}
	return state.Sessions, nil
}

// SaveState writes sessions to a JSON file, replacing it atomically.
func SaveState(filePath string, sessions map[string]*model.Session) error {
	data, err := json.MarshalIndent(stateFile{Sessions: sessions, UpdatedAt: time.Now()}, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".sessions-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filePath)
}
