package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// UserData holds settings remembered between runs of the terminal picker
type UserData struct {
	LastPickDir string    `json:"last_pick_dir"`
	LastNode    string    `json:"last_node"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LoadUserData loads user data from the user.data file next to the config
func LoadUserData() (*UserData, error) {
	userDataPath, err := getUserDataPath()
	if err != nil {
		return createDefaultUserData(), nil
	}
	return loadUserDataFrom(userDataPath), nil
}

func loadUserDataFrom(path string) *UserData {
	data, err := os.ReadFile(path)
	if err != nil {
		return createDefaultUserData()
	}

	var userData UserData
	if err := json.Unmarshal(data, &userData); err != nil {
		// Invalid JSON, start over
		return createDefaultUserData()
	}
	return &userData
}

// SaveUserData saves user data to the user.data file next to the config
func (ud *UserData) SaveUserData() error {
	userDataPath, err := getUserDataPath()
	if err != nil {
		return err
	}
	return ud.saveTo(userDataPath)
}

func (ud *UserData) saveTo(path string) error {
	ud.UpdatedAt = time.Now()
	if ud.CreatedAt.IsZero() {
		ud.CreatedAt = ud.UpdatedAt
	}

	data, err := json.MarshalIndent(ud, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SetLastPick records the directory and node kind of the last pick and saves
func (ud *UserData) SetLastPick(dir, nodeKind string) error {
	ud.LastPickDir = dir
	ud.LastNode = nodeKind
	return ud.SaveUserData()
}

// createDefaultUserData creates a new UserData with default values
func createDefaultUserData() *UserData {
	now := time.Now()
	return &UserData{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// getUserDataPath returns the path to the user.data file
func getUserDataPath() (string, error) {
	if err := EnsureConfigDir(); err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(GetDefaultConfigPath()), "user.data"), nil
}
