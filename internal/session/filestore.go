package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Preference keys, namespaced per logical concern. The session keys are
// owned by Store operations; theme_mode belongs to the settings surface
// and survives Clear.
const (
	keyUserID       = "user_id"
	keyEmail        = "email"
	keyUsername     = "username"
	keyDisplayName  = "display_name"
	keyProfileImage = "profile_image"
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyIsLoggedIn   = "is_logged_in"
	keyThemeMode    = "theme_mode"
)

// Theme modes stored under keyThemeMode.
const (
	ThemeSystem = 0
	ThemeLight  = 1
	ThemeDark   = 2
)

// FileStore persists preferences as a flat JSON object in a single
// file, overwriting it atomically via rename. It is safe for use from
// multiple controllers.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the given file path, creating
// parent directories as needed.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session: empty store path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("session: create store dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

// DefaultPath returns the per-user location of the preferences file.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("session: resolve config dir: %w", err)
	}
	return filepath.Join(dir, "nimbustalk", "prefs.json"), nil
}

func (f *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: read store: %w", err)
	}
	prefs := map[string]string{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &prefs); err != nil {
			// A corrupted prefs file is treated as empty rather than
			// wedging every flow that touches the store.
			return map[string]string{}, nil
		}
	}
	return prefs, nil
}

func (f *FileStore) write(prefs map[string]string) error {
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode store: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("session: write store: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("session: replace store: %w", err)
	}
	return nil
}

// Save implements Store.
func (f *FileStore) Save(s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefs, err := f.read()
	if err != nil {
		return err
	}
	prefs[keyUserID] = s.UserID
	prefs[keyEmail] = s.Email
	prefs[keyUsername] = s.Username
	prefs[keyDisplayName] = s.DisplayName
	prefs[keyProfileImage] = s.ProfileImageURL
	prefs[keyAccessToken] = s.AccessToken
	prefs[keyRefreshToken] = s.RefreshToken
	prefs[keyIsLoggedIn] = "true"
	return f.write(prefs)
}

// Load implements Store.
func (f *FileStore) Load() (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefs, err := f.read()
	if err != nil {
		return Session{}, err
	}
	s := Session{
		UserID:          prefs[keyUserID],
		Email:           prefs[keyEmail],
		Username:        prefs[keyUsername],
		DisplayName:     prefs[keyDisplayName],
		ProfileImageURL: prefs[keyProfileImage],
		AccessToken:     prefs[keyAccessToken],
		RefreshToken:    prefs[keyRefreshToken],
		LoggedIn:        prefs[keyIsLoggedIn] == "true",
	}
	if !s.Complete() {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// IsLoggedIn implements Store.
func (f *FileStore) IsLoggedIn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefs, err := f.read()
	if err != nil {
		return false
	}
	return prefs[keyIsLoggedIn] == "true" && prefs[keyAccessToken] != ""
}

// Clear implements Store. Settings outside the session namespace, such
// as the theme preference, are kept.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefs, err := f.read()
	if err != nil {
		return err
	}
	for _, k := range []string{keyUserID, keyEmail, keyUsername, keyDisplayName, keyProfileImage, keyAccessToken, keyRefreshToken} {
		delete(prefs, k)
	}
	prefs[keyIsLoggedIn] = "false"
	return f.write(prefs)
}

// UpdateAccessToken implements Store.
func (f *FileStore) UpdateAccessToken(token string) error {
	return f.updateKey(keyAccessToken, token)
}

// UpdateRefreshToken implements Store.
func (f *FileStore) UpdateRefreshToken(token string) error {
	return f.updateKey(keyRefreshToken, token)
}

func (f *FileStore) updateKey(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefs, err := f.read()
	if err != nil {
		return err
	}
	prefs[key] = value
	return f.write(prefs)
}

// SetThemeMode stores the theme preference.
func (f *FileStore) SetThemeMode(mode int) error {
	return f.updateKey(keyThemeMode, strconv.Itoa(mode))
}

// ThemeMode returns the stored theme preference, defaulting to system.
func (f *FileStore) ThemeMode() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefs, err := f.read()
	if err != nil {
		return ThemeSystem
	}
	mode, err := strconv.Atoi(prefs[keyThemeMode])
	if err != nil || mode < ThemeSystem || mode > ThemeDark {
		return ThemeSystem
	}
	return mode
}
