package storage

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
)

// Credentials is the persisted key list and the index of the active key.
type Credentials struct {
	APIKeys    []string `json:"api_keys"`
	CurrentKey int      `json:"current_key"`
}

// credentialsFile also accepts the single-key layout of older files.
type credentialsFile struct {
	Credentials
	LegacyKey string `json:"api_key,omitempty"`
}

// LoadCredentials reads the credentials at path. A missing file yields empty
// credentials. Blank and repeated keys are dropped and CurrentKey is clamped
// into range.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Credentials{}, nil
		}
		return nil, &StorageError{Op: "read", Entity: "credentials", ID: path, Err: err}
	}

	var f credentialsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &StorageError{Op: "read", Entity: "credentials", ID: path, Err: ErrStorageCorrupt}
	}
	if len(f.APIKeys) == 0 && f.LegacyKey != "" {
		f.APIKeys = []string{f.LegacyKey}
	}

	c := f.Credentials
	c.normalize()
	return &c, nil
}

// SaveCredentials writes c to path atomically. The file is readable by its
// owner only.
func SaveCredentials(path string, c *Credentials) error {
	if c == nil {
		return &StorageError{Op: "write", Entity: "credentials", ID: path, Err: ErrInvalidInput}
	}
	out := *c
	out.APIKeys = append([]string(nil), c.APIKeys...)
	out.normalize()
	if out.APIKeys == nil {
		out.APIKeys = []string{}
	}
	return writeJSON(path, "credentials", &out)
}

func (c *Credentials) normalize() {
	seen := make(map[string]bool, len(c.APIKeys))
	keys := c.APIKeys[:0]
	for _, k := range c.APIKeys {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	c.APIKeys = keys
	if c.CurrentKey < 0 || c.CurrentKey >= len(c.APIKeys) {
		c.CurrentKey = 0
	}
}
