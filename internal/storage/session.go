package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"ytanalyzer/internal/enumerate"
	"ytanalyzer/internal/youtube"
)

// SchemaVersion is written into every session file. Files whose major
// version is higher are rejected; unknown fields are ignored.
const SchemaVersion = "1.0"

const sessionExt = ".json"

// Session is the on-disk form of an engine snapshot.
type Session struct {
	Version    string                  `json:"version"`
	ID         string                  `json:"id"`
	SavedAt    time.Time               `json:"saved_at"`
	ChannelURL string                  `json:"channel_url"`
	Channel    *youtube.ChannelSummary `json:"channel,omitempty"`
	Videos     []youtube.VideoRecord   `json:"videos"`
	Calls      int64                   `json:"calls"`
	Counters   enumerate.Counters      `json:"counters"`
	State      enumerate.State         `json:"state"`
}

// NewSession wraps snap in a new session with a fresh identifier.
func NewSession(snap enumerate.Snapshot) *Session {
	videos := snap.Videos
	if videos == nil {
		videos = []youtube.VideoRecord{}
	}
	return &Session{
		Version:    SchemaVersion,
		ID:         uuid.NewString(),
		ChannelURL: snap.ChannelURL,
		Channel:    snap.Channel,
		Videos:     videos,
		Calls:      snap.Calls,
		Counters:   snap.Counters,
		State:      snap.State,
	}
}

// Snapshot converts the session back into an engine snapshot.
func (s *Session) Snapshot() enumerate.Snapshot {
	return enumerate.Snapshot{
		ChannelURL: s.ChannelURL,
		Channel:    s.Channel,
		Videos:     s.Videos,
		Counters:   s.Counters,
		State:      s.State,
		Calls:      s.Calls,
	}
}

// SessionInfo summarizes a stored session without its records.
type SessionInfo struct {
	Path      string
	ID        string
	SavedAt   time.Time
	ChannelID string
	Title     string
	Videos    int
}

// SessionStore keeps session files in one directory.
type SessionStore struct {
	dir string
	now func() time.Time
}

// NewSessionStore returns a store rooted at dir. The directory is created
// on first save.
func NewSessionStore(dir string) *SessionStore {
	return &SessionStore{dir: dir, now: time.Now}
}

// Dir returns the store directory.
func (s *SessionStore) Dir() string { return s.dir }

// Save writes sess to a new file named after its channel and save time and
// returns the path. SavedAt is set to the current time.
func (s *SessionStore) Save(sess *Session) (string, error) {
	if sess == nil {
		return "", &StorageError{Op: "write", Entity: "session", Err: ErrInvalidInput}
	}
	if sess.Version == "" {
		sess.Version = SchemaVersion
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	sess.SavedAt = s.now().UTC()

	name := "session"
	if sess.Channel != nil && sess.Channel.ID != "" {
		name += "_" + sess.Channel.ID
	}
	short := sess.ID
	if len(short) > 8 {
		short = short[:8]
	}
	name += "_" + sess.SavedAt.Format("20060102_150405") + "_" + short + sessionExt
	path := filepath.Join(s.dir, name)

	if err := writeJSON(path, "session", sess); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads the session at path.
func (s *SessionStore) Load(path string) (*Session, error) {
	return LoadSession(path)
}

// LoadSession reads a session file.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &StorageError{Op: "read", Entity: "session", ID: path, Err: ErrNotFound}
		}
		return nil, &StorageError{Op: "read", Entity: "session", ID: path, Err: err}
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, &StorageError{Op: "read", Entity: "session", ID: path, Err: ErrStorageCorrupt}
	}
	if err := checkVersion(sess.Version); err != nil {
		return nil, &StorageError{Op: "read", Entity: "session", ID: path, Err: err}
	}
	if sess.Videos == nil {
		sess.Videos = []youtube.VideoRecord{}
	}
	return &sess, nil
}

// List returns the readable sessions in the store, newest first. Files that
// fail to decode are skipped.
func (s *SessionStore) List() ([]SessionInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &StorageError{Op: "list", Entity: "session", ID: s.dir, Err: err}
	}

	var out []SessionInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "session") || filepath.Ext(name) != sessionExt {
			continue
		}
		path := filepath.Join(s.dir, name)
		sess, err := LoadSession(path)
		if err != nil {
			continue
		}
		info := SessionInfo{Path: path, ID: sess.ID, SavedAt: sess.SavedAt, Videos: len(sess.Videos)}
		if sess.Channel != nil {
			info.ChannelID, info.Title = sess.Channel.ID, sess.Channel.Title
		}
		out = append(out, info)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SavedAt.After(out[j].SavedAt) })
	return out, nil
}

// Latest loads the newest session, restricted to channelID unless it is
// empty.
func (s *SessionStore) Latest(channelID string) (*Session, string, error) {
	infos, err := s.List()
	if err != nil {
		return nil, "", err
	}
	for _, info := range infos {
		if channelID == "" || info.ChannelID == channelID {
			sess, err := LoadSession(info.Path)
			return sess, info.Path, err
		}
	}
	return nil, "", &StorageError{Op: "read", Entity: "session", ID: channelID, Err: ErrNotFound}
}

func checkVersion(v string) error {
	if v == "" {
		return ErrStorageCorrupt
	}
	major, err := strconv.Atoi(strings.SplitN(v, ".", 2)[0])
	if err != nil {
		return fmt.Errorf("%w: %q", ErrStorageCorrupt, v)
	}
	current, _ := strconv.Atoi(strings.SplitN(SchemaVersion, ".", 2)[0])
	if major > current {
		return fmt.Errorf("%w: %s", ErrUnsupportedVersion, v)
	}
	return nil
}
