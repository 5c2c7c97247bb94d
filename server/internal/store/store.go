package store

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zhaobenny/babylog/internal/aggregator"
	"github.com/zhaobenny/babylog/internal/model"
	"github.com/zhaobenny/babylog/internal/parser"
)

// ErrDuplicateUser is returned when two accounts share a username or API key
var ErrDuplicateUser = errors.New("duplicate user")

// User represents a user account
type User struct {
	ID           string `yaml:"-"`
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	APIKey       string `yaml:"api_key"`
}

// Client represents a sync client
type Client struct {
	ID         string
	UserID     string
	Name       string
	LastSyncAt time.Time
}

// Snapshot is the parsed state of the most recent upload for a user
type Snapshot struct {
	ClientID    string
	SyncedAt    time.Time
	Rows        int
	Log         model.EventLog
	Report      aggregator.Report
	SkippedRows int
	Rejected    []parser.Rejection
}

type usersFile struct {
	Users []User `yaml:"users"`
}

// LoadUsers reads the accounts file:
//
//	users:
//	  - username: alice
//	    password_hash: $2a$10$...
//	    api_key: babylog_...
func LoadUsers(path string) ([]User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading users file: %w", err)
	}

	var f usersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing users file: %w", err)
	}
	return f.Users, nil
}

// Store keeps accounts, clients and the latest snapshot per user in memory.
// Nothing survives a restart; clients re-upload their whole log on each sync.
type Store struct {
	mu        sync.RWMutex
	users     map[string]*User
	byName    map[string]*User
	byAPIKey  map[string]*User
	clients   map[string]*Client // keyed by userID + "/" + clientID
	snapshots map[string]*Snapshot
}

// New creates a store holding the given accounts
func New(users []User) (*Store, error) {
	s := &Store{
		users:     make(map[string]*User),
		byName:    make(map[string]*User),
		byAPIKey:  make(map[string]*User),
		clients:   make(map[string]*Client),
		snapshots: make(map[string]*Snapshot),
	}

	for i := range users {
		u := users[i]
		if u.Username == "" || u.APIKey == "" || u.PasswordHash == "" {
			return nil, fmt.Errorf("user #%d: username, password_hash and api_key are required", i+1)
		}
		if _, ok := s.byName[u.Username]; ok {
			return nil, fmt.Errorf("%w: username %q", ErrDuplicateUser, u.Username)
		}
		if _, ok := s.byAPIKey[u.APIKey]; ok {
			return nil, fmt.Errorf("%w: api key of %q", ErrDuplicateUser, u.Username)
		}
		if u.ID == "" {
			u.ID = u.Username
		}
		s.users[u.ID] = &u
		s.byName[u.Username] = &u
		s.byAPIKey[u.APIKey] = &u
	}

	return s, nil
}

// UserCount returns the number of accounts
func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// GetUserByUsername returns the account or nil
func (s *Store) GetUserByUsername(username string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byName[username]
}

// GetUserByID returns the account or nil
func (s *Store) GetUserByID(id string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[id]
}

// GetUserByAPIKey returns the account or nil
func (s *Store) GetUserByAPIKey(apiKey string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byAPIKey[apiKey]
}

func clientKey(userID, clientID string) string {
	return userID + "/" + clientID
}

// PutSnapshot replaces the user's snapshot and records the client's sync time
func (s *Store) PutSnapshot(userID, clientID, clientName string, snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := clientKey(userID, clientID)
	c, ok := s.clients[key]
	if !ok {
		c = &Client{ID: clientID, UserID: userID}
		s.clients[key] = c
	}
	if clientName == "" {
		clientName = clientID
	}
	c.Name = clientName
	c.LastSyncAt = snap.SyncedAt

	snap.ClientID = clientID
	s.snapshots[userID] = snap
}

// Snapshot returns the user's latest snapshot or nil
func (s *Store) Snapshot(userID string) *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshots[userID]
}

// GetClientSyncStatus returns the last sync time of a client, or nil if it never synced
func (s *Store) GetClientSyncStatus(userID, clientID string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[clientKey(userID, clientID)]
	if !ok {
		return nil
	}
	t := c.LastSyncAt
	return &t
}

// Clients returns the user's clients, most recently synced first
func (s *Store) Clients(userID string) []Client {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Client
	for _, c := range s.clients {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSyncAt.After(out[j].LastSyncAt)
	})
	return out
}
