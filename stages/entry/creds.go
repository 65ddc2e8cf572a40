package entry

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

const maxRecent = 8

// RecentManager remembers the emails used to log in. Passwords are never
// stored, the master key exists only while a session is open.
type RecentManager struct {
	path string
	now  func() time.Time
}

func NewRecentManager(path string) *RecentManager {
	return &RecentManager{
		path: path,
		now:  time.Now,
	}
}

type RecentElem struct {
	Email    string `json:"email"`
	LastUsed int64  `json:"lastUsed"`
	Used     int32  `json:"used"`
}

// Add bumps email to the front, dropping the least recently used entries
// past maxRecent.
func (s *RecentManager) Add(email string) error {
	entries, err := s.read()
	if err != nil {
		return err
	}

	elem := RecentElem{Email: email}
	for i, entry := range entries {
		if entry.Email == email {
			elem = entry
			entries = slices.Delete(entries, i, i+1)
			break
		}
	}
	elem.Used++
	elem.LastUsed = s.now().Unix()
	entries = append(entries, elem)

	slices.SortFunc(entries, func(a, b RecentElem) int {
		return cmp.Compare(b.LastUsed, a.LastUsed)
	})
	if len(entries) > maxRecent {
		entries = entries[:maxRecent]
	}
	return s.save(entries)
}

// Get lists remembered emails, most recently used first. A corrupt file
// reads as empty.
func (s *RecentManager) Get() []string {
	entries, err := s.read()
	if err != nil {
		return nil
	}
	slices.SortFunc(entries, func(a, b RecentElem) int {
		return cmp.Compare(b.LastUsed, a.LastUsed)
	})

	emails := make([]string, 0, len(entries))
	for _, entry := range entries {
		emails = append(emails, entry.Email)
	}
	return emails
}

func (s *RecentManager) Forget() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *RecentManager) read() ([]RecentElem, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []RecentElem{}, nil
		}
		return nil, fmt.Errorf("failed to read recent logins: %w", err)
	}

	entries := make([]RecentElem, 0)
	if !json.Valid(data) {
		return entries, nil
	}
	if err = json.Unmarshal(data, &entries); err != nil {
		return []RecentElem{}, nil
	}
	return entries, nil
}

func (s *RecentManager) save(entries []RecentElem) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}
