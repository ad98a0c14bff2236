// Package session holds the client-side materialization of the auth
// session: an in-memory record mirrored to durable storage, consumed by
// whatever drives the UI. The bridge's httpOnly cookies hold an independent
// materialization of the same logical session; the two are reconciled
// lazily, next successful refresh wins.
package session

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/verdantis/herbfront/authapi"
)

// Durable storage keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyExpiresIn    = "expire_in"
	KeyUser         = "user"
)

// Session is a snapshot of the current auth state. LoggedIn is derived:
// true exactly when an access token is present.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	User         *authapi.User
	LoggedIn     bool
}

// Store is an explicitly owned session record with subscriber notification.
// All methods are safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	cur     Session
	storage Storage

	subMu   sync.Mutex
	subs    map[int]func(Session)
	nextSub int
}

// NewStore creates a Store backed by the given durable storage.
func NewStore(storage Storage) *Store {
	return &Store{
		storage: storage,
		subs:    make(map[int]func(Session)),
	}
}

// Current returns a snapshot of the session.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// DurableStorage exposes the underlying storage for other client-side
// caches that share it, such as the basket.
func (s *Store) DurableStorage() Storage {
	return s.storage
}

// AccessToken returns the current access token, empty when logged out.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.AccessToken
}

// LoadFromStorage populates the record from durable storage. Called once at
// application start; missing keys leave their fields empty.
func (s *Store) LoadFromStorage() error {
	access, err := s.read(KeyAccessToken)
	if err != nil {
		return err
	}
	refresh, err := s.read(KeyRefreshToken)
	if err != nil {
		return err
	}
	expireRaw, err := s.read(KeyExpiresIn)
	if err != nil {
		return err
	}
	userRaw, err := s.read(KeyUser)
	if err != nil {
		return err
	}

	var expiresIn int64
	if expireRaw != "" {
		// tolerate garbage the same way a missing key is tolerated
		_ = json.Unmarshal([]byte(expireRaw), &expiresIn)
	}
	var user *authapi.User
	if userRaw != "" {
		user = &authapi.User{}
		if err := json.Unmarshal([]byte(userRaw), user); err != nil {
			user = nil
		}
	}

	s.mu.Lock()
	s.cur = Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    expiresIn,
		User:         user,
		LoggedIn:     access != "",
	}
	snap := s.cur
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Set replaces the whole record after a successful login or social
// conversion. It does not persist; call Persist at the point of login, the
// same way the bridge sets its cookies there.
func (s *Store) Set(sess Session) {
	s.mu.Lock()
	sess.LoggedIn = true
	s.cur = sess
	snap := s.cur
	s.mu.Unlock()

	s.notify(snap)
}

// UpdateAccessToken swaps in a new access token after a wrapper-level
// refresh. Memory only: durable storage is written on explicit login, not
// on token rotation.
func (s *Store) UpdateAccessToken(token string, expiresIn int64) {
	s.mu.Lock()
	s.cur.AccessToken = token
	s.cur.ExpiresIn = expiresIn
	s.cur.LoggedIn = token != ""
	snap := s.cur
	s.mu.Unlock()

	s.notify(snap)
}

// Persist writes the four session keys to durable storage.
func (s *Store) Persist() error {
	s.mu.RLock()
	cur := s.cur
	s.mu.RUnlock()

	if err := s.storage.Set(KeyAccessToken, cur.AccessToken); err != nil {
		return err
	}
	if err := s.storage.Set(KeyRefreshToken, cur.RefreshToken); err != nil {
		return err
	}
	expire, err := json.Marshal(cur.ExpiresIn)
	if err != nil {
		return err
	}
	if err := s.storage.Set(KeyExpiresIn, string(expire)); err != nil {
		return err
	}
	userJSON := ""
	if cur.User != nil {
		b, err := json.Marshal(cur.User)
		if err != nil {
			return err
		}
		userJSON = string(b)
	}
	return s.storage.Set(KeyUser, userJSON)
}

// Clear resets every field and removes the four keys from durable storage.
// Called on logout and on terminal refresh failure.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.cur = Session{}
	snap := s.cur
	s.mu.Unlock()

	s.notify(snap)

	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyExpiresIn, KeyUser} {
		if err := s.storage.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers fn to run after every mutation with the new snapshot.
// The returned func cancels the subscription.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(snap Session) {
	s.subMu.Lock()
	fns := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) read(key string) (string, error) {
	v, err := s.storage.Get(key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
