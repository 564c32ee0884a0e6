// Package memstore provides an in-process store for accounts and photos,
// used for local runs (STORE_BACKEND=memory) and tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/model"
)

type Store struct {
	mu       sync.Mutex // защищает карты, не держится во время изменения аккаунта
	locks    map[string]*sync.Mutex
	accounts map[string]*model.Account

	photoMu sync.RWMutex
	photos  map[int64]model.Photo
	nextID  int64
	now     func() time.Time
}

func New() *Store {
	return &Store{
		locks:    make(map[string]*sync.Mutex),
		accounts: make(map[string]*model.Account),
		photos:   make(map[int64]model.Photo),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// userLock serializes account mutations per user; other users are not blocked.
func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// account must be called with the user lock held
func (s *Store) account(userID string) *model.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		acc = &model.Account{UserID: userID, UpdatedAt: s.now()}
		s.accounts[userID] = acc
	}
	return acc
}

func (s *Store) GetOrCreateAccount(ctx context.Context, userID string) (*model.Account, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	acc := *s.account(userID)
	return &acc, nil
}

func (s *Store) AddUsage(ctx context.Context, userID string, delta, limit int64) (int64, bool, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	acc := s.account(userID)
	if acc.UsedBytes+delta > limit {
		return acc.UsedBytes, false, nil
	}
	acc.UsedBytes += delta
	acc.UpdatedAt = s.now()
	return acc.UsedBytes, true, nil
}

func (s *Store) SubUsage(ctx context.Context, userID string, delta int64) (int64, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	acc := s.account(userID)
	acc.UsedBytes = max(acc.UsedBytes-delta, 0)
	acc.UpdatedAt = s.now()
	return acc.UsedBytes, nil
}

//---------------------

func (s *Store) CreatePhoto(ctx context.Context, p *model.Photo) error {
	s.photoMu.Lock()
	defer s.photoMu.Unlock()

	s.nextID++
	p.ID = s.nextID
	s.photos[p.ID] = *p
	return nil
}

func (s *Store) GetOwnedPhoto(ctx context.Context, ownerID string, id int64) (*model.Photo, error) {
	s.photoMu.RLock()
	defer s.photoMu.RUnlock()

	p, ok := s.photos[id]
	if !ok || p.OwnerID != ownerID {
		return nil, model.ErrPhotoNotFound
	}
	return &p, nil
}

func (s *Store) ListPhotos(ctx context.Context, ownerID string, limit int) ([]model.Photo, error) {
	s.photoMu.RLock()
	defer s.photoMu.RUnlock()

	res := make([]model.Photo, 0)
	for _, p := range s.photos {
		if p.OwnerID == ownerID {
			res = append(res, p)
		}
	}

	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID > res[j].ID
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})

	if limit < len(res) {
		res = res[:max(limit, 0)]
	}
	return res, nil
}

// DeleteOwnedPhoto releases the photo's size and drops it under the owner's
// lock; a second delete of the same photo finds nothing and releases nothing.
func (s *Store) DeleteOwnedPhoto(ctx context.Context, ownerID string, id int64) (*model.Photo, error) {
	l := s.userLock(ownerID)
	l.Lock()
	defer l.Unlock()

	s.photoMu.Lock()
	defer s.photoMu.Unlock()

	p, ok := s.photos[id]
	if !ok || p.OwnerID != ownerID {
		return nil, model.ErrPhotoNotFound
	}

	acc := s.account(ownerID)
	acc.UsedBytes = max(acc.UsedBytes-p.SizeBytes, 0)
	acc.UpdatedAt = s.now()

	delete(s.photos, id)
	return &p, nil
}
