// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package memstore

import (
	"context"
	"strings"

	"github.com/ionovox/server/internal/apperror"
	"github.com/ionovox/server/internal/db/models"
)

type userStore Store

func (s *userStore) Create(ctx context.Context, name string) (models.User, error) {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	if nameTakenLocked(s2, name) {
		return models.User{}, apperror.New(apperror.KindConflict, "name already taken")
	}
	u := models.User{ID: s2.nextUserID, Name: name}
	s2.users[u.ID] = u
	s2.nextUserID++
	return u, nil
}

func (s *userStore) Get(ctx context.Context, id uint) (models.User, error) {
	s2 := (*Store)(s)
	s2.mu.RLock()
	defer s2.mu.RUnlock()
	u, ok := s2.users[id]
	if !ok {
		return models.User{}, apperror.NotFound
	}
	return s2.withProperties(u), nil
}

func (s *userStore) GetByName(ctx context.Context, name string) (models.User, error) {
	s2 := (*Store)(s)
	s2.mu.RLock()
	defer s2.mu.RUnlock()
	for _, u := range s2.users {
		if strings.EqualFold(u.Name, name) {
			return s2.withProperties(u), nil
		}
	}
	return models.User{}, apperror.NotFound
}

func (s *userStore) NameTaken(ctx context.Context, name string) (bool, error) {
	s2 := (*Store)(s)
	s2.mu.RLock()
	defer s2.mu.RUnlock()
	return nameTakenLocked(s2, name), nil
}

func nameTakenLocked(s *Store, name string) bool {
	for _, u := range s.users {
		if strings.EqualFold(u.Name, name) {
			return true
		}
	}
	return false
}

func (s *userStore) List(ctx context.Context) ([]models.User, error) {
	s2 := (*Store)(s)
	s2.mu.RLock()
	defer s2.mu.RUnlock()
	out := make([]models.User, 0, len(s2.users))
	for _, u := range s2.users {
		out = append(out, s2.withProperties(u))
	}
	return out, nil
}

func (s *userStore) Delete(ctx context.Context, id uint) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	if _, ok := s2.users[id]; !ok {
		return apperror.NotFound
	}
	delete(s2.users, id)
	delete(s2.properties, id)
	for channelID, byUser := range s2.listeners {
		delete(byUser, id)
		if len(byUser) == 0 {
			delete(s2.listeners, channelID)
		}
	}
	return nil
}

func (s *userStore) SetPasswordVerifier(ctx context.Context, id uint, verifier []byte) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	u, ok := s2.users[id]
	if !ok {
		return apperror.NotFound
	}
	u.PasswordVerifier = verifier
	s2.users[id] = u
	return nil
}

func (s *userStore) SetCertHashes(ctx context.Context, id uint, strong, weak string) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	u, ok := s2.users[id]
	if !ok {
		return apperror.NotFound
	}
	u.CertHashStrong = strong
	u.CertHashWeak = weak
	s2.users[id] = u
	return nil
}

// withProperties must be called with s.mu held (read or write).
func (s *Store) withProperties(u models.User) models.User {
	props := s.properties[u.ID]
	u.Properties = make([]models.Property, 0, len(props))
	for tag, value := range props {
		u.Properties = append(u.Properties, models.Property{UserID: u.ID, Tag: tag, Value: value})
	}
	return u
}
