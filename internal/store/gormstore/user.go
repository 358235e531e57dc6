// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ionovox/server/internal/apperror"
	"github.com/ionovox/server/internal/db/models"
)

type userStore struct {
	db *gorm.DB
}

func (s userStore) Create(ctx context.Context, name string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if models.NameTaken(tx, name) {
			return apperror.New(apperror.KindConflict, fmt.Sprintf("name %q already registered", name))
		}
		user = models.User{Name: name}
		return tx.Create(&user).Error
	})
	return user, err
}

func (s userStore) Get(ctx context.Context, id uint) (models.User, error) {
	user, err := models.FindUserByID(s.db.WithContext(ctx), id)
	if err != nil {
		return user, wrapNotFound(err)
	}
	return user, nil
}

func (s userStore) GetByName(ctx context.Context, name string) (models.User, error) {
	user, err := models.FindUserByName(s.db.WithContext(ctx), name)
	if err != nil {
		return user, wrapNotFound(err)
	}
	return user, nil
}

func (s userStore) NameTaken(ctx context.Context, name string) (bool, error) {
	return models.NameTaken(s.db.WithContext(ctx), name), nil
}

func (s userStore) List(ctx context.Context) ([]models.User, error) {
	return models.ListUsers(s.db.WithContext(ctx))
}

func (s userStore) Delete(ctx context.Context, id uint) error {
	if !models.UserExists(s.db.WithContext(ctx), id) {
		return apperror.New(apperror.KindNotFound, "user not found")
	}
	return models.DeleteUser(s.db.WithContext(ctx), id)
}

func (s userStore) SetPasswordVerifier(ctx context.Context, id uint, verifier []byte) error {
	return s.db.WithContext(ctx).Model(&models.User{ID: id}).Update("password_verifier", verifier).Error
}

func (s userStore) SetCertHashes(ctx context.Context, id uint, strong, weak string) error {
	return s.db.WithContext(ctx).Model(&models.User{ID: id}).Updates(map[string]any{
		"cert_hash_strong": strong,
		"cert_hash_weak":   weak,
	}).Error
}

func wrapNotFound(err error) error {
	if err == gorm.ErrRecordNotFound {
		return apperror.Wrap(apperror.KindNotFound, "record not found", err)
	}
	return apperror.Wrap(apperror.KindStore, "store operation failed", err)
}
