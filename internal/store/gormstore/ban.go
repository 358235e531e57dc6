// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package gormstore

import (
	"context"
	"net"
	"time"

	"gorm.io/gorm"

	"github.com/ionovox/server/internal/db/models"
)

type banStore struct {
	db *gorm.DB
}

func (s banStore) List(ctx context.Context) ([]models.Ban, error) {
	return models.ListBans(s.db.WithContext(ctx))
}

func (s banStore) Add(ctx context.Context, b *models.Ban) error {
	return models.CreateBan(s.db.WithContext(ctx), b)
}

func (s banStore) Remove(ctx context.Context, id uint) error {
	return models.RemoveBan(s.db.WithContext(ctx), id)
}

// Matching returns every ban row that matches the given connection
// attributes and is currently active, evaluated in Go rather than SQL
// since Ban.Matches handles CIDR containment that varies per row.
func (s banStore) Matching(ctx context.Context, addr net.IP, username, certHash string, at time.Time) ([]models.Ban, error) {
	all, err := models.ListBans(s.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	var matched []models.Ban
	for _, b := range all {
		if b.Active(at) && b.Matches(addr, username, certHash) {
			matched = append(matched, b)
		}
	}
	return matched, nil
}
