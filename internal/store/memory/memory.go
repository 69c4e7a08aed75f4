// Package memory implementa store.ProfileStore in-process.
// Para desarrollo y tests; no sobrevive reinicios.
package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/promptcast/internal/store"
)

type Store struct{ c *gocache.Cache }

func New() *Store {
	return &Store{c: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

func (s *Store) GetProfile(_ context.Context, userID string) (*store.Profile, error) {
	v, ok := s.c.Get(userID)
	if !ok {
		return nil, nil
	}
	p, _ := v.(store.Profile)
	// copia: el caller no debe poder mutar lo guardado
	out := p
	return &out, nil
}

func (s *Store) SetTier(_ context.Context, userID, tier string) error {
	now := time.Now().UTC()
	if v, ok := s.c.Get(userID); ok {
		p, _ := v.(store.Profile)
		p.Tier = tier
		s.c.Set(userID, p, gocache.NoExpiration)
		return nil
	}
	s.c.Set(userID, store.Profile{Tier: tier, CreatedAt: &now}, gocache.NoExpiration)
	return nil
}

// Seed carga un perfil completo. Solo para tests y seeds de desarrollo.
func (s *Store) Seed(userID string, p store.Profile) {
	s.c.Set(userID, p, gocache.NoExpiration)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
