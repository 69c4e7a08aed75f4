// Package store define el boundary con el profile store externo.
// El core solo LEE el tier por request; la única escritura permitida
// es la del webhook de billing (SetTier).
package store

import (
	"context"
	"time"
)

// Profile es el estado de suscripción de un usuario.
// CreatedAt puede ser nil cuando el proveedor de identidad no lo registró;
// en ese caso el trial NUNCA se concede (fail-closed).
type Profile struct {
	Tier      string
	CreatedAt *time.Time
}

// ProfileStore lee y escribe perfiles de suscripción.
// GetProfile retorna (nil, nil) cuando el usuario no tiene perfil.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)

	// SetTier actualiza el tier de un usuario, creando el perfil si no existe.
	// Solo lo invoca el webhook de billing.
	SetTier(ctx context.Context, userID, tier string) error

	// Ping verifica la conexión con el backend.
	Ping(ctx context.Context) error

	Close() error
}
