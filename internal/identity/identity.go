// Package identity resuelve la identidad del request a partir del header
// Authorization. La verificación real del token vive detrás de la interfaz
// Verifier para poder stubearla en tests.
package identity

import (
	"context"
	"errors"
)

// Identity es la identidad autenticada de un request.
// Inmutable durante la vida del request; no se persiste acá.
type Identity struct {
	ID     string
	Email  string
	Claims map[string]any
}

// Mode define cómo se tratan los requests sin credencial.
// Se decide UNA vez en el arranque, nunca por-request.
type Mode int

const (
	// ModeStrict exige Bearer token válido en todos los requests.
	ModeStrict Mode = iota
	// ModeOpen devuelve una identidad fallback fija cuando no hay token.
	// Solo para desarrollo; Config.Validate lo bloquea en prod.
	ModeOpen
)

func (m Mode) String() string {
	if m == ModeOpen {
		return "open"
	}
	return "strict"
}

// ParseMode convierte el string de configuración a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "open":
		return ModeOpen, nil
	case "strict", "":
		return ModeStrict, nil
	}
	return ModeStrict, errors.New("identity: modo desconocido " + s)
}

// ErrUnauthorized: credencial ausente, malformada o inválida.
// Nunca se reintenta; el cliente debe re-autenticarse.
var ErrUnauthorized = errors.New("identity: unauthorized")

// Verifier valida el valor crudo del header Authorization y produce una Identity.
type Verifier interface {
	Verify(ctx context.Context, rawHeader string) (Identity, error)
}

// Identidad fallback para ModeOpen. Determinística y documentada:
// el resolver de entitlements la trata como cualquier otra identidad
// (su tier sale del profile store o del allow-list de admins).
var fallbackIdentity = Identity{
	ID:    "dev-user",
	Email: "dev@promptcast.local",
}

// FallbackIdentity retorna una copia de la identidad de desarrollo.
func FallbackIdentity() Identity {
	return Identity{ID: fallbackIdentity.ID, Email: fallbackIdentity.Email}
}
