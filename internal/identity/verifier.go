package identity

import (
	"context"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/promptcast/internal/observability/logger"
)

// TokenVerifier valida tokens Bearer firmados con HS256.
// El secret y el issuer se fijan en el arranque (inyección explícita,
// sin lazy-init global).
type TokenVerifier struct {
	mode   Mode
	secret []byte
	iss    string
}

// NewTokenVerifier construye el verifier. En ModeOpen el secret puede ser vacío.
func NewTokenVerifier(mode Mode, secret, issuer string) *TokenVerifier {
	return &TokenVerifier{mode: mode, secret: []byte(secret), iss: issuer}
}

// Mode retorna el modo configurado.
func (v *TokenVerifier) Mode() Mode { return v.mode }

// Verify implementa Verifier.
//
// Header ausente o malformado:
//   - ModeOpen: identidad fallback (logueado en WARN, nunca silencioso).
//   - ModeStrict: ErrUnauthorized.
//
// Header presente: se valida SIEMPRE contra el secret, incluso en ModeOpen.
// Un token inválido jamás degrada a fallback (no confiamos parcialmente).
func (v *TokenVerifier) Verify(ctx context.Context, rawHeader string) (Identity, error) {
	raw, ok := bearerToken(rawHeader)
	if !ok {
		if v.mode == ModeOpen {
			logger.From(ctx).Warn("request sin credencial, usando identidad fallback",
				logger.Component("identity"),
				logger.UserID(fallbackIdentity.ID),
			)
			return FallbackIdentity(), nil
		}
		return Identity{}, ErrUnauthorized
	}

	claims, err := v.parse(raw)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}

	id, _ := claims["sub"].(string)
	if id == "" {
		// uid es el nombre de claim que usa el SDK de Firebase
		id, _ = claims["uid"].(string)
	}
	if id == "" {
		return Identity{}, ErrUnauthorized
	}
	email, _ := claims["email"].(string)

	return Identity{ID: id, Email: email, Claims: claims}, nil
}

// parse valida firma (HS256), iss (si fue configurado) y exp/nbf.
// Devuelve las claims como map[string]any.
func (v *TokenVerifier) parse(token string) (map[string]any, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) {
		return v.secret, nil
	}

	opts := []jwtv5.ParserOption{jwtv5.WithValidMethods([]string{"HS256"})}
	if v.iss != "" {
		opts = append(opts, jwtv5.WithIssuer(v.iss))
	}

	tok, err := jwtv5.Parse(token, keyfunc, opts...)
	if err != nil || !tok.Valid {
		return nil, ErrUnauthorized
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrUnauthorized
	}

	out := make(map[string]any, len(claims))
	for k, val := range claims {
		out[k] = val
	}
	return out, nil
}

// bearerToken extrae el token del header Authorization.
// Acepta "Bearer <token>" case-insensitive en el esquema.
func bearerToken(rawHeader string) (string, bool) {
	ah := strings.TrimSpace(rawHeader)
	if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(ah[len("Bearer "):])
	return tok, tok != ""
}
