// Package entitlement computa la decisión de acceso (identity, tool) → sí/no.
// No conoce HTTP ni el catálogo: el registry valida la existencia de la
// herramienta ANTES de llegar acá (tool desconocida es 404, no 403).
package entitlement

import (
	"context"
	"time"

	"github.com/dropDatabas3/promptcast/internal/identity"
	"github.com/dropDatabas3/promptcast/internal/observability/logger"
	"github.com/dropDatabas3/promptcast/internal/store"
)

// DefaultTrialWindow: ventana de trial para cuentas free.
const DefaultTrialWindow = 14 * 24 * time.Hour

// Reason explica una Decision (machine-readable, para logs y para el cliente).
type Reason string

const (
	ReasonAllAccess       Reason = "all_access"
	ReasonTrial           Reason = "trial"
	ReasonCategory        Reason = "category"
	ReasonTool            Reason = "tool"
	ReasonUpgradeRequired Reason = "upgrade_required"
)

// Decision es el resultado de resolver entitlements para un request.
type Decision struct {
	Allowed bool
	Reason  Reason
	Tier    Tier
}

// Resolver resuelve el tier efectivo de una identidad y lo evalúa
// contra la policy del par (categoría, herramienta).
type Resolver struct {
	Store       store.ProfileStore
	AdminIDs    map[string]struct{}
	TrialWindow time.Duration
	// Now inyectable para tests de borde del trial.
	Now func() time.Time
}

// NewResolver arma un resolver con defaults.
func NewResolver(st store.ProfileStore, adminIDs []string, trialWindow time.Duration) *Resolver {
	ids := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		ids[id] = struct{}{}
	}
	if trialWindow <= 0 {
		trialWindow = DefaultTrialWindow
	}
	return &Resolver{
		Store:       st,
		AdminIDs:    ids,
		TrialWindow: trialWindow,
		Now:         time.Now,
	}
}

// Resolve aplica el algoritmo en orden, primer match gana:
//
//  1. Leer perfil del store. Si la lectura falla: degradar a free y seguir
//     (fail-open; un hiccup del store no tumba el request). Se loguea.
//  2. Normalizar aliases legacy de tier.
//  3. Allow-list de admins fuerza tier admin (incluso con perfil free).
//  4. Policy del tier resuelto (desconocido → free).
//  5. AllAccess → permitido.
//  6. free dentro de la ventana de trial → permitido (acceso total).
//     CreatedAt desconocido → trial NO concedido (fail-closed).
//  7. Categoría en AllowedCategories → permitido.
//  8. "categoria:tool" en AllowedTools → permitido.
//  9. Denegado, reason=upgrade_required.
func (r *Resolver) Resolve(ctx context.Context, id identity.Identity, categoryID, toolID string) Decision {
	tier, createdAt := r.EffectiveTier(ctx, id)
	return r.Evaluate(tier, createdAt, categoryID, toolID)
}

// EffectiveTier hace la lectura de perfil y resuelve el tier efectivo
// (pasos 1–3). Separado de Evaluate para que listar el catálogo completo
// cueste UNA lectura del store, no una por herramienta.
func (r *Resolver) EffectiveTier(ctx context.Context, id identity.Identity) (Tier, *time.Time) {
	tier := TierFree
	var createdAt *time.Time

	profile, err := r.Store.GetProfile(ctx, id.ID)
	switch {
	case err != nil:
		// La lectura del store gana sobre cualquier tier en claims,
		// pero si falla degradamos en vez de responder 500.
		logger.From(ctx).Warn("profile store read failed, degrading to free",
			logger.Component("entitlement"),
			logger.UserID(id.ID),
			logger.Err(err),
		)
	case profile != nil:
		tier = NormalizeTier(profile.Tier)
		createdAt = profile.CreatedAt
	}

	if _, ok := r.AdminIDs[id.ID]; ok {
		tier = TierAdmin
	}
	return tier, createdAt
}

// Evaluate aplica la policy (pasos 4–9) sin tocar el store.
func (r *Resolver) Evaluate(tier Tier, createdAt *time.Time, categoryID, toolID string) Decision {
	policy := PolicyFor(tier)

	if policy.AllAccess {
		return Decision{Allowed: true, Reason: ReasonAllAccess, Tier: tier}
	}

	if tier == TierFree && r.inTrial(createdAt) {
		return Decision{Allowed: true, Reason: ReasonTrial, Tier: tier}
	}

	if _, ok := policy.AllowedCategories[categoryID]; ok {
		return Decision{Allowed: true, Reason: ReasonCategory, Tier: tier}
	}

	if _, ok := policy.AllowedTools[ToolKey(categoryID, toolID)]; ok {
		return Decision{Allowed: true, Reason: ReasonTool, Tier: tier}
	}

	return Decision{Allowed: false, Reason: ReasonUpgradeRequired, Tier: tier}
}

func (r *Resolver) inTrial(createdAt *time.Time) bool {
	if createdAt == nil {
		return false
	}
	return r.Now().Sub(*createdAt) < r.TrialWindow
}
