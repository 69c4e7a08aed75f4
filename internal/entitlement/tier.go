package entitlement

// Tier es el nivel de suscripción que controla el acceso a herramientas.
type Tier string

const (
	TierFree      Tier = "free"
	TierGrow      Tier = "grow"
	TierScale     Tier = "scale"
	TierEvolution Tier = "evolution"
	TierAdmin     Tier = "admin"
)

// tierAliases mapea nombres legacy (de planes renombrados en billing)
// a los tiers actuales. Tabla fija: se aplica ANTES del lookup de policy.
var tierAliases = map[string]Tier{
	"starter":   TierFree,
	"basic":     TierGrow,
	"pro":       TierScale,
	"premium":   TierEvolution,
	"unlimited": TierEvolution,
}

// NormalizeTier resuelve aliases legacy y valida el nombre.
// Un tier desconocido degrada a free (la policy más restrictiva).
func NormalizeTier(s string) Tier {
	if t, ok := tierAliases[s]; ok {
		return t
	}
	switch Tier(s) {
	case TierFree, TierGrow, TierScale, TierEvolution, TierAdmin:
		return Tier(s)
	}
	return TierFree
}
