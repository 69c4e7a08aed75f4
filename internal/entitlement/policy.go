package entitlement

// Policy define qué puede usar un tier. Colecciones ausentes son sets
// vacíos, nunca nil sorpresa: la exhaustividad se chequea en tests.
type Policy struct {
	// AllowedCategories: acceso a TODAS las herramientas de la categoría.
	AllowedCategories map[string]struct{}
	// AllowedTools: claves compuestas "categoryId:toolId".
	AllowedTools map[string]struct{}
	// AllAccess ignora las listas anteriores.
	AllAccess bool
}

// ToolKey construye la clave compuesta usada en los allow-lists.
func ToolKey(categoryID, toolID string) string {
	return categoryID + ":" + toolID
}

func set(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

/// policies: exactamente una policy por tier.
// free fuera de trial solo conserva las herramientas básicas de marketing.
var policies = map[Tier]Policy{
	TierFree: {
		AllowedCategories: set(),
		AllowedTools: set(
			"marketing:seo-keyword-research",
			"marketing:blog-outline",
		),
	},
	TierGrow: {
		AllowedCategories: set("marketing"),
		AllowedTools: set(
			"sales:cold-email",
			"social:post-generator",
		),
	},
	TierScale: {
		AllowedCategories: set("marketing", "sales", "social"),
		AllowedTools:      set(),
	},
	TierEvolution: {
		AllowedCategories: set(),
		AllowedTools:      set(),
		AllAccess:         true,
	},
	TierAdmin: {
		AllowedCategories: set(),
		AllowedTools:      set(),
		AllAccess:         true,
	},
}

// PolicyFor retorna la policy del tier; tiers desconocidos caen a free.
func PolicyFor(t Tier) Policy {
	if p, ok := policies[t]; ok {
		return p
	}
	return policies[TierFree]
}
