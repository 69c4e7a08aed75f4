package handlers

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/dropDatabas3/promptcast/internal/catalog"
	"github.com/dropDatabas3/promptcast/internal/entitlement"
	mw "github.com/dropDatabas3/promptcast/internal/http/middlewares"
)

// Tools lista el catálogo completo, anotando por herramienta si el usuario
// actual puede usarla. El frontend pinta el candado de upgrade con esto.
type Tools struct {
	Registry *catalog.Registry
	Resolver *entitlement.Resolver
}

type toolSummary struct {
	ToolID  string          `json:"toolId"`
	Title   string          `json:"title"`
	Fields  []catalog.Field `json:"fields"`
	Allowed bool            `json:"allowed"`
}

type categorySummary struct {
	CategoryID string        `json:"categoryId"`
	Tools      []toolSummary `json:"tools"`
}

type toolsResponse struct {
	Tier       string            `json:"tier"`
	Categories []categorySummary `json:"categories"`
}

func (h *Tools) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, _ := mw.GetIdentity(r.Context())

	// una sola lectura de perfil para todo el catálogo
	tier, createdAt := h.Resolver.EffectiveTier(r.Context(), id)
	resp := toolsResponse{Tier: string(tier), Categories: []categorySummary{}}

	cats := h.Registry.Categories()
	sort.Strings(cats)
	for _, cat := range cats {
		cs := categorySummary{CategoryID: cat, Tools: []toolSummary{}}
		for _, t := range h.Registry.Tools(cat) {
			d := h.Resolver.Evaluate(tier, createdAt, t.CategoryID, t.ToolID)
			cs.Tools = append(cs.Tools, toolSummary{
				ToolID:  t.ToolID,
				Title:   t.Title,
				Fields:  t.Fields,
				Allowed: d.Allowed,
			})
		}
		sort.Slice(cs.Tools, func(i, j int) bool { return cs.Tools[i].ToolID < cs.Tools[j].ToolID })
		resp.Categories = append(resp.Categories, cs)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
