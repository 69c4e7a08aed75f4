// Package catalog es el registro estático de herramientas: configuración
// pura (category → tool → template + parámetros de modelo), sin I/O.
package catalog

import "errors"

// ErrToolNotFound: clave (categoría, herramienta) desconocida.
// El lookup falla explícito, nunca degrada a un default.
var ErrToolNotFound = errors.New("catalog: tool not found")

// Field describe un input estructurado de una herramienta.
type Field struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// Tool es la definición estática de una herramienta.
type Tool struct {
	CategoryID string  `json:"categoryId"`
	ToolID     string  `json:"toolId"`
	Title      string  `json:"title"`
	Model      string  `json:"model,omitempty"` // vacío = modelo default del servicio
	MaxTokens  int     `json:"maxTokens"`
	Fields     []Field `json:"fields"`
	// System es el system prompt base; Template el mensaje de usuario
	// con placeholders {{field_id}}.
	System   string `json:"-"`
	Template string `json:"-"`
}

// Key retorna la clave compuesta "categoryId:toolId".
func (t *Tool) Key() string {
	return t.CategoryID + ":" + t.ToolID
}

// Registry indexa herramientas por clave compuesta.
type Registry struct {
	byKey      map[string]*Tool
	categories []string
	byCategory map[string][]*Tool
}

// NewRegistry arma un registry desde una lista de definiciones.
// Paniquea con claves duplicadas: es un error de programación en la tabla
// estática, no una condición de runtime.
func NewRegistry(tools []Tool) *Registry {
	r := &Registry{
		byKey:      make(map[string]*Tool, len(tools)),
		byCategory: make(map[string][]*Tool),
	}
	for i := range tools {
		t := &tools[i]
		if _, dup := r.byKey[t.Key()]; dup {
			panic("catalog: duplicate tool key " + t.Key())
		}
		r.byKey[t.Key()] = t
		if _, seen := r.byCategory[t.CategoryID]; !seen {
			r.categories = append(r.categories, t.CategoryID)
		}
		r.byCategory[t.CategoryID] = append(r.byCategory[t.CategoryID], t)
	}
	return r
}

// Default retorna el registry con el catálogo de producción.
func Default() *Registry {
	return NewRegistry(defaultTools)
}

// Lookup busca una herramienta. Clave desconocida → ErrToolNotFound.
func (r *Registry) Lookup(categoryID, toolID string) (*Tool, error) {
	t, ok := r.byKey[categoryID+":"+toolID]
	if !ok {
		return nil, ErrToolNotFound
	}
	return t, nil
}

// Categories retorna los IDs de categoría en orden de declaración.
func (r *Registry) Categories() []string {
	out := make([]string, len(r.categories))
	copy(out, r.categories)
	return out
}

// Tools retorna las herramientas de una categoría.
func (r *Registry) Tools(categoryID string) []*Tool {
	return r.byCategory[categoryID]
}
