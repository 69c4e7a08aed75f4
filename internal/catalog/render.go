package catalog

import (
	"fmt"
	"strings"
)

// LanguageField es el input reservado para el idioma de la respuesta.
const LanguageField = "_language"

// languageDirectives: idiomas reconocidos → directiva que se apenda al
// system prompt. Códigos no reconocidos caen al default en silencio.
var languageDirectives = map[string]string{
	"es": "Respond entirely in Spanish.",
	"fr": "Respond entirely in French.",
	"de": "Respond entirely in German.",
	"pt": "Respond entirely in Portuguese.",
	"it": "Respond entirely in Italian.",
}

// Render expande el template de la herramienta con los inputs provistos.
// Función pura: mismos (tool, inputs) → bytes idénticos. Solo interpola
// valores escalares en placeholders fijos; jamás ejecuta nada del input.
//
// Campos requeridos ausentes o vacíos → error (el handler lo mapea a 400).
func Render(t *Tool, inputs map[string]string) (systemPrompt, userMessage string, err error) {
	for _, f := range t.Fields {
		v, ok := inputs[f.ID]
		if f.Required && (!ok || strings.TrimSpace(v) == "") {
			return "", "", fmt.Errorf("catalog: missing required field %q", f.ID)
		}
	}

	userMessage = t.Template
	for _, f := range t.Fields {
		userMessage = strings.ReplaceAll(userMessage, "{{"+f.ID+"}}", inputs[f.ID])
	}

	systemPrompt = t.System
	if lang, ok := inputs[LanguageField]; ok {
		if directive, known := languageDirectives[strings.ToLower(strings.TrimSpace(lang))]; known {
			systemPrompt = systemPrompt + "\n\n" + directive
		}
	}

	return systemPrompt, userMessage, nil
}
