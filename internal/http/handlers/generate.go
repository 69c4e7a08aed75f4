package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/promptcast/internal/catalog"
	"github.com/dropDatabas3/promptcast/internal/entitlement"
	httperrors "github.com/dropDatabas3/promptcast/internal/http/errors"
	mw "github.com/dropDatabas3/promptcast/internal/http/middlewares"
	"github.com/dropDatabas3/promptcast/internal/llm"
	"github.com/dropDatabas3/promptcast/internal/metrics"
	"github.com/dropDatabas3/promptcast/internal/observability/logger"
)

// doneSentinel cierra todo stream exitoso; el frontend lo usa como EOF.
const doneSentinel = "[DONE]"

// Generate es el gateway de generación: el pipeline completo de un request
// de streaming.
//
// Estados: auth (middleware) → lookup de catálogo → entitlement → render →
// stream upstream → relay al cliente. Los errores ANTES de abrir el stream
// salen como JSON con status normal; una vez comprometidos los headers SSE,
// cualquier error viaja DENTRO del protocolo de eventos.
type Generate struct {
	Registry *catalog.Registry
	Resolver *entitlement.Resolver
	Streamer llm.Streamer
	// DefaultModel se usa cuando la herramienta no fija uno propio.
	DefaultModel string
}

type generateRequest struct {
	CategoryID string            `json:"categoryId"`
	ToolID     string            `json:"toolId"`
	Inputs     map[string]string `json:"inputs"`
}

// evento del stream hacia el cliente: {"text": ...} o {"error": ...}
type streamEvent struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

func (h *Generate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, ok := mw.GetIdentity(r.Context())
	if !ok {
		// RequireAuth no corrió: error de wiring, no del cliente
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	req.CategoryID = strings.TrimSpace(req.CategoryID)
	req.ToolID = strings.TrimSpace(req.ToolID)
	if req.CategoryID == "" || req.ToolID == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("categoryId y toolId son requeridos"))
		return
	}
	if req.Inputs == nil {
		req.Inputs = map[string]string{}
	}

	log := logger.FromWithFields(r.Context(),
		logger.UserID(id.ID),
		logger.Category(req.CategoryID),
		logger.Tool(req.ToolID),
	)

	// Lookup de catálogo antes de entitlements: tool desconocida es 404,
	// nunca se conflate con access-denied y no gasta lecturas de perfil.
	tool, err := h.Registry.Lookup(req.CategoryID, req.ToolID)
	if err != nil {
		metrics.ObserveGeneration(req.CategoryID, req.ToolID, "not_found", 0, 0)
		httperrors.WriteError(w, httperrors.ErrToolNotFound)
		return
	}

	decision := h.Resolver.Resolve(r.Context(), id, req.CategoryID, req.ToolID)
	if !decision.Allowed {
		log.Info("generation denied", logger.Tier(string(decision.Tier)))
		metrics.ObserveGeneration(req.CategoryID, req.ToolID, "denied", 0, 0)
		httperrors.WriteError(w, httperrors.ErrUpgradeRequired)
		return
	}

	systemPrompt, userMessage, err := catalog.Render(tool, req.Inputs)
	if err != nil {
		metrics.ObserveGeneration(req.CategoryID, req.ToolID, "bad_request", 0, 0)
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail(err.Error()))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("streaming no soportado"))
		return
	}

	model := tool.Model
	if model == "" {
		model = h.DefaultModel
	}

	// Abrimos el upstream con el contexto del request: si el cliente corta,
	// la cancelación aborta la llamada upstream en el acto (no seguimos
	// pagando tokens).
	stream, err := h.Streamer.Stream(r.Context(), llm.Request{
		Model:     model,
		MaxTokens: tool.MaxTokens,
		System:    systemPrompt,
		User:      userMessage,
	})
	if err != nil {
		log.Error("upstream open failed", logger.Err(err))
		metrics.ObserveGeneration(req.CategoryID, req.ToolID, "failed", 0, time.Since(start))
		httperrors.WriteError(w, httperrors.ErrUpstreamUnavailable)
		return
	}
	defer stream.Close()

	// Headers ANTES del primer byte de body. X-Accel-Buffering desactiva
	// el buffering de intermediarios (nginx).
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log = log.With(logger.Tier(string(decision.Tier)), logger.Model(model))

	chunks := 0
	for {
		text, err := stream.Recv()
		if err == io.EOF {
			// Terminal: completado
			writeSSE(w, flusher, fmt.Sprintf("data: %s\n\n", doneSentinel))
			log.Info("generation completed", logger.Chunks(chunks), logger.DurationMs(time.Since(start).Milliseconds()))
			metrics.ObserveGeneration(req.CategoryID, req.ToolID, "completed", chunks, time.Since(start))
			return
		}
		if err != nil {
			if r.Context().Err() != nil {
				// Terminal: abort del cliente. No hay canal al que escribir;
				// el defer libera el handle upstream (una sola vez).
				log.Info("generation aborted by client", logger.Chunks(chunks))
				metrics.ObserveGeneration(req.CategoryID, req.ToolID, "aborted", chunks, time.Since(start))
				return
			}
			// Terminal: error upstream a mitad del stream. Mensaje genérico
			// al cliente; el detalle queda en logs.
			log.Error("upstream error mid-stream", logger.Err(err), logger.Chunks(chunks))
			writeEvent(w, flusher, streamEvent{Error: "generation failed"})
			metrics.ObserveGeneration(req.CategoryID, req.ToolID, "failed", chunks, time.Since(start))
			return
		}

		// Relay inmediato, preservando el orden de llegada.
		writeEvent(w, flusher, streamEvent{Text: text})
		chunks++
	}
}

// writeEvent frame un evento como "data: <JSON>\n\n" y flushea.
func writeEvent(w io.Writer, flusher http.Flusher, ev streamEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	writeSSE(w, flusher, fmt.Sprintf("data: %s\n\n", b))
}

func writeSSE(w io.Writer, flusher http.Flusher, frame string) {
	// al cliente desconectado el write falla; nada útil que hacer con el error
	_, _ = io.WriteString(w, frame)
	flusher.Flush()
}
