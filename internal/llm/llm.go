// Package llm es el cliente del servicio de completion upstream.
// El gateway lo consume a través de las interfaces Streamer/Stream para
// poder stubearlo en tests sin red.
package llm

import (
	"context"
	"errors"
)

// Request son los parámetros de una completion streameada.
type Request struct {
	Model     string
	MaxTokens int
	System    string
	User      string
}

// Stream es una secuencia de incrementos de texto.
//
// Recv retorna el próximo incremento, io.EOF en el fin normal del mensaje,
// o un error upstream. Close libera el handle; es idempotente y debe
// llamarse en TODOS los caminos (done, error, abort).
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Streamer abre una completion streameada.
// Un error acá ocurre ANTES de cualquier incremento: el caller todavía
// puede responder con status HTTP normal.
type Streamer interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}

// ErrNotConfigured: falta la API key del upstream.
var ErrNotConfigured = errors.New("llm: api key not configured")
