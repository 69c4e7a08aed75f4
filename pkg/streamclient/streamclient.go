// Package streamclient consume el endpoint de generación por SSE.
// Es la contraparte Go del consumidor de frontend: parsea frames
// "data: ...", reconstruye frames partidos entre reads y despacha
// callbacks en orden de llegada.
package streamclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const doneSentinel = "[DONE]"

// Handlers recibe los eventos del stream. OnChunk corre una vez por
// fragmento de texto; exactamente UNO de OnDone/OnError cierra la sesión.
type Handlers struct {
	OnChunk func(text string)
	OnDone  func()
	OnError func(err error)
}

// GenerateRequest es el body de POST /v1/generate.
type GenerateRequest struct {
	CategoryID string            `json:"categoryId"`
	ToolID     string            `json:"toolId"`
	Inputs     map[string]string `json:"inputs"`
}

// APIError es un rechazo pre-stream del servidor (JSON, no SSE).
type APIError struct {
	StatusCode      int
	Code            string `json:"code"`
	Message         string `json:"message"`
	Detail          string `json:"detail,omitempty"`
	UpgradeRequired bool   `json:"upgradeRequired,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// StreamError es un error que el servidor emitió DENTRO del stream SSE.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string { return e.Message }

// Client habla con el servicio de generación.
type Client struct {
	// BaseURL sin slash final, ej. "http://localhost:8080".
	BaseURL string
	// Token bearer; vacío omite el header (modo open del servidor).
	Token      string
	HTTPClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		// Sin Timeout global: cortaría streams largos. El ctx manda.
		HTTPClient: &http.Client{},
	}
}

// Stream ejecuta una generación y despacha cada evento a h. Bloquea
// hasta que el stream termine o ctx se cancele. El error devuelto es
// el mismo que recibió OnError (nil si terminó con OnDone).
func (c *Client) Stream(ctx context.Context, req GenerateRequest, h Handlers) error {
	body, err := json.Marshal(req)
	if err != nil {
		return c.fail(h, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return c.fail(h, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return c.fail(h, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.fail(h, decodeAPIError(resp))
	}

	return c.consume(ctx, resp.Body, h)
}

// consume lee el body línea a línea. El framing SSE separa eventos con
// una línea en blanco; un Read puede traer medio frame o varios, el
// bufio.Scanner reensambla por nosotros.
func (c *Client) consume(ctx context.Context, body io.Reader, h Handlers) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return c.fail(h, err)
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

		if payload == doneSentinel {
			if h.OnDone != nil {
				h.OnDone()
			}
			return nil
		}

		var ev struct {
			Text  string `json:"text"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			// frame corrupto: se ignora, igual que el consumidor web
			continue
		}
		if ev.Error != "" {
			return c.fail(h, &StreamError{Message: ev.Error})
		}
		if h.OnChunk != nil {
			h.OnChunk(ev.Text)
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return c.fail(h, ctx.Err())
		}
		return c.fail(h, err)
	}
	// el servidor cerró sin [DONE]: conexión cortada a mitad del stream
	return c.fail(h, io.ErrUnexpectedEOF)
}

func (c *Client) fail(h Handlers, err error) error {
	if h.OnError != nil {
		h.OnError(err)
	}
	return err
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var decoded APIError
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil && json.Unmarshal(data, &decoded) == nil && decoded.Code != "" {
		apiErr.Code = decoded.Code
		apiErr.Message = decoded.Message
		apiErr.Detail = decoded.Detail
		apiErr.UpgradeRequired = decoded.UpgradeRequired
		return apiErr
	}
	apiErr.Code = "unknown_error"
	apiErr.Message = http.StatusText(resp.StatusCode)
	return apiErr
}

// Tools lista el catálogo con el flag de acceso por herramienta.
func (c *Client) Tools(ctx context.Context) (*ToolsResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/tools", nil)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.Token)
	}

	client := c.HTTPClient
	if client.Timeout == 0 {
		client = &http.Client{Timeout: 15 * time.Second, Transport: c.HTTPClient.Transport}
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var out ToolsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ToolsResponse es la respuesta de GET /v1/tools.
type ToolsResponse struct {
	Tier       string `json:"tier"`
	Categories []struct {
		CategoryID string `json:"categoryId"`
		Tools      []struct {
			ToolID  string `json:"toolId"`
			Title   string `json:"title"`
			Allowed bool   `json:"allowed"`
		} `json:"tools"`
	} `json:"categories"`
}
