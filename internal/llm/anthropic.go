package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	anthropicVersion  = "2023-06-01"
	messagesPath      = "/v1/messages"
	defaultMaxTokens  = 1024
	maxErrorBodyBytes = 4096
)

// Client implementa Streamer contra la Messages API de Anthropic.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Config del cliente upstream.
type Config struct {
	APIKey  string
	BaseURL string
	// Timeout acota el request completo, incluida la lectura del stream.
	// Cierra el hueco de "request sin timeout": peor caso acotado.
	Timeout time.Duration
}

func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.anthropic.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// payload del request de mensajes (solo los campos que usamos).
type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
	Stream    bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Stream abre la completion. La cancelación del ctx aborta el request
// upstream (el transporte corta la conexión).
func (c *Client) Stream(ctx context.Context, req Request) (Stream, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body, err := json.Marshal(messagesRequest{
		Model:     req.Model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  []chatMessage{{Role: "user", Content: req.User}},
		Stream:    true,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		resp.Body.Close()
		return nil, fmt.Errorf("llm: upstream status %d: %s", resp.StatusCode, string(b))
	}

	return &anthropicStream{
		body:    resp.Body,
		scanner: bufio.NewScanner(resp.Body),
	}, nil
}

// anthropicStream parsea el framing SSE de la Messages API.
// Eventos relevantes: content_block_delta (text_delta), message_stop, error.
// ping y los demás metadata events se ignoran.
type anthropicStream struct {
	body      io.ReadCloser
	scanner   *bufio.Scanner
	closeOnce sync.Once
	closeErr  error
}

// sseEvent: payload de una línea "data:" ya decodificada.
type sseEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *anthropicStream) Recv() (string, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			// líneas "event:" y separadores vacíos
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}

		var ev sseEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			// frame no parseable: lo saltamos en vez de cortar el stream
			continue
		}

		switch ev.Type {
		case "content_block_delta":
			if ev.Delta.Type == "text_delta" && ev.Delta.Text != "" {
				return ev.Delta.Text, nil
			}
		case "message_stop":
			return "", io.EOF
		case "error":
			return "", fmt.Errorf("llm: upstream error: %s", ev.Error.Message)
		}
		// message_start, content_block_start/stop, message_delta, ping: ignorar
	}

	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	// upstream cerró sin message_stop: fin normal igual
	return "", io.EOF
}

func (s *anthropicStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
