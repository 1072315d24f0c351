package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type GeminiRequest struct {
	Contents []Content `json:"contents"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// maxResponseBytes caps how much of a provider response is read.
const maxResponseBytes = 4 << 20

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

// NewGeminiClient returns nil when no API key is configured.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.APIKey == "" {
		return nil
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	return &GeminiClient{
		apiKey:   cfg.APIKey,
		endpoint: fmt.Sprintf("%s/models/%s:generateContent", base, cfg.Model),
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *GeminiClient) GenerateDiagnosticText(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(GeminiRequest{Contents: []Content{{Parts: []Part{{Text: prompt}}}}})
	if err != nil {
		return "", errors.Wrap(err, "failed to encode gemini request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "failed to build gemini request")
	}
	req.Header.Set("Content-Type", "application/json")
	// header rather than ?key= so transport errors never echo the key
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "gemini request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", errors.Wrap(err, "failed to read gemini response")
	}

	var parsed GeminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", errors.Errorf("gemini returned status %d with undecodable body", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", errors.Errorf("gemini error %d %s: %s", parsed.Error.Code, parsed.Error.Status, parsed.Error.Message)
		}
		return "", errors.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var text strings.Builder
	for _, candidate := range parsed.Candidates {
		for _, part := range candidate.Content.Parts {
			text.WriteString(part.Text)
		}
		if text.Len() > 0 {
			break
		}
	}
	if text.Len() == 0 {
		return "", errors.New("gemini returned no candidates")
	}
	return text.String(), nil
}
