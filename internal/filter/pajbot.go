package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const pajbotTestPath = "/api/v1/banphrases/test"

// PajbotChecker talks to a pajbot instance's banphrase test API.
type PajbotChecker struct {
	client *http.Client
}

// NewPajbotChecker returns a checker whose requests give up after timeout.
func NewPajbotChecker(timeout time.Duration) *PajbotChecker {
	return &PajbotChecker{client: &http.Client{Timeout: timeout}}
}

type pajbotRequest struct {
	Message string `json:"message"`
}

type pajbotResponse struct {
	Banned        bool `json:"banned"`
	BanphraseData struct {
		Name   string `json:"name"`
		Phrase string `json:"phrase"`
	} `json:"banphrase_data"`
}

// Check posts text to endpoint. Endpoints without a scheme are treated as
// https hosts.
func (c *PajbotChecker) Check(ctx context.Context, endpoint, text string) (bool, string, error) {
	body, err := json.Marshal(pajbotRequest{Message: text})
	if err != nil {
		return false, "", fmt.Errorf("encode pajbot request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pajbotURL(endpoint), bytes.NewReader(body))
	if err != nil {
		return false, "", fmt.Errorf("build pajbot request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, "", fmt.Errorf("pajbot request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return false, "", fmt.Errorf("pajbot returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out pajbotResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return false, "", fmt.Errorf("decode pajbot response: %w", err)
	}
	if !out.Banned {
		return false, "", nil
	}
	reason := out.BanphraseData.Name
	if reason == "" {
		reason = out.BanphraseData.Phrase
	}
	if reason == "" {
		reason = "banphrase"
	}
	return true, reason, nil
}

func pajbotURL(endpoint string) string {
	base := strings.TrimRight(endpoint, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return base + pajbotTestPath
}
