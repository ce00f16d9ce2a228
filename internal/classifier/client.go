package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"scamcheck/internal/models"

	"go.uber.org/zap"
)

// Client calls the text-completion endpoint that performs the actual
// classification. One submission means one POST: no retries, no per-call
// deadline beyond the transport default.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds configuration for the classifier client.
type Config struct {
	Endpoint string
	APIKey   string
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// NewClient creates a classifier client for the given completion endpoint.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("classifier endpoint is required")
	}

	client := &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{},
		logger:     logger,
	}

	logger.Info("Classifier client initialized", zap.String("endpoint", cfg.Endpoint))

	return client, nil
}

// Classify sends the message through the completion endpoint and returns a
// Classification. It never returns an error: transport failures, non-2xx
// statuses and malformed bodies all collapse into an ERROR-level verdict, so
// the turn sequence stays unconditional for the caller.
func (c *Client) Classify(ctx context.Context, messageText string) models.Classification {
	prompt := BuildPrompt(messageText)

	reqBody := generateRequest{
		Contents: []generateContent{{Parts: []generatePart{{Text: prompt}}}},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return c.errorVerdict(fmt.Sprintf("Error during analysis: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return c.errorVerdict(fmt.Sprintf("Error during analysis: %v", err))
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Classification request failed", zap.Error(err))
		return c.errorVerdict(fmt.Sprintf("Error during analysis: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("Failed to read classification response", zap.Error(err))
		return c.errorVerdict(fmt.Sprintf("Error during analysis: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Classification endpoint returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return c.errorVerdict(fmt.Sprintf("Error during analysis: endpoint returned status %d", resp.StatusCode))
	}

	var apiResp generateResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		c.logger.Error("Failed to decode classification response",
			zap.Error(err),
			zap.String("body", string(body)))
		return c.errorVerdict("Error during analysis: malformed response from model")
	}

	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		c.logger.Error("Classification response contained no candidates")
		return c.errorVerdict("Error during analysis: no completion candidates in response")
	}

	verdict := ParseVerdict(apiResp.Candidates[0].Content.Parts[0].Text)

	c.logger.Debug("Message classified",
		zap.String("level", string(verdict.Level)),
		zap.Int("confidence", verdict.ConfidencePercent))

	return verdict
}

func (c *Client) errorVerdict(explanation string) models.Classification {
	return models.Classification{
		Level:             models.LevelError,
		ConfidencePercent: 0,
		IsScam:            false,
		Explanation:       explanation,
	}
}

// Close releases idle connections held by the underlying client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
