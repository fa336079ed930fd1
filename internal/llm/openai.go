package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

// openAIClient implements the Client interface for the OpenAI API.
type openAIClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 150
	}

	return &openAIClient{
		apiKey:      cfg.APIKey,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// NormalizeMerchant asks the model for a canonical merchant name.
func (c *openAIClient) NormalizeMerchant(ctx context.Context, rawMerchant string) (NormalizationResponse, error) {
	content, err := c.complete(ctx, merchantNormalizationPrompt, "Normalize: "+rawMerchant)
	if err != nil {
		return NormalizationResponse{}, err
	}

	var jsonResp struct {
		NormalizedMerchant string `json:"normalized_merchant"`
	}
	if err := json.Unmarshal([]byte(cleanMarkdownWrapper(content)), &jsonResp); err != nil {
		return NormalizationResponse{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if strings.TrimSpace(jsonResp.NormalizedMerchant) == "" {
		return NormalizationResponse{}, fmt.Errorf("no normalized merchant in response")
	}

	return NormalizationResponse{NormalizedMerchant: jsonResp.NormalizedMerchant}, nil
}

// Classify asks the model for a category decision.
func (c *openAIClient) Classify(ctx context.Context, req ClassifyRequest) (ClassificationResponse, error) {
	content, err := c.complete(ctx, classificationPrompt(req.Categories), classifyUserContent(req))
	if err != nil {
		return ClassificationResponse{}, err
	}

	var jsonResp struct {
		CategoryName   string   `json:"category_name"`
		Tags           []string `json:"tags"`
		IsSubscription bool     `json:"is_subscription"`
	}
	if err := json.Unmarshal([]byte(cleanMarkdownWrapper(content)), &jsonResp); err != nil {
		return ClassificationResponse{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if jsonResp.CategoryName == "" {
		return ClassificationResponse{}, fmt.Errorf("no category found in response")
	}

	return ClassificationResponse{
		CategoryName:   jsonResp.CategoryName,
		IsSubscription: jsonResp.IsSubscription,
		Tags:           jsonResp.Tags,
	}, nil
}

// complete performs one chat-completion round trip and returns the raw
// message content.
func (c *openAIClient) complete(ctx context.Context, systemPrompt, userContent string) (string, error) {
	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userContent},
		},
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIEndpoint, strings.NewReader(string(jsonBody)))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return response.Choices[0].Message.Content, nil
}

// openAIResponse represents the OpenAI API response structure.
type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
	Created int64 `json:"created"`
}

// cleanMarkdownWrapper strips ```json fences the model sometimes wraps its
// output in despite instructions.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		if idx := strings.Index(content, "\n"); idx != -1 {
			content = content[idx+1:]
		}
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	return strings.TrimSpace(content)
}
