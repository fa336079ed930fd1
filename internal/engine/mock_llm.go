package engine

import (
	"context"
	"sync"

	"github.com/dhalloway/pennywise/internal/llm"
)

// MockLLMClient is a test implementation of the llm.Client interface with
// scriptable responses and call recording.
type MockLLMClient struct {
	NormalizeFn    func(rawMerchant string) (llm.NormalizationResponse, error)
	ClassifyFn     func(req llm.ClassifyRequest) (llm.ClassificationResponse, error)
	normalizeCalls []string
	classifyCalls  []llm.ClassifyRequest
	mu             sync.Mutex
}

// NewMockLLMClient creates a mock client whose calls fail until scripted.
func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{}
}

// NormalizeMerchant records the call and delegates to NormalizeFn.
func (m *MockLLMClient) NormalizeMerchant(_ context.Context, rawMerchant string) (llm.NormalizationResponse, error) {
	m.mu.Lock()
	m.normalizeCalls = append(m.normalizeCalls, rawMerchant)
	fn := m.NormalizeFn
	m.mu.Unlock()

	if fn == nil {
		return llm.NormalizationResponse{}, errMockNotScripted
	}
	return fn(rawMerchant)
}

// Classify records the call and delegates to ClassifyFn.
func (m *MockLLMClient) Classify(_ context.Context, req llm.ClassifyRequest) (llm.ClassificationResponse, error) {
	m.mu.Lock()
	m.classifyCalls = append(m.classifyCalls, req)
	fn := m.ClassifyFn
	m.mu.Unlock()

	if fn == nil {
		return llm.ClassificationResponse{}, errMockNotScripted
	}
	return fn(req)
}

// NormalizeCalls returns the raw merchants passed to NormalizeMerchant.
func (m *MockLLMClient) NormalizeCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.normalizeCalls...)
}

// ClassifyCalls returns the recorded classification requests.
func (m *MockLLMClient) ClassifyCalls() []llm.ClassifyRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.ClassifyRequest(nil), m.classifyCalls...)
}

type mockError string

func (e mockError) Error() string { return string(e) }

const errMockNotScripted = mockError("mock llm call not scripted")
