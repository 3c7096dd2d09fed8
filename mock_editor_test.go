package mifoto

import (
	"context"
)

// MockImageEditor is a mock implementation of ImageEditor.
type MockImageEditor struct {
	EditFunc   func(ctx context.Context, image InputImage, instruction string, cred Credential, config *EditConfig) (*EditResult, error)
	ModelsFunc func() []ModelInfo
	CloseFunc  func() error
}

func (m *MockImageEditor) Edit(ctx context.Context, image InputImage, instruction string, cred Credential, config *EditConfig) (*EditResult, error) {
	if m.EditFunc != nil {
		return m.EditFunc(ctx, image, instruction, cred, config)
	}
	return &EditResult{}, nil
}

func (m *MockImageEditor) Models() []ModelInfo {
	if m.ModelsFunc != nil {
		return m.ModelsFunc()
	}
	return []ModelInfo{}
}

func (m *MockImageEditor) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func testModels() []ModelInfo {
	return []ModelInfo{
		{Name: "test-model", Provider: "test-provider", APIModelName: "test-model-api"},
		{Name: "other-model", Provider: "test-provider", APIModelName: "other-model-api"},
	}
}

var testImage = InputImage{Data: []byte("\x89PNG fake"), MIMEType: "image/png"}
