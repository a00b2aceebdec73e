package ai

import "context"

// ClassifyInput is the report text sent to the model.
type ClassifyInput struct {
	Content     string
	ServiceName string
	Categories  []string
}

// Classification is the model's pick among the allowed categories.
type Classification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Model      string  `json:"model"`
}

// Classifier assigns a report category.
type Classifier interface {
	Classify(ctx context.Context, input ClassifyInput) (Classification, error)
}
