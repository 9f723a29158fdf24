package filter

import (
	"context"

	"github.com/tkingovr/noisegate/internal/noise"
)

// ClassifyFilter assigns a noise category to the request path.
type ClassifyFilter struct {
	classifier *noise.Classifier
}

func NewClassifyFilter(c *noise.Classifier) *ClassifyFilter {
	return &ClassifyFilter{classifier: c}
}

func (f *ClassifyFilter) Name() string { return "classify" }

func (f *ClassifyFilter) Process(_ context.Context, fc *FilterContext) error {
	if fc.Halted {
		return nil
	}
	fc.Category = f.classifier.Classify(fc.Path)
	return nil
}
