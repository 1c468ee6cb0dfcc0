// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"
)

var (
	errEmptyVector       = errors.New("provider returned an empty vector")
	errNonFiniteVector   = errors.New("provider returned a non-finite component")
	errDimensionMismatch = errors.New("vector dimension mismatch")
)

// embed runs the embed stage. The provider call is single shot; retries belong
// to the caller.
func (e *Engine) embed(ctx context.Context, text string) (vector []float32, err error) {
	ctx, span := e.startStage(ctx, StageEmbed, attribute.Int("tradmap.text_length", len(text)))
	defer func() { endSpan(span, err) }()

	if err := cancelled(ctx, StageEmbed); err != nil {
		return nil, err
	}

	callCtx := ctx
	if e.embedTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.embedTimeout)
		defer cancel()
	}

	vector, err = e.embedder.EmbedText(callCtx, text)
	if err != nil {
		e.logger.Error("error generating embedding", "err", err)
		return nil, stageError(ctx, StageEmbed, ErrEmbeddingProvider, err)
	}
	if err := checkVector(vector, e.dimensions); err != nil {
		e.logger.Error("unusable embedding", "err", err)
		return nil, stageError(ctx, StageEmbed, ErrEmbeddingProvider, err)
	}
	span.SetAttributes(attribute.Int("tradmap.dimensions", len(vector)))
	return vector, nil
}

func checkVector(vector []float32, dimensions int) error {
	if len(vector) == 0 {
		return errEmptyVector
	}
	if dimensions > 0 && len(vector) != dimensions {
		return fmt.Errorf("%w: got %d, want %d", errDimensionMismatch, len(vector), dimensions)
	}
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w at index %d", errNonFiniteVector, i)
		}
	}
	return nil
}
