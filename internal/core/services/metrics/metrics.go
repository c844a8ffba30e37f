package metrics

import (
	"context"
	e "setpass/internal/core/domain/errors"
	"setpass/internal/core/domain/metrics"
	"setpass/internal/core/services"
)

// Classifier turns a service error into a bounded outcome label.
type Classifier func(err error) metrics.Outcome

type serviceWithOutcomeRecording[T any, S any] struct {
	operation string
	recorder  metrics.Recorder
	classify  Classifier
	inner     services.Service[T, S]
}

func WithOutcomeRecording[T any, S any](
	operation string,
	recorder metrics.Recorder,
	classify Classifier,
	inner services.Service[T, S],
) services.Service[T, S] {
	if recorder == nil {
		panic(e.NewNilArgumentError("recorder"))
	}
	if classify == nil {
		panic(e.NewNilArgumentError("classify"))
	}
	if inner == nil {
		panic(e.NewNilArgumentError("inner"))
	}
	return &serviceWithOutcomeRecording[T, S]{
		operation: operation,
		recorder:  recorder,
		classify:  classify,
		inner:     inner,
	}
}

func (s *serviceWithOutcomeRecording[T, S]) Run(ctx context.Context, input T) (result S, err error) {
	result, err = s.inner.Run(ctx, input)
	if err == nil {
		s.recorder.Observe(s.operation, metrics.Success)
	} else {
		s.recorder.Observe(s.operation, s.classify(err))
	}
	return result, err
}
