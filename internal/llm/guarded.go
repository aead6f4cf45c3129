package llm

import (
	"context"

	"codeberg.org/snonux/translore/internal/breaker"
	"codeberg.org/snonux/translore/internal/logger"
)

type guardedChat struct {
	inner ChatProvider
	b     *breaker.Breaker
}

// WithBreaker wraps p so that repeated failures open a circuit and later
// calls fail fast with breaker.ErrOpen instead of hitting the endpoint.
func WithBreaker(p ChatProvider, log *logger.Logger) ChatProvider {
	return &guardedChat{inner: p, b: breaker.New("llm-"+p.Name(), breaker.Settings{}, log)}
}

func (g *guardedChat) Name() string { return g.inner.Name() }

func (g *guardedChat) Complete(ctx context.Context, system, user string) (string, error) {
	v, err := g.b.Execute(func() (interface{}, error) {
		return g.inner.Complete(ctx, system, user)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

type guardedEmbedder struct {
	inner Embedder
	b     *breaker.Breaker
}

// EmbedderWithBreaker is WithBreaker for embedders.
func EmbedderWithBreaker(e Embedder, log *logger.Logger) Embedder {
	return &guardedEmbedder{inner: e, b: breaker.New("embed-"+e.Name(), breaker.Settings{}, log)}
}

func (g *guardedEmbedder) Name() string { return g.inner.Name() }

func (g *guardedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	v, err := g.b.Execute(func() (interface{}, error) {
		return g.inner.Embed(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	return v.([][]float32), nil
}
