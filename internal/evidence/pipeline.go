// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"context"
	"fmt"
)

type Pipeline struct {
	loaders []FeedLoader
}

// NewPipeline creates a new Pipeline with the provided loaders. Loaders are
// tried in registration order.
func NewPipeline(loaders ...FeedLoader) *Pipeline {
	return &Pipeline{loaders: loaders}
}

// LoadResult is the output of a successful pipeline run.
type LoadResult struct {
	Feed          Feed
	LoaderUsed    string
	CategoryCount int
}

func (p *Pipeline) Open(ctx context.Context, source EvidenceSource) (Feed, error) {
	result, err := p.OpenWithMeta(ctx, source)
	if err != nil {
		return nil, err
	}
	return result.Feed, nil
}

func (p *Pipeline) OpenWithMeta(ctx context.Context, source EvidenceSource) (LoadResult, error) {
	loader, err := p.selectLoader(source)
	if err != nil {
		return LoadResult{}, err
	}

	feed, err := loader.Load(ctx, source)
	if err != nil {
		return LoadResult{}, fmt.Errorf("loader %q failed: %w", loader.Name(), err)
	}

	categories, err := feed.Categories(ctx)
	if err != nil {
		return LoadResult{}, fmt.Errorf("loader %q failed: %w", loader.Name(), err)
	}
	return LoadResult{
		Feed:          feed,
		LoaderUsed:    loader.Name(),
		CategoryCount: len(categories),
	}, nil
}

// selectLoader returns the first registered loader that can handle the given source.
func (p *Pipeline) selectLoader(source EvidenceSource) (FeedLoader, error) {
	for _, loader := range p.loaders {
		if loader.CanHandle(source) {
			return loader, nil
		}
	}
	return nil, fmt.Errorf("unsupported evidence source: no loader found for source %q (format hint: %q)", source.ID, source.Format)
}

// RegisteredLoaders returns the names of all currently registered loaders.
func (p *Pipeline) RegisteredLoaders() []string {
	names := make([]string, len(p.loaders))
	for i, loader := range p.loaders {
		names[i] = loader.Name()
	}
	return names
}
