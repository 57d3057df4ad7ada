package store

import (
	"context"
	"strings"

	"github.com/iwvelando/payment-plan/pkg/constants"
	"golang.org/x/sync/errgroup"
)

// Search returns up to limit plans whose client or project starts with term.
// Client matches come first; a plan matching both appears once.
func Search(ctx context.Context, s Store, term string, limit int) ([]Record, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Record{}, nil
	}
	if limit <= 0 {
		limit = constants.DefaultSearchResults
	}

	var byClient, byProject Page
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byClient, err = s.List(gctx, Query{ClientPrefix: term, Sort: SortClient, Direction: Asc, PageSize: limit})
		return err
	})
	g.Go(func() error {
		var err error
		byProject, err = s.List(gctx, Query{ProjectPrefix: term, Sort: SortProject, Direction: Asc, PageSize: limit})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, limit)
	results := make([]Record, 0, limit)
	for _, r := range append(byClient.Records, byProject.Records...) {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		results = append(results, r)
		if len(results) == limit {
			break
		}
	}
	return results, nil
}
