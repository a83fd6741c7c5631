package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/navid-fn/momentum/internal/models"
	"github.com/navid-fn/momentum/internal/storage"
	"github.com/navid-fn/momentum/server/internal/model"
	"github.com/navid-fn/momentum/server/internal/repository"
)

// ErrSeriesNotFound is returned for an mcv_id missing from the catalog.
var ErrSeriesNotFound = errors.New("series not found")

type CatalogService struct {
	repo repository.CatalogRepository
}

func NewCatalogService(repo repository.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// GetSources lists every configured source; sources without a catalog yet
// are reported as unavailable.
func (cs *CatalogService) GetSources(ctx context.Context) ([]model.SourceInfo, error) {
	names := cs.repo.Sources()
	out := make([]model.SourceInfo, 0, len(names))
	for _, name := range names {
		catalog, err := cs.repo.GetCatalog(ctx, name)
		if errors.Is(err, storage.ErrCatalogNotFound) {
			out = append(out, model.SourceInfo{Name: name})
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, model.SourceInfo{
			Name:         name,
			Available:    true,
			GeneratedAt:  catalog.GeneratedAt,
			CutoffDate:   catalog.CutoffDate,
			TotalTickers: catalog.TotalTickers,
			TotalRecords: catalog.TotalRecords,
		})
	}
	return out, nil
}

func (cs *CatalogService) GetTickers(ctx context.Context, source string) (*models.TickerList, error) {
	return cs.repo.GetTickers(ctx, source)
}

// GetSeries returns one series. limit > 0 keeps only the newest limit candles.
func (cs *CatalogService) GetSeries(ctx context.Context, source, mcvID string, limit int) (*models.Series, error) {
	catalog, err := cs.repo.GetCatalog(ctx, source)
	if err != nil {
		return nil, err
	}

	i, ok := catalog.Index()[mcvID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSeriesNotFound, mcvID)
	}

	// Copy so the cached catalog is never trimmed.
	s := catalog.Data[i]
	h := s.History
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	s.History = append([]models.Candle(nil), h...)
	return &s, nil
}

func (cs *CatalogService) GetLatest(ctx context.Context, source string) ([]model.LatestCandle, error) {
	catalog, err := cs.repo.GetCatalog(ctx, source)
	if err != nil {
		return nil, err
	}

	out := make([]model.LatestCandle, 0, len(catalog.Data))
	for _, s := range catalog.Data {
		last, ok := s.Latest()
		if !ok {
			continue
		}
		out = append(out, model.LatestCandle{MCVID: s.MCVID, Ticker: s.Ticker, Name: s.Name, Candle: last})
	}
	return out, nil
}
