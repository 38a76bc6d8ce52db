package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// DataService owns dataset loading and the derived artifacts (index,
// profile). Sources are tried in order: cache, local file, remote
// export. Remote loads get a shorter TTL so a fresher export is picked
// up without a restart.
type DataService struct {
	cfg    Config
	cache  *Cache
	export *ExportClient

	mu sync.Mutex
}

func NewDataService(cfg Config, cache *Cache, export *ExportClient) *DataService {
	return &DataService{cfg: cfg, cache: cache, export: export}
}

// derivedEntry ties a derived artifact to the dataset it was built
// from. A dataset swap invalidates it by identity, not by time.
type derivedEntry[T any] struct {
	ds    *Dataset
	value T
}

func (s *DataService) Dataset(ctx context.Context) (*Dataset, error) {
	if v, ok := s.cache.Get(CacheKeyDataset); ok {
		return v.(*Dataset), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another caller may have loaded while we waited.
	if v, ok := s.cache.Get(CacheKeyDataset); ok {
		return v.(*Dataset), nil
	}
	return s.load(ctx)
}

func (s *DataService) load(ctx context.Context) (*Dataset, error) {
	opts := IngestOptions{Marker: s.cfg.IngestMarker, Encoding: s.cfg.IngestEncoding}

	if s.cfg.DataFile != "" {
		ds, err := s.loadLocal(opts)
		if err == nil {
			s.cache.Set(CacheKeyDataset, ds, s.cfg.DatasetTTL)
			return ds, nil
		}
		if s.export == nil {
			return nil, err
		}
		log.Printf("dataset local load failed, falling back to export: %v", err)
	}

	if s.export == nil {
		return nil, fmt.Errorf("no data source configured: set data_file or export credentials")
	}

	raw, err := s.export.Download(ctx)
	if err != nil {
		return nil, fmt.Errorf("downloading export: %w", err)
	}
	ds, err := IngestCSV(raw, opts)
	if err != nil {
		return nil, fmt.Errorf("ingesting export: %w", err)
	}
	s.cache.Set(CacheKeyDataset, ds, s.cfg.RemoteDatasetTTL)
	log.Printf("dataset loaded source=export rows=%d", len(ds.Records))
	return ds, nil
}

func (s *DataService) loadLocal(opts IngestOptions) (*Dataset, error) {
	raw, err := os.ReadFile(s.cfg.DataFile)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.cfg.DataFile, err)
	}

	var ds *Dataset
	if strings.HasSuffix(strings.ToLower(s.cfg.DataFile), ".xlsx") {
		ds, err = IngestXLSX(raw, opts)
	} else {
		ds, err = IngestCSV(raw, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("ingesting %s: %w", s.cfg.DataFile, err)
	}
	log.Printf("dataset loaded source=file path=%s rows=%d", s.cfg.DataFile, len(ds.Records))
	return ds, nil
}

// Index returns the date-to-centers index for this dataset, rebuilding
// when the cached one belongs to a previous dataset version.
func (s *DataService) Index(ctx context.Context, ds *Dataset) Index {
	if v, ok := s.cache.Get(CacheKeyIndex); ok {
		if entry, ok := v.(derivedEntry[Index]); ok && entry.ds == ds {
			return entry.value
		}
	}
	idx := BuildIndex(ds)
	s.cache.Set(CacheKeyIndex, derivedEntry[Index]{ds: ds, value: idx}, s.cfg.DatasetTTL)
	return idx
}

func (s *DataService) Profile(ctx context.Context, ds *Dataset) DatasetProfile {
	if v, ok := s.cache.Get(CacheKeyProfile); ok {
		if entry, ok := v.(derivedEntry[DatasetProfile]); ok && entry.ds == ds {
			return entry.value
		}
	}
	profile := BuildProfile(ds, nil)
	s.cache.Set(CacheKeyProfile, derivedEntry[DatasetProfile]{ds: ds, value: profile}, s.cfg.DatasetTTL)
	return profile
}

// Reload drops the dataset and every derived artifact, then loads
// fresh. Derived entries must never outlive the dataset they came from.
func (s *DataService) Reload(ctx context.Context) (*Dataset, error) {
	s.cache.Delete(CacheKeyDataset)
	s.cache.Delete(CacheKeyIndex)
	s.cache.Delete(CacheKeyProfile)
	started := time.Now()
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("dataset reloaded rows=%d elapsed=%s", len(ds.Records), time.Since(started).Round(time.Millisecond))
	return ds, nil
}
