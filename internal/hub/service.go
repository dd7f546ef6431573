package hub

import (
	"fmt"
	"strings"

	"previewhub/internal/model"
	"previewhub/internal/slug"
)

// HubService is the orchestration layer behind every CLI command.
// Every mutation follows load -> mutate in memory -> save -> rebuild.
//
// There is no locking around the registry document: two mutating commands
// running at the same time can overwrite each other's changes.
type HubService struct {
	store   RegistryStore
	builder Builder
	history History
	clock   Clock
	idgen   IDGenerator
	logger  Logger
}

// NewHubService creates a HubService with the provided dependencies.
// history may be nil, in which case GetHistory reports an error.
func NewHubService(store RegistryStore, builder Builder, history History, clock Clock, idgen IDGenerator, logger Logger) *HubService {
	if logger == nil {
		logger = NopLogger{}
	}
	return &HubService{
		store:   store,
		builder: builder,
		history: history,
		clock:   clock,
		idgen:   idgen,
		logger:  logger,
	}
}

// Rebuild regenerates the whole output tree from the persisted registry.
func (s *HubService) Rebuild(opts BuildOptions) (*BuildReport, error) {
	reg, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading registry: %w", err)
	}
	return s.rebuild(reg, opts)
}

func (s *HubService) rebuild(reg *model.Registry, opts BuildOptions) (*BuildReport, error) {
	report, err := s.builder.Rebuild(reg, opts)
	if err != nil {
		return nil, fmt.Errorf("rebuilding site: %w", err)
	}
	s.logger.Info("site rebuilt",
		"clients", report.Clients,
		"scaffolded", report.ItemsScaffolded,
		"kept", report.ItemsKept,
		"redirects", report.Redirects,
		"force", opts.Force,
	)
	return report, nil
}

// ListPreviews returns the registry's previews, most recently updated first.
func (s *HubService) ListPreviews() ([]*model.Preview, error) {
	reg, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading registry: %w", err)
	}
	return model.SortPreviews(reg.Previews), nil
}

// GetHistory returns the most recent operations, newest first.
func (s *HubService) GetHistory(limit int) ([]*model.Operation, error) {
	if s.history == nil {
		return nil, fmt.Errorf("operation history is not configured")
	}
	ops, err := s.history.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// mutate loads the registry, applies fn, persists the result and rebuilds.
// If fn fails nothing is written.
func (s *HubService) mutate(fn func(reg *model.Registry) error) error {
	reg, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("loading registry: %w", err)
	}

	if err := fn(reg); err != nil {
		return err
	}

	if err := s.store.Save(reg); err != nil {
		return fmt.Errorf("saving registry: %w", err)
	}

	if _, err := s.rebuild(reg, BuildOptions{}); err != nil {
		return err
	}
	return nil
}

// findClient resolves raw client input to an existing preview.
func findClient(reg *model.Registry, rawClient string) (*model.Preview, error) {
	clientSlug := slug.Slugify(rawClient)
	if clientSlug == "" {
		return nil, usageErrorf("missing client slug")
	}
	p := reg.FindByClientSlug(clientSlug)
	if p == nil {
		return nil, notFoundf("client not found: %s", clientSlug)
	}
	return p, nil
}

// parseStatus resolves raw status input, using fallback when raw is empty.
func parseStatus(raw string, fallback model.Status) (model.Status, error) {
	if raw == "" {
		return fallback, nil
	}
	status, ok := model.ParseStatus(raw)
	if !ok {
		return "", usageErrorf("invalid status %q, expected one of: %s", raw, strings.Join(model.StatusNames(), ", "))
	}
	return status, nil
}

func (s *HubService) today() string {
	return model.FormatDate(s.clock.Now())
}
