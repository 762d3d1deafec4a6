package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/medsync-health/medsync-app/medsync/constants"
	"github.com/medsync-health/medsync-app/medsync/models/fhir"
)

// FHIRClient is a resource-oriented client for a FHIR server. It is safe
// for concurrent use from multiple goroutines; each call works off the
// config snapshot captured when the call started.
type FHIRClient struct {
	mu   sync.RWMutex
	cfg  Config
	exec *executor
}

func New(cfg Config) *FHIRClient {
	c := cfg.withDefaults()
	c.Headers = copyHeaders(c.Headers)
	return &FHIRClient{cfg: c, exec: newExecutor()}
}

// NewFromEnv builds a client from conf-managed settings.
func NewFromEnv() *FHIRClient {
	return New(ConfigFromEnv())
}

// Config returns the current snapshot.
func (c *FHIRClient) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg := c.cfg
	cfg.Headers = copyHeaders(cfg.Headers)
	return cfg
}

// UpdateConfig shallow-merges the partial update into a new snapshot.
// Calls issued afterward see the new values; in-flight calls are
// unaffected.
func (c *FHIRClient) UpdateConfig(u ConfigUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = c.cfg.merge(u)
}

func (c *FHIRClient) snapshot() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// Search issues a GET over the resource type with the given filters. When
// an organization is configured, Patient searches are scoped to it unless
// the caller supplied their own organization filter.
func (c *FHIRClient) Search(ctx context.Context, resourceType string, params *SearchParams) (*fhir.Bundle, error) {
	cfg := c.snapshot()
	if resourceType == fhir.TypePatient && cfg.OrganizationID != "" && !params.Has("organization") {
		params = params.Clone().Add("organization", cfg.OrganizationID)
	}
	return c.doBundle(ctx, &cfg, http.MethodGet, resourceType, params.Encode(), nil)
}

// Get reads a single resource by id.
func (c *FHIRClient) Get(ctx context.Context, resourceType, id string) (*fhir.Resource, error) {
	cfg := c.snapshot()
	return c.doResource(ctx, &cfg, http.MethodGet, resourceType+"/"+id, nil)
}

// Create POSTs a new resource. Patient payloads are tagged with the
// configured managing organization; the caller's value is never mutated.
func (c *FHIRClient) Create(ctx context.Context, resourceType string, payload *fhir.Resource) (*fhir.Resource, error) {
	cfg := c.snapshot()
	if resourceType == fhir.TypePatient && cfg.OrganizationID != "" {
		payload = payload.Clone()
		payload.Set("managingOrganization", fhir.OrganizationReference(cfg.OrganizationID))
	}
	return c.doResource(ctx, &cfg, http.MethodPost, resourceType, payload)
}

// Update PUTs the payload verbatim.
func (c *FHIRClient) Update(ctx context.Context, resourceType, id string, payload *fhir.Resource) (*fhir.Resource, error) {
	cfg := c.snapshot()
	return c.doResource(ctx, &cfg, http.MethodPut, resourceType+"/"+id, payload)
}

// Delete removes a resource instance. No body is expected back.
func (c *FHIRClient) Delete(ctx context.Context, resourceType, id string) error {
	cfg := c.snapshot()
	_, err := c.exec.do(ctx, &cfg, http.MethodDelete, resourceType+"/"+id, "", nil)
	return err
}

// Batch POSTs the bundle to the server root exactly as given.
func (c *FHIRClient) Batch(ctx context.Context, bundle *fhir.Bundle) (*fhir.Bundle, error) {
	cfg := c.snapshot()
	return c.doBundle(ctx, &cfg, http.MethodPost, "", "", bundle)
}

// Transaction POSTs the bundle to the server root with its type forced to
// "transaction", whatever the caller supplied.
func (c *FHIRClient) Transaction(ctx context.Context, bundle *fhir.Bundle) (*fhir.Bundle, error) {
	cfg := c.snapshot()
	bundle = bundle.Clone()
	bundle.Type = fhir.BundleTypeTransaction
	return c.doBundle(ctx, &cfg, http.MethodPost, "", "", bundle)
}

// GetCapabilityStatement reads the server's capability resource,
// propagating failures normally.
func (c *FHIRClient) GetCapabilityStatement(ctx context.Context) (*fhir.Resource, error) {
	cfg := c.snapshot()
	return c.doResource(ctx, &cfg, http.MethodGet, constants.MetadataPath, nil)
}

// CheckConnection probes the capability endpoint. It reports reachability
// and never returns an error.
func (c *FHIRClient) CheckConnection(ctx context.Context) bool {
	_, err := c.GetCapabilityStatement(ctx)
	return err == nil
}

func (c *FHIRClient) doResource(ctx context.Context, cfg *Config, method, path string, body interface{}) (*fhir.Resource, error) {
	data, err := c.exec.do(ctx, cfg, method, path, "", body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var res fhir.Resource
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *FHIRClient) doBundle(ctx context.Context, cfg *Config, method, path, query string, body interface{}) (*fhir.Bundle, error) {
	data, err := c.exec.do(ctx, cfg, method, path, query, body)
	if err != nil {
		return nil, err
	}
	var b fhir.Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Convenience wrappers for the resource types medsync collaborators touch
// most.

func (c *FHIRClient) SearchPatients(ctx context.Context, params *SearchParams) (*fhir.Bundle, error) {
	return c.Search(ctx, fhir.TypePatient, params)
}

func (c *FHIRClient) GetPatient(ctx context.Context, id string) (*fhir.Resource, error) {
	return c.Get(ctx, fhir.TypePatient, id)
}

func (c *FHIRClient) CreatePatient(ctx context.Context, payload *fhir.Resource) (*fhir.Resource, error) {
	return c.Create(ctx, fhir.TypePatient, payload)
}

func (c *FHIRClient) UpdatePatient(ctx context.Context, id string, payload *fhir.Resource) (*fhir.Resource, error) {
	return c.Update(ctx, fhir.TypePatient, id, payload)
}

func (c *FHIRClient) SearchEncounters(ctx context.Context, params *SearchParams) (*fhir.Bundle, error) {
	return c.Search(ctx, fhir.TypeEncounter, params)
}

func (c *FHIRClient) GetEncounter(ctx context.Context, id string) (*fhir.Resource, error) {
	return c.Get(ctx, fhir.TypeEncounter, id)
}

func (c *FHIRClient) CreateEncounter(ctx context.Context, payload *fhir.Resource) (*fhir.Resource, error) {
	return c.Create(ctx, fhir.TypeEncounter, payload)
}

// EncounterData groups the clinical resources recorded against a single
// encounter.
type EncounterData struct {
	Observations       *fhir.Bundle
	Conditions         *fhir.Bundle
	MedicationRequests *fhir.Bundle
	DiagnosticReports  *fhir.Bundle
	Procedures         *fhir.Bundle
}

// GetEncounterData fans out five searches scoped to the encounter and
// joins them. The first failure cancels the rest and fails the whole
// call; there is no partial result.
func (c *FHIRClient) GetEncounterData(ctx context.Context, encounterID string) (*EncounterData, error) {
	var data EncounterData
	g, gctx := errgroup.WithContext(ctx)

	fetch := func(resourceType string, dst **fhir.Bundle) func() error {
		return func() error {
			b, err := c.Search(gctx, resourceType, NewSearchParams().Add("encounter", encounterID))
			if err != nil {
				return err
			}
			*dst = b
			return nil
		}
	}

	g.Go(fetch(fhir.TypeObservation, &data.Observations))
	g.Go(fetch(fhir.TypeCondition, &data.Conditions))
	g.Go(fetch(fhir.TypeMedicationRequest, &data.MedicationRequests))
	g.Go(fetch(fhir.TypeDiagnosticReport, &data.DiagnosticReports))
	g.Go(fetch(fhir.TypeProcedure, &data.Procedures))

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &data, nil
}
