// fhir package contains structs representing FHIR data.
// These data models are a lighter weight definition containing the fields
// medsync needs; everything else on a resource is carried opaquely.
package fhir

// Well-known resource types used by medsync collaborators.
const (
	TypePatient           = "Patient"
	TypeEncounter         = "Encounter"
	TypeOrganization      = "Organization"
	TypeObservation       = "Observation"
	TypeCondition         = "Condition"
	TypeMedicationRequest = "MedicationRequest"
	TypeDiagnosticReport  = "DiagnosticReport"
	TypeProcedure         = "Procedure"
	TypeBundle            = "Bundle"
	TypeOperationOutcome  = "OperationOutcome"
)

// Bundle type discriminators.
const (
	BundleTypeSearchset           = "searchset"
	BundleTypeCollection          = "collection"
	BundleTypeBatch               = "batch"
	BundleTypeBatchResponse       = "batch-response"
	BundleTypeTransaction         = "transaction"
	BundleTypeTransactionResponse = "transaction-response"
)

type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type,omitempty"`
	Total        uint          `json:"total,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource *Resource       `json:"resource,omitempty"`
	Request  *BundleRequest  `json:"request,omitempty"`
	Response *BundleResponse `json:"response,omitempty"`
}

type BundleRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

type BundleResponse struct {
	Status   string `json:"status,omitempty"`
	Location string `json:"location,omitempty"`
}

// Clone returns a copy of the bundle whose Type may be changed without
// affecting the caller's value. Entries are shared.
func (b *Bundle) Clone() *Bundle {
	if b == nil {
		return nil
	}
	dup := *b
	return &dup
}

// Reference is a FHIR reference to another resource, e.g.
// {"reference": "Organization/org-123"}.
type Reference struct {
	Reference string `json:"reference"`
	Display   string `json:"display,omitempty"`
}

// OrganizationReference builds the relative reference for an organization id.
func OrganizationReference(id string) Reference {
	return Reference{Reference: TypeOrganization + "/" + id}
}
