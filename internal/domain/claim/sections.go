package claim

import "encoding/json"

// Section names as the claim viewer expects them.
const (
	SectionTransaction       = "transaction"
	SectionSubmitter         = "submitter"
	SectionReceiver          = "receiver"
	SectionBillingProvider   = "billing_Provider"
	SectionPayToProvider     = "Pay_To_provider"
	SectionSubscriber        = "subscriber"
	SectionPayer             = "payer"
	SectionClaim             = "claim"
	SectionDiagnosis         = "diagnosis"
	SectionRenderingProvider = "renderingProvider"
	SectionServiceFacility   = "serviceFacility"
	SectionServiceLines      = "service_Lines"
)

// Section is one named block of viewer output.
type Section struct {
	Name string      `json:"section" yaml:"section"`
	Data interface{} `json:"data" yaml:"data"`
}

// Result holds one section list per claim. It encodes as the bare section
// list when the document held a single claim and as a list of section lists
// otherwise.
type Result struct {
	Claims [][]Section
}

func (r Result) payload() interface{} {
	if len(r.Claims) == 1 {
		return r.Claims[0]
	}
	if r.Claims == nil {
		return [][]Section{}
	}
	return r.Claims
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.payload())
}

func (r Result) MarshalYAML() (interface{}, error) {
	return r.payload(), nil
}

// Sections packages the batch into viewer sections, one list per claim in
// document order. Claim-local payer and service facility overrides win over
// the document-level values; a claim without a service facility falls back
// to the billing provider.
func (b *Batch) Sections() Result {
	res := Result{Claims: make([][]Section, 0, len(b.Claims))}

	for _, c := range b.Claims {
		payer := &b.Payer
		if c.Payer != nil {
			payer = c.Payer
		}
		rendering := c.RenderingProvider
		if rendering == nil {
			rendering = &Party{}
		}
		facility := &b.BillingProvider
		if c.ServiceFacility != nil {
			facility = c.ServiceFacility
		}

		res.Claims = append(res.Claims, []Section{
			{Name: SectionTransaction, Data: &b.Transaction},
			{Name: SectionSubmitter, Data: &b.Submitter},
			{Name: SectionReceiver, Data: &b.Receiver},
			{Name: SectionBillingProvider, Data: &b.BillingProvider},
			{Name: SectionPayToProvider, Data: &b.PayToProvider},
			{Name: SectionSubscriber, Data: &b.Subscriber},
			{Name: SectionPayer, Data: payer},
			{Name: SectionClaim, Data: c.summary()},
			{Name: SectionDiagnosis, Data: &c.Diagnosis},
			{Name: SectionRenderingProvider, Data: rendering},
			{Name: SectionServiceFacility, Data: facility},
			{Name: SectionServiceLines, Data: c.ServiceLines},
		})
	}

	return res
}

// Find returns the data of the named section, or nil.
func Find(sections []Section, name string) interface{} {
	for _, s := range sections {
		if s.Name == name {
			return s.Data
		}
	}
	return nil
}
