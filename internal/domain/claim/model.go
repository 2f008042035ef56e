package claim

import "encoding/json"

// Transaction holds document-level metadata from ST and BHT. It is shared by
// every claim in the document. Keys appear in the output once their segment
// has been seen, even when the element was empty.
type Transaction struct {
	Type          string
	ControlNumber string
	Version       string
	Purpose       string
	ReferenceID   string
	Date          string
	Time          string

	hasHeader    bool // ST
	hasBeginning bool // BHT
}

func (t Transaction) document() map[string]interface{} {
	doc := make(map[string]interface{})
	if t.hasHeader {
		doc["type"] = t.Type
		doc["controlNumber"] = t.ControlNumber
		doc["version"] = t.Version
	}
	if t.hasBeginning {
		doc["purpose"] = t.Purpose
		doc["referenceId"] = t.ReferenceID
		doc["date"] = t.Date
		doc["time"] = t.Time
	}
	return doc
}

func (t Transaction) MarshalJSON() ([]byte, error) { return json.Marshal(t.document()) }

func (t Transaction) MarshalYAML() (interface{}, error) { return t.document(), nil }

// Address is a postal address assembled from an N3/N4 pair.
type Address struct {
	Street string `json:"street" yaml:"street"`
	City   string `json:"city" yaml:"city"`
	State  string `json:"state" yaml:"state"`
	Zip    string `json:"zip" yaml:"zip"`
}

// Contact is the submitter's PER contact.
type Contact struct {
	Name      string `json:"name" yaml:"name"`
	Phone     string `json:"phone" yaml:"phone"`
	Extension string `json:"extension" yaml:"extension"`
}

// partyKeys records which groups of party attributes a segment has written.
type partyKeys uint16

const (
	keyName partyKeys = 1 << iota
	keyID
	keyTaxID
	keyPayerID
	keyNPI
	keyPersonName // firstName, lastName
	keyAddress    // opened by NM1, rendered as {} until an N4 commits it
	keyAddressSet // N4 committed street, city, state and zip
	keyContact
	keyPlan         // SBR: relationship, groupNumber, planType
	keyDemographics // DMG: dob, sex
)

// Party is any named participant in the claim. Each role writes its own
// attributes; an attribute a role never wrote is left out of the output,
// while one written as "" is kept.
type Party struct {
	Name         string
	FirstName    string
	LastName     string
	ID           string
	TaxID        string
	PayerID      string
	NPI          string
	Address      *Address
	Contact      *Contact
	Relationship string
	GroupNumber  string
	PlanType     string
	DOB          string
	Sex          string

	keys partyKeys
}

func (p *Party) mark(k partyKeys) { p.keys |= k }

func (p Party) has(k partyKeys) bool { return p.keys&k != 0 }

func (p Party) document() map[string]interface{} {
	doc := make(map[string]interface{})
	if p.has(keyName) {
		doc["name"] = p.Name
	}
	if p.has(keyPersonName) {
		doc["firstName"] = p.FirstName
		doc["lastName"] = p.LastName
	}
	if p.has(keyID) {
		doc["id"] = p.ID
	}
	if p.has(keyTaxID) {
		doc["taxId"] = p.TaxID
	}
	if p.has(keyPayerID) {
		doc["payerId"] = p.PayerID
	}
	if p.has(keyNPI) {
		doc["npi"] = p.NPI
	}
	if p.has(keyAddress) {
		if p.has(keyAddressSet) && p.Address != nil {
			doc["address"] = *p.Address
		} else {
			doc["address"] = map[string]interface{}{}
		}
	}
	if p.has(keyContact) && p.Contact != nil {
		doc["contact"] = *p.Contact
	}
	if p.has(keyPlan) {
		doc["relationship"] = p.Relationship
		doc["groupNumber"] = p.GroupNumber
		doc["planType"] = p.PlanType
	}
	if p.has(keyDemographics) {
		doc["dob"] = p.DOB
		doc["sex"] = p.Sex
	}
	return doc
}

func (p Party) MarshalJSON() ([]byte, error) { return json.Marshal(p.document()) }

func (p Party) MarshalYAML() (interface{}, error) { return p.document(), nil }

// openAddress starts an empty address for a new NM1 loop.
func (p *Party) openAddress() {
	p.Address = &Address{}
	p.keys = (p.keys | keyAddress) &^ keyAddressSet
}

func (p *Party) commitAddress(addr Address) {
	p.Address = &addr
	p.mark(keyAddress | keyAddressSet)
}

// Clone returns a deep copy of p.
func (p *Party) Clone() *Party {
	if p == nil {
		return nil
	}
	c := *p
	if p.Address != nil {
		addr := *p.Address
		c.Address = &addr
	}
	if p.Contact != nil {
		contact := *p.Contact
		c.Contact = &contact
	}
	return &c
}

// Indicators are the CLM yes/no flags.
type Indicators struct {
	Assigned          string `json:"assigned" yaml:"assigned"`
	ProviderSignature string `json:"providerSignature" yaml:"providerSignature"`
	ReleaseInfo       string `json:"releaseInfo" yaml:"releaseInfo"`
	PatientSignature  string `json:"patientSignature" yaml:"patientSignature"`
	RelatedCause      string `json:"relatedCause" yaml:"relatedCause"`
}

// Diagnosis holds the HI codes of a claim with qualifiers stripped.
type Diagnosis struct {
	Primary   string   `json:"primary" yaml:"primary"`
	Secondary []string `json:"secondary" yaml:"secondary"`
}

// ServiceLine is one billed procedure (LX + SV1 + DTP*472).
type ServiceLine struct {
	LineNumber         int         `json:"lineNumber" yaml:"lineNumber"`
	CodeQualifier      string      `json:"codeQualifier" yaml:"codeQualifier"`
	ProcedureCode      string      `json:"procedureCode" yaml:"procedureCode"`
	Charge             float64     `json:"charge" yaml:"charge"`
	UnitQualifier      string      `json:"unitQualifier" yaml:"unitQualifier"`
	Units              float64     `json:"units" yaml:"units"`
	DiagnosisPointer   CodePointer `json:"diagnosisPointer" yaml:"diagnosisPointer"`
	EmergencyIndicator string      `json:"emergencyIndicator" yaml:"emergencyIndicator"`
	ServiceDate        string      `json:"serviceDate" yaml:"serviceDate"`
	PlaceOfService     string      `json:"placeOfService,omitempty" yaml:"placeOfService,omitempty"`
}

// CodePointer is the SV107 diagnosis code pointer. It encodes as "" until an
// SV1 carries one, and as a number afterwards (0 when unparseable).
type CodePointer struct {
	Index int
	Valid bool
}

func (p CodePointer) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte(`""`), nil
	}
	return json.Marshal(p.Index)
}

func (p CodePointer) MarshalYAML() (interface{}, error) {
	if !p.Valid {
		return "", nil
	}
	return p.Index, nil
}

// Claim is one CLM loop. Payer, RenderingProvider and ServiceFacility are
// claim-local overrides; nil means the document-level value applies.
type Claim struct {
	ID                       string
	TotalCharge              float64
	PlaceOfService           string
	ServiceType              string
	Indicators               Indicators
	OnsetDate                string
	ClearinghouseClaimNumber string
	Diagnosis                Diagnosis
	ServiceLines             []*ServiceLine

	Payer             *Party
	RenderingProvider *Party
	ServiceFacility   *Party
}

// lastLine returns the most recently appended service line, or nil.
func (c *Claim) lastLine() *ServiceLine {
	if len(c.ServiceLines) == 0 {
		return nil
	}
	return c.ServiceLines[len(c.ServiceLines)-1]
}

// Summary is the claim section of the output: the claim without its
// diagnosis, lines and party overrides.
type Summary struct {
	ID                       string     `json:"id" yaml:"id"`
	TotalCharge              float64    `json:"totalCharge" yaml:"totalCharge"`
	PlaceOfService           string     `json:"placeOfService" yaml:"placeOfService"`
	ServiceType              string     `json:"serviceType" yaml:"serviceType"`
	Indicators               Indicators `json:"indicators" yaml:"indicators"`
	OnsetDate                string     `json:"onsetDate" yaml:"onsetDate"`
	ClearinghouseClaimNumber string     `json:"clearinghouseClaimNumber" yaml:"clearinghouseClaimNumber"`
}

func (c *Claim) summary() Summary {
	return Summary{
		ID:                       c.ID,
		TotalCharge:              c.TotalCharge,
		PlaceOfService:           c.PlaceOfService,
		ServiceType:              c.ServiceType,
		Indicators:               c.Indicators,
		OnsetDate:                c.OnsetDate,
		ClearinghouseClaimNumber: c.ClearinghouseClaimNumber,
	}
}
