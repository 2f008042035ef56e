package claim

import (
	"sort"
	"strings"

	"github.com/ehr/claimview/internal/platform/x12"
)

// Batch is everything assembled from one document: the shared transaction
// and parties plus the committed claims in document order.
type Batch struct {
	Transaction     Transaction
	Submitter       Party
	Receiver        Party
	BillingProvider Party
	PayToProvider   Party
	Subscriber      Party
	Payer           Party
	Claims          []*Claim
}

// Assembler rebuilds claims from an ordered segment stream. Context such as
// "which party does this N4 belong to" comes only from segment order, so
// segments must be applied in the order they appear. An Assembler is
// single-use and not safe for concurrent use.
type Assembler struct {
	delims x12.Delimiters

	transaction Transaction
	submitter   Party
	receiver    Party
	billing     Party
	payTo       Party
	subscriber  Party
	payer       Party

	current   Entity
	addresses map[Entity]Address

	open   *Claim
	claims []*Claim

	seen map[string]struct{}
}

// NewAssembler creates an Assembler for a document using delims. The
// delimiters are only reported back in diagnostics.
func NewAssembler(delims x12.Delimiters) *Assembler {
	return &Assembler{
		delims:    delims,
		addresses: make(map[Entity]Address),
		seen:      make(map[string]struct{}),
	}
}

// Assemble applies segs in order and finishes the batch.
func Assemble(segs []x12.Segment, delims x12.Delimiters) (*Batch, error) {
	a := NewAssembler(delims)
	for _, seg := range segs {
		a.Apply(seg)
	}
	return a.Finish()
}

type segmentHandler func(a *Assembler, seg x12.Segment)

var segmentHandlers = map[string]segmentHandler{
	"ISA": (*Assembler).applyInterchange,
	"ST":  (*Assembler).applyTransactionSet,
	"BHT": (*Assembler).applyBeginTransaction,
	"NM1": (*Assembler).applyName,
	"N3":  (*Assembler).applyStreet,
	"N4":  (*Assembler).applyCityStateZip,
	"PER": (*Assembler).applyContact,
	"SBR": (*Assembler).applySubscriberInfo,
	"DMG": (*Assembler).applyDemographics,
	"CLM": (*Assembler).applyClaim,
	"HI":  (*Assembler).applyDiagnosis,
	"DTP": (*Assembler).applyDate,
	"REF": (*Assembler).applyReference,
	"LX":  (*Assembler).applyLineNumber,
	"SV1": (*Assembler).applyProfessionalService,
}

// Apply advances the state machine by one segment. Unknown segment IDs are
// recorded for diagnostics and otherwise ignored.
func (a *Assembler) Apply(seg x12.Segment) {
	a.seen[seg.ID] = struct{}{}
	if h, ok := segmentHandlers[seg.ID]; ok {
		h(a, seg)
	}
}

// Finish commits the open claim and returns the batch. A document without
// any CLM segment yields *NoClaimFoundError.
func (a *Assembler) Finish() (*Batch, error) {
	a.commit()

	if a.payTo.Name == "" {
		a.payTo = *a.billing.Clone()
	}

	if len(a.claims) == 0 {
		return nil, &NoClaimFoundError{
			TransactionType: a.transaction.Type,
			SegmentIDs:      a.segmentIDs(),
			Delimiters:      a.delims,
		}
	}

	return &Batch{
		Transaction:     a.transaction,
		Submitter:       a.submitter,
		Receiver:        a.receiver,
		BillingProvider: a.billing,
		PayToProvider:   a.payTo,
		Subscriber:      a.subscriber,
		Payer:           a.payer,
		Claims:          a.claims,
	}, nil
}

func (a *Assembler) commit() {
	if a.open != nil {
		a.claims = append(a.claims, a.open)
		a.open = nil
	}
}

func (a *Assembler) segmentIDs() []string {
	ids := make([]string, 0, len(a.seen))
	for id := range a.seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// =========== Envelope ===========

func (a *Assembler) applyInterchange(seg x12.Segment) {
	a.submitter.Name = seg.Value(6)
	a.submitter.mark(keyName)
	a.receiver.Name = seg.Value(8)
	a.receiver.ID = seg.Value(8)
	a.receiver.mark(keyName | keyID)
}

func (a *Assembler) applyTransactionSet(seg x12.Segment) {
	a.transaction.Type = seg.Value(1)
	a.transaction.ControlNumber = seg.Value(2)
	a.transaction.Version = seg.Value(3)
	a.transaction.hasHeader = true
}

func (a *Assembler) applyBeginTransaction(seg x12.Segment) {
	a.transaction.Purpose = seg.Value(1)
	a.transaction.ReferenceID = seg.Value(3)
	a.transaction.Date = x12.FormatDate(seg.Value(4))
	a.transaction.Time = x12.FormatTime(seg.Value(5))
	a.transaction.hasBeginning = true
}

// =========== Parties ===========

// name is the NM1 payload shared by all role handlers.
type name struct {
	last  string // NM103, or the organization name
	first string // NM104
	id    string // NM109
}

type roleHandler func(a *Assembler, n name)

var roleHandlers = map[Entity]roleHandler{
	EntitySubmitter: func(a *Assembler, n name) {
		a.submitter.Name = n.last
		a.submitter.ID = n.id
		a.submitter.mark(keyName | keyID)
	},
	EntityReceiver: func(a *Assembler, n name) {
		a.receiver.Name = n.last
		a.receiver.ID = n.id
		a.receiver.mark(keyName | keyID)
	},
	EntityBillingProvider: func(a *Assembler, n name) {
		a.billing.Name = n.last
		a.billing.TaxID = n.id
		a.billing.openAddress()
		a.billing.mark(keyName | keyTaxID)
	},
	EntityPayToProvider: func(a *Assembler, n name) {
		a.payTo.Name = n.last
		a.payTo.TaxID = n.id
		a.payTo.openAddress()
		a.payTo.mark(keyName | keyTaxID)
	},
	EntitySubscriber: func(a *Assembler, n name) {
		a.subscriber.FirstName = n.first
		a.subscriber.LastName = n.last
		a.subscriber.ID = n.id
		a.subscriber.openAddress()
		a.subscriber.mark(keyPersonName | keyID)
	},
	EntityPayer: func(a *Assembler, n name) {
		if a.open != nil {
			a.open.Payer = &Party{Name: n.last, PayerID: n.id, keys: keyName | keyPayerID}
			return
		}
		a.payer.Name = n.last
		a.payer.PayerID = n.id
		a.payer.mark(keyName | keyPayerID)
	},
	EntityRenderingProvider: func(a *Assembler, n name) {
		if a.open != nil {
			a.open.RenderingProvider = &Party{
				FirstName: n.first,
				LastName:  n.last,
				NPI:       n.id,
				keys:      keyPersonName | keyNPI,
			}
		}
	},
	EntityServiceFacility: func(a *Assembler, n name) {
		if a.open != nil {
			facility := &Party{Name: n.last, TaxID: n.id, keys: keyName | keyTaxID}
			facility.openAddress()
			a.open.ServiceFacility = facility
		}
	},
}

func (a *Assembler) applyName(seg x12.Segment) {
	role, ok := entityCodes[seg.Value(1)]
	if !ok {
		return
	}
	a.current = role
	roleHandlers[role](a, name{
		last:  seg.Value(3),
		first: seg.Value(4),
		id:    seg.Value(9),
	})
}

func (a *Assembler) applyStreet(seg x12.Segment) {
	a.addresses[a.current] = Address{Street: seg.Value(1)}
}

func (a *Assembler) applyCityStateZip(seg x12.Segment) {
	addr, ok := a.addresses[a.current]
	if !ok {
		return
	}
	addr.City = seg.Value(1)
	addr.State = seg.Value(2)
	addr.Zip = seg.Value(3)
	a.addresses[a.current] = addr

	switch a.current {
	case EntityBillingProvider:
		a.billing.commitAddress(addr)
	case EntityPayToProvider:
		a.payTo.commitAddress(addr)
	case EntitySubscriber:
		a.subscriber.commitAddress(addr)
	case EntityServiceFacility:
		if a.open != nil && a.open.ServiceFacility != nil {
			a.open.ServiceFacility.commitAddress(addr)
		}
	}
}

func (a *Assembler) applyContact(seg x12.Segment) {
	if a.current != EntitySubmitter {
		return
	}
	a.submitter.Contact = &Contact{
		Name:      seg.Value(2),
		Phone:     seg.Value(4),
		Extension: seg.Value(6),
	}
	a.submitter.mark(keyContact)
}

func (a *Assembler) applySubscriberInfo(seg x12.Segment) {
	a.subscriber.Relationship = seg.Value(2)
	if a.subscriber.Relationship == "" {
		a.subscriber.Relationship = "self"
	}
	a.subscriber.GroupNumber = seg.Value(3)
	a.subscriber.PlanType = seg.Value(5)
	a.subscriber.mark(keyPlan)
}

func (a *Assembler) applyDemographics(seg x12.Segment) {
	if a.current != EntitySubscriber {
		return
	}
	a.subscriber.DOB = x12.FormatDate(seg.Value(2))
	a.subscriber.Sex = seg.Value(3)
	a.subscriber.mark(keyDemographics)
}

// =========== Claims ===========

func (a *Assembler) applyClaim(seg x12.Segment) {
	a.commit()
	a.open = &Claim{
		ID:          seg.Value(1),
		TotalCharge: x12.SafeFloat(seg.Element(2), 0),
		ServiceType: firstComponent(seg.Value(5)),
		Indicators: Indicators{
			ProviderSignature: seg.Value(6),
			Assigned:          seg.Value(7),
			PatientSignature:  seg.Value(8),
			ReleaseInfo:       seg.Value(9),
			RelatedCause:      firstComponent(seg.Value(11)),
		},
		Diagnosis:    Diagnosis{Secondary: []string{}},
		ServiceLines: []*ServiceLine{},
	}
}

// firstComponent returns the part of a composite element before the first
// component separator (CLM05-1, CLM11-1).
func firstComponent(v string) string {
	head, _, _ := strings.Cut(v, ":")
	return head
}

func (a *Assembler) applyDiagnosis(seg x12.Segment) {
	if a.open == nil {
		return
	}
	for i := 1; i < len(seg.Elements); i++ {
		code := x12.CleanCode(seg.Elements[i])
		if code == "" {
			continue
		}
		if i == 1 {
			a.open.Diagnosis.Primary = code
		} else {
			a.open.Diagnosis.Secondary = append(a.open.Diagnosis.Secondary, code)
		}
	}
}

const (
	dateQualifierService   = "472"
	dateQualifierOnset     = "431"
	dateQualifierAdmission = "454"

	refQualifierClearinghouse = "D9"
)

func (a *Assembler) applyDate(seg x12.Segment) {
	if a.open == nil {
		return
	}
	date := x12.FormatDate(seg.Value(3))

	switch seg.Value(1) {
	case dateQualifierService:
		if line := a.open.lastLine(); line != nil {
			line.ServiceDate = date
		}
	case dateQualifierOnset, dateQualifierAdmission:
		a.open.OnsetDate = date
	}
}

func (a *Assembler) applyReference(seg x12.Segment) {
	if a.open == nil || seg.Value(1) != refQualifierClearinghouse {
		return
	}
	a.open.ClearinghouseClaimNumber = seg.Value(2)
}

func (a *Assembler) applyLineNumber(seg x12.Segment) {
	if a.open == nil {
		return
	}
	a.open.ServiceLines = append(a.open.ServiceLines, &ServiceLine{
		LineNumber: x12.SafeInt(seg.Element(1), 0),
	})
}

func (a *Assembler) applyProfessionalService(seg x12.Segment) {
	if a.open == nil {
		return
	}
	line := a.open.lastLine()
	if line == nil {
		return
	}

	proc := seg.Value(1)
	if qualifier, code, ok := strings.Cut(proc, ":"); ok {
		line.CodeQualifier = qualifier
		// Modifiers after the code (HC:99213:25) are not kept.
		code, _, _ = strings.Cut(code, ":")
		line.ProcedureCode = code
	} else {
		line.ProcedureCode = proc
	}

	line.Charge = x12.SafeFloat(seg.Element(2), 0)
	line.UnitQualifier = seg.Value(3)
	line.Units = x12.SafeFloat(seg.Element(4), 0)

	if pos := seg.Value(5); pos != "" {
		line.PlaceOfService = pos
		if a.open.PlaceOfService == "" {
			a.open.PlaceOfService = pos
		}
	}

	if ptr := seg.Element(7); ptr != "" {
		line.DiagnosisPointer = CodePointer{Index: x12.SafeInt(ptr, 0), Valid: true}
	}
	line.EmergencyIndicator = seg.Value(9)
}
