package claim

// Entity identifies which party the next N3/N4/PER/DMG segment describes.
// X12 carries this only implicitly, through the most recent NM1.
type Entity int

const (
	EntityNone Entity = iota
	EntitySubmitter
	EntityReceiver
	EntityBillingProvider
	EntityPayToProvider
	EntitySubscriber
	EntityPayer
	EntityRenderingProvider
	EntityServiceFacility
)

var entityNames = map[Entity]string{
	EntityNone:              "none",
	EntitySubmitter:         "submitter",
	EntityReceiver:          "receiver",
	EntityBillingProvider:   "billing_provider",
	EntityPayToProvider:     "pay_to_provider",
	EntitySubscriber:        "subscriber",
	EntityPayer:             "payer",
	EntityRenderingProvider: "rendering_provider",
	EntityServiceFacility:   "service_facility",
}

func (e Entity) String() string {
	if name, ok := entityNames[e]; ok {
		return name
	}
	return "unknown"
}

// entityCodes maps NM101 entity identifier codes to roles.
var entityCodes = map[string]Entity{
	"41": EntitySubmitter,
	"40": EntityReceiver,
	"85": EntityBillingProvider,
	"87": EntityPayToProvider,
	"IL": EntitySubscriber,
	"PR": EntityPayer,
	"82": EntityRenderingProvider,
	"77": EntityServiceFacility,
}
