package carriers

import "strings"

// carrierNames maps SCAC codes to display names
var carrierNames = map[string]string{
	"AACT": "AAA Cooper Transportation",
	"ABFS": "ABF Freight",
	"AVRT": "Averitt Express",
	"CENF": "Central Freight Lines",
	"CTII": "Central Transport",
	"DAFG": "Dayton Freight Lines",
	"DHRN": "Dohrn Transfer",
	"EXLA": "Estes Express Lines",
	"FXFE": "FedEx Freight Priority",
	"FXNL": "FedEx Freight Economy",
	"HMES": "Holland",
	"NEMF": "New England Motor Freight",
	"ODFL": "Old Dominion Freight Line",
	"PITD": "Pitt Ohio",
	"RDWY": "YRC Freight",
	"RLCA": "R+L Carriers",
	"SAIA": "Saia LTL Freight",
	"SEFL": "Southeastern Freight Lines",
	"TFIN": "TForce Freight",
	"UPGF": "TForce Freight",
	"WARD": "Ward Trucking",
	"XPOL": "XPO Logistics",
	// temperature-controlled carriers
	"CRST": "CRST The Transportation Solution",
	"KLLM": "KLLM Transport Services",
	"PRIJ": "Prime Inc",
	"STEV": "Stevens Transport",
	"CFIR": "C.R. England",
	"MRTN": "Marten Transport",
	"HJBT": "J.B. Hunt Transport",
}

// CarrierDisplayName resolves a carrier code to its display name, falling back to the code itself
func CarrierDisplayName(code string) string {
	if name, ok := carrierNames[normalizeCode(code)]; ok {
		return name
	}
	return strings.TrimSpace(code)
}

// resolveCarrierName keeps a provider supplied name unless it is empty or just echoes the code
func resolveCarrierName(code, name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, strings.TrimSpace(code)) {
		return CarrierDisplayName(code)
	}
	return name
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
