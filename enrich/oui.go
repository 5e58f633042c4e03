package enrich

import (
	"strings"

	"github.com/nanoncore/nano-fleetmon/vendors/common"
)

// ouiVendors covers the CPE makers that show up in access networks
// often enough to be a useful last-resort display name. It is not, and
// does not try to be, the IEEE registry.
var ouiVendors = map[string]string{
	"00:11:22": "CIMSYS",
	"48:57:54": "Huawei",
	"4C:54:5F": "Huawei",
	"00:25:9E": "Huawei",
	"D4:6A:A8": "Huawei",
	"34:4B:50": "ZTE",
	"68:1A:B2": "ZTE",
	"98:F4:28": "ZTE",
	"54:22:F8": "ZTE",
	"80:14:A8": "TP-Link",
	"14:CC:20": "TP-Link",
	"50:C7:BF": "TP-Link",
	"E8:48:B8": "TP-Link",
	"C8:3A:35": "Tenda",
	"00:1F:A4": "ShenzhenG",
	"A8:4E:3F": "Hitron",
	"00:0C:29": "VMware",
	"B8:27:EB": "RaspberryPi",
	"E4:8D:8C": "Routerboard",
	"6C:3B:6B": "Routerboard",
	"48:8F:5A": "Routerboard",
	"FC:85:96": "FiberHome",
	"88:D2:74": "FiberHome",
	"20:0D:B0": "FiberHome",
}

// OUIVendor returns the maker name for a MAC's first three octets, or
// the empty string when unknown.
func OUIVendor(mac string) string {
	normalized := common.NormalizeMAC(mac)
	if normalized == "" {
		return ""
	}
	return ouiVendors[strings.ToUpper(normalized[:8])]
}
