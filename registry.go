// Package fleetmon maps OLT brands to the pieces the poll pipeline
// needs: a transport profile, per-mode command catalogs, and a
// transcript parser. Adding a brand means adding one Registry row.
package fleetmon

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nanoncore/nano-fleetmon/drivers"
	"github.com/nanoncore/nano-fleetmon/types"
	"github.com/nanoncore/nano-fleetmon/vendors/bdcom"
	"github.com/nanoncore/nano-fleetmon/vendors/cdata"
	"github.com/nanoncore/nano-fleetmon/vendors/fiberhome"
	"github.com/nanoncore/nano-fleetmon/vendors/hioso"
	"github.com/nanoncore/nano-fleetmon/vendors/huawei"
	"github.com/nanoncore/nano-fleetmon/vendors/vsol"
	"github.com/nanoncore/nano-fleetmon/vendors/zte"
)

// ParseFunc turns a raw transcript into normalized ONU records.
type ParseFunc func(deviceID int64, transcript string) []*types.ONURecord

// CommandFunc renders a per-ONU maintenance command sequence. A nil
// CommandFunc means the brand does not support the operation.
type CommandFunc func(mode types.Mode, ponPort string, onuIndex int) []string

// Capability is one Registry row.
type Capability struct {
	Profile  drivers.Profile
	Catalogs map[types.Mode][]string
	Parse    ParseFunc
	Reboot   CommandFunc
	Deauth   CommandFunc
}

// Registry is the closed brand table. Catalog order matters: later
// commands return more authoritative data and their parsed fields
// overwrite earlier ones.
var Registry = map[types.Brand]Capability{
	types.BrandCData: {
		Profile: drivers.Profile{
			Primary:      types.TransportTelnet,
			Fallback:     types.TransportSSH,
			DefaultPort:  23,
			WebPorts:     []int{8080, 443},
			SupportsSNMP: true,
		},
		Catalogs: map[types.Mode][]string{
			types.ModeEPON: {
				"terminal length 0",
				"show onu-information all",
				"show onu-optical-transceiver-diagnosis all",
				"show onu-distance all",
				"show onu version all",
				"show onu-deregister-reason all",
			},
			types.ModeGPON: {
				"terminal length 0",
				"show gpon onu-information all",
				"show gpon onu-optical-transceiver-diagnosis all",
				"show gpon onu-distance all",
				"show gpon onu version all",
				"show gpon onu-deregister-reason all",
			},
		},
		Parse: cdata.Parse,
		Reboot: func(mode types.Mode, ponPort string, onuIndex int) []string {
			return []string{
				"config",
				fmt.Sprintf("interface %s %s", mode, ponPort),
				fmt.Sprintf("onu reboot %d", onuIndex),
				"exit",
				"exit",
			}
		},
		Deauth: func(mode types.Mode, ponPort string, onuIndex int) []string {
			return []string{
				"config",
				fmt.Sprintf("interface %s %s", mode, ponPort),
				fmt.Sprintf("no onu %d", onuIndex),
				"exit",
				"exit",
			}
		},
	},

	types.BrandBDCOM: {
		Profile: drivers.Profile{
			Primary:      types.TransportTelnet,
			Fallback:     types.TransportSSH,
			DefaultPort:  23,
			SupportsSNMP: true,
		},
		Catalogs: map[types.Mode][]string{
			types.ModeEPON: {
				"terminal length 0",
				"show epon onu-information",
				"show epon onu-deregistration",
				"show epon optical-transceiver-diagnosis",
			},
		},
		Parse: bdcom.Parse,
		Reboot: func(_ types.Mode, ponPort string, onuIndex int) []string {
			return []string{fmt.Sprintf("epon reboot onu interface EPON%s:%d", ponPort, onuIndex)}
		},
		Deauth: func(_ types.Mode, ponPort string, onuIndex int) []string {
			return []string{
				"config",
				fmt.Sprintf("no epon bind-onu interface EPON%s:%d", ponPort, onuIndex),
				"exit",
			}
		},
	},

	types.BrandHioso: {
		Profile: drivers.Profile{
			Primary:     types.TransportTelnet,
			Fallback:    types.TransportSSH,
			DefaultPort: 23,
			WebPorts:    []int{80},
		},
		Catalogs: map[types.Mode][]string{
			types.ModeEPON: {
				"show epon onu-information",
				"show epon optical-transceiver",
				"show epon onu-dereg",
			},
		},
		Parse: hioso.Parse,
		Reboot: func(_ types.Mode, ponPort string, onuIndex int) []string {
			return []string{fmt.Sprintf("onu reboot pon %s onu %d", hiosoPon(ponPort), onuIndex)}
		},
		Deauth: func(_ types.Mode, ponPort string, onuIndex int) []string {
			return []string{fmt.Sprintf("onu delete pon %s onu %d", hiosoPon(ponPort), onuIndex)}
		},
	},

	types.BrandVSOL: {
		Profile: drivers.Profile{
			Primary:      types.TransportTelnet,
			Fallback:     types.TransportSSH,
			DefaultPort:  23,
			WebPorts:     []int{443, 80},
			SupportsSNMP: true,
		},
		Catalogs: map[types.Mode][]string{
			types.ModeEPON: {
				"enable",
				"show onu info",
				"show onu state",
				"show onu optical-info",
				"show onu last-dereg-reason",
			},
			types.ModeGPON: {
				"enable",
				"show onu info",
				"show onu state",
				"show onu optical-info",
				"show onu last-dereg-reason",
			},
		},
		Parse: vsol.Parse,
		Reboot: func(mode types.Mode, ponPort string, onuIndex int) []string {
			return []string{
				"enable",
				"configure terminal",
				fmt.Sprintf("interface %s %s", mode, ponPort),
				fmt.Sprintf("onu %d reboot", onuIndex),
				"exit",
				"exit",
			}
		},
		Deauth: func(mode types.Mode, ponPort string, onuIndex int) []string {
			return []string{
				"enable",
				"configure terminal",
				fmt.Sprintf("interface %s %s", mode, ponPort),
				fmt.Sprintf("no onu %d", onuIndex),
				"exit",
				"exit",
			}
		},
	},

	types.BrandHuawei: {
		Profile: drivers.Profile{
			Primary:      types.TransportSSH,
			Fallback:     types.TransportTelnet,
			DefaultPort:  23,
			SupportsSNMP: true,
		},
		Catalogs: map[types.Mode][]string{
			types.ModeGPON: {
				"enable",
				"scroll",
				"display ont info all",
				"display ont optical-info all",
			},
		},
		Parse: huawei.Parse,
		Reboot: func(_ types.Mode, ponPort string, onuIndex int) []string {
			return []string{
				"enable",
				"config",
				fmt.Sprintf("ont reset 0 %s %d", strings.ReplaceAll(ponPort, "/", " "), onuIndex),
				"quit",
			}
		},
		Deauth: func(_ types.Mode, ponPort string, onuIndex int) []string {
			return []string{
				"enable",
				"config",
				fmt.Sprintf("ont delete 0 %s %d", strings.ReplaceAll(ponPort, "/", " "), onuIndex),
				"quit",
			}
		},
	},

	types.BrandZTE: {
		Profile: drivers.Profile{
			Primary:      types.TransportTelnet,
			Fallback:     types.TransportSSH,
			DefaultPort:  23,
			SupportsSNMP: true,
		},
		Catalogs: map[types.Mode][]string{
			types.ModeGPON: {
				"terminal length 0",
				"show gpon onu state",
			},
		},
		Parse: zte.Parse,
		Reboot: func(_ types.Mode, ponPort string, onuIndex int) []string {
			return []string{
				"configure terminal",
				fmt.Sprintf("pon-onu-mng gpon-onu_%s:%d", zteIndex(ponPort), onuIndex),
				"reboot",
				"exit",
				"exit",
			}
		},
		Deauth: func(_ types.Mode, ponPort string, onuIndex int) []string {
			return []string{
				"configure terminal",
				fmt.Sprintf("interface gpon-olt_%s", zteIndex(ponPort)),
				fmt.Sprintf("no onu %d", onuIndex),
				"exit",
				"exit",
			}
		},
	},

	types.BrandFiberHome: {
		Profile: drivers.Profile{
			Primary:      types.TransportTelnet,
			Fallback:     types.TransportSSH,
			DefaultPort:  23,
			SupportsSNMP: true,
		},
		Catalogs: map[types.Mode][]string{
			types.ModeGPON: {
				"cd onu",
				"show onu list",
				"show onu optical",
				"show onu offline-reason",
			},
		},
		Parse: fiberhome.Parse,
		Reboot: func(_ types.Mode, ponPort string, onuIndex int) []string {
			return []string{
				"cd onu",
				fmt.Sprintf("reset slot %s onu %d", strings.ReplaceAll(ponPort, "/", " pon "), onuIndex),
			}
		},
	},
}

// CapabilityFor looks up the Registry row for a brand.
func CapabilityFor(brand types.Brand) (Capability, error) {
	caps, ok := Registry[brand]
	if !ok {
		return Capability{}, fmt.Errorf("unsupported brand: %s", brand)
	}
	return caps, nil
}

// Catalog returns the command list for a brand and mode. A brand with
// a single catalog serves it regardless of the configured mode, so a
// device row with the wrong technology variant still polls.
func Catalog(brand types.Brand, mode types.Mode) ([]string, error) {
	caps, err := CapabilityFor(brand)
	if err != nil {
		return nil, err
	}
	if cmds, ok := caps.Catalogs[mode]; ok {
		return cmds, nil
	}
	if len(caps.Catalogs) == 1 {
		for _, cmds := range caps.Catalogs {
			return cmds, nil
		}
	}
	return nil, fmt.Errorf("brand %s has no %s catalog", brand, mode)
}

// Parse dispatches a transcript to the brand's parser.
func Parse(brand types.Brand, deviceID int64, transcript string) ([]*types.ONURecord, error) {
	caps, err := CapabilityFor(brand)
	if err != nil {
		return nil, err
	}
	return caps.Parse(deviceID, transcript), nil
}

// SupportedBrands lists the Registry keys in stable order.
func SupportedBrands() []types.Brand {
	brands := make([]types.Brand, 0, len(Registry))
	for b := range Registry {
		brands = append(brands, b)
	}
	sort.Slice(brands, func(i, j int) bool { return brands[i] < brands[j] })
	return brands
}

// hiosoPon strips the synthetic "0/" chassis prefix the parser adds to
// single-number Hioso pon ports.
func hiosoPon(ponPort string) string {
	return strings.TrimPrefix(ponPort, "0/")
}

// zteIndex restores the shelf/slot/port triple from the flattened
// "shelf/slot-port" form.
func zteIndex(ponPort string) string {
	return strings.Replace(ponPort, "-", "/", 1)
}
