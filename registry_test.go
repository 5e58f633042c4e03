package fleetmon

import (
	"strings"
	"testing"

	"github.com/nanoncore/nano-fleetmon/types"
)

func TestRegistryCoversAllBrands(t *testing.T) {
	brands := []types.Brand{
		types.BrandCData, types.BrandBDCOM, types.BrandVSOL,
		types.BrandHuawei, types.BrandZTE, types.BrandFiberHome,
		types.BrandHioso,
	}
	for _, b := range brands {
		caps, err := CapabilityFor(b)
		if err != nil {
			t.Fatalf("%s: %v", b, err)
		}
		if caps.Parse == nil {
			t.Errorf("%s: no parser", b)
		}
		if len(caps.Catalogs) == 0 {
			t.Errorf("%s: no catalogs", b)
		}
		if caps.Profile.Primary == "" {
			t.Errorf("%s: no primary transport", b)
		}
	}
}

func TestCatalogModeFallback(t *testing.T) {
	// BDCOM only ships an EPON catalog; a device row configured as
	// GPON still gets it.
	epon, err := Catalog(types.BrandBDCOM, types.ModeEPON)
	if err != nil {
		t.Fatal(err)
	}
	gpon, err := Catalog(types.BrandBDCOM, types.ModeGPON)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(epon, ";") != strings.Join(gpon, ";") {
		t.Error("single-catalog brand should serve its catalog for any mode")
	}
}

func TestCatalogModesDiffer(t *testing.T) {
	epon, err := Catalog(types.BrandCData, types.ModeEPON)
	if err != nil {
		t.Fatal(err)
	}
	gpon, err := Catalog(types.BrandCData, types.ModeGPON)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(epon, ";") == strings.Join(gpon, ";") {
		t.Error("cdata EPON and GPON catalogs should differ")
	}
}

func TestParseUnknownBrand(t *testing.T) {
	if _, err := Parse(types.Brand("unknown"), 1, ""); err == nil {
		t.Fatal("expected error for unknown brand")
	}
}

func TestRebootCommandsTargetTheONU(t *testing.T) {
	caps, err := CapabilityFor(types.BrandZTE)
	if err != nil {
		t.Fatal(err)
	}
	cmds := caps.Reboot(types.ModeGPON, "1/2-1", 3)
	joined := strings.Join(cmds, "\n")
	if !strings.Contains(joined, "gpon-onu_1/2/1:3") {
		t.Errorf("zte reboot commands = %q", joined)
	}
	if !strings.Contains(joined, "reboot") {
		t.Errorf("missing reboot verb: %q", joined)
	}
}

func TestSupportedBrandsStableOrder(t *testing.T) {
	a := SupportedBrands()
	b := SupportedBrands()
	if len(a) != 7 {
		t.Fatalf("expected 7 brands, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("ordering is not stable")
		}
	}
}
