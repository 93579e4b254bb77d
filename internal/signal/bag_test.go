package signal

import "testing"

func TestBuildFillsEverySchemaKey(t *testing.T) {
	bag := NewBuilder().Build()

	if bag.Len() != len(Keys()) {
		t.Fatalf("bag has %d signals, want %d", bag.Len(), len(Keys()))
	}
	for _, key := range Keys() {
		sig := bag.Get(key)
		if sig.Present {
			t.Errorf("key %q should be absent in an empty bag", key)
		}
		if sig.Value == nil {
			t.Errorf("key %q absent default is nil", key)
		}
	}
}

func TestBuilderRejectsUnknownKeys(t *testing.T) {
	bag := NewBuilder().
		Set("not_a_real_signal", 42).
		Set(KeyPlatform, "Linux x86_64").
		Build()

	if bag.Present("not_a_real_signal") {
		t.Error("unknown key should not enter the bag")
	}
	if got := bag.Str(KeyPlatform); got != "Linux x86_64" {
		t.Errorf("platform = %q", got)
	}
}

func TestBagTypedAccessors(t *testing.T) {
	bag := NewBuilder().
		Set(KeyPluginCount, 3).
		Set(KeyDeviceMemory, 7.5).
		Set(KeyWebdriver, true).
		Set(KeyLanguages, []string{"en-US", "en"}).
		Build()

	if got := bag.Int(KeyPluginCount); got != 3 {
		t.Errorf("Int = %d, want 3", got)
	}
	if got := bag.Float(KeyDeviceMemory); got != 7.5 {
		t.Errorf("Float = %v, want 7.5", got)
	}
	if !bag.Bool(KeyWebdriver) {
		t.Error("Bool = false, want true")
	}
	if got := bag.Strs(KeyLanguages); len(got) != 2 || got[0] != "en-US" {
		t.Errorf("Strs = %v", got)
	}

	// Wrong-type reads degrade to zero values.
	if got := bag.Str(KeyPluginCount); got != "" {
		t.Errorf("Str on int signal = %q, want empty", got)
	}
	if got := bag.Strs(KeyWebdriver); got == nil || len(got) != 0 {
		t.Errorf("Strs on bool signal = %v, want empty non-nil", got)
	}
}

func TestBagIntAcceptsJSONNumbers(t *testing.T) {
	bag := NewBuilder().Set(KeyMouseEventCount, float64(12)).Build()
	if got := bag.Int(KeyMouseEventCount); got != 12 {
		t.Errorf("Int = %d, want 12", got)
	}
}

func TestNilBagIsSafe(t *testing.T) {
	var bag *Bag
	if bag.Present(KeyPlatform) {
		t.Error("nil bag reports a present signal")
	}
	if got := bag.Str(KeyPlatform); got != "" {
		t.Errorf("nil bag Str = %q", got)
	}
	if bag.Len() != 0 {
		t.Errorf("nil bag Len = %d", bag.Len())
	}
}

func TestGeoAccessor(t *testing.T) {
	t.Run("resolved", func(t *testing.T) {
		bag := NewBuilder().Set(KeyPublicIPGeo, GeoInfo{IP: "203.0.113.9", Country: "US"}).Build()
		geo, ok := bag.Geo()
		if !ok {
			t.Fatal("geo should be resolved")
		}
		if geo.Country != "US" {
			t.Errorf("country = %q", geo.Country)
		}
	})

	t.Run("absent", func(t *testing.T) {
		bag := NewBuilder().SetAbsent(KeyPublicIPGeo).Build()
		if _, ok := bag.Geo(); ok {
			t.Error("absent geo should not report ok")
		}
	})
}
