package hwaccel

import "testing"

func TestConfigStoreOrderAndLookup(t *testing.T) {
	s := NewConfigStore("b", "2", "a", "1")
	s.Set("c", "3")
	s.Set("a", "updated") // re-set must not change the order

	keys := s.Keys()
	want := []string{"b", "a", "c"}
	if len(keys) != len(want) {
		t.Fatalf("Keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
	if v, ok := s.Get("a"); !ok || v != "updated" {
		t.Errorf("Get(a) = (%q, %v)", v, ok)
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("Get(missing) reported present")
	}
}

func TestConfigStoreNilSafe(t *testing.T) {
	var s *ConfigStore
	if _, ok := s.Get("any"); ok {
		t.Error("nil store returned a value")
	}
	if s.Len() != 0 {
		t.Error("nil store has entries")
	}
}

func TestConfigFromYAML(t *testing.T) {
	data := []byte(`
hw_decoders_any: "vaapi.iHD,d3d11va"
hw_disable_decoders: av1_vaapi
hw_encoders_any: qsv
`)
	s, err := ConfigFromYAML(data)
	if err != nil {
		t.Fatalf("ConfigFromYAML failed: %v", err)
	}
	if v, _ := s.Get("hw_decoders_any"); v != "vaapi.iHD,d3d11va" {
		t.Errorf("hw_decoders_any = %q", v)
	}
	keys := s.Keys()
	if len(keys) != 3 || keys[0] != "hw_decoders_any" || keys[2] != "hw_encoders_any" {
		t.Errorf("document order not preserved: %v", keys)
	}
}

func TestConfigFromYAMLEmpty(t *testing.T) {
	s, err := ConfigFromYAML(nil)
	if err != nil {
		t.Fatalf("ConfigFromYAML(nil) failed: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("empty document produced %d entries", s.Len())
	}
}

func TestConfigFromYAMLRejectsNonMapping(t *testing.T) {
	if _, err := ConfigFromYAML([]byte("- a\n- b\n")); err == nil {
		t.Error("sequence document accepted")
	}
	if _, err := ConfigFromYAML([]byte("key:\n  nested: 1\n")); err == nil {
		t.Error("nested mapping value accepted")
	}
}
