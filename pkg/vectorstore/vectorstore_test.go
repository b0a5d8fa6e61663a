package vectorstore

import "testing"

func TestCheckDimension(t *testing.T) {
	ok := make([]float32, Dimension)
	if err := CheckDimension(ok); err != nil {
		t.Errorf("CheckDimension(%d-dim) = %v, want nil", Dimension, err)
	}

	bad := make([]float32, 10)
	if err := CheckDimension(bad); err == nil {
		t.Errorf("CheckDimension(10-dim) = nil, want error")
	}
}

func TestNewDefaultsToChromem(t *testing.T) {
	var cfg BackendConfig
	cfg.SetDefaults()
	if cfg.Backend != BackendChromem {
		t.Errorf("BackendConfig.SetDefaults() backend = %v, want chromem", cfg.Backend)
	}
}
