package config

import "testing"

func TestSetDefaults(t *testing.T) {
	var c Config
	c.Graph.URI = "bolt://localhost:7687"
	c.Cache.URL = "redis://localhost:6379"
	c.LLM.Primary.DefaultModel = "llama3"
	c.LLM.Secondary.DefaultModel = "claude-sonnet-4"
	c.Auth.JWKSURL = "https://idp.example.com/.well-known/jwks.json"
	c.Auth.Issuer = "https://idp.example.com/"
	c.Auth.Audience = "onevice"
	c.SetDefaults()

	if c.Graph.PoolMax != 100 {
		t.Errorf("Graph.PoolMax = %d, want 100", c.Graph.PoolMax)
	}
	if c.Memory.Workers != 4 {
		t.Errorf("Memory.Workers = %d, want 4", c.Memory.Workers)
	}
	if c.Memory.DedupSimilarity != 0.92 {
		t.Errorf("Memory.DedupSimilarity = %v, want 0.92", c.Memory.DedupSimilarity)
	}
	if !c.RBAC.FailClosed {
		t.Errorf("RBAC.FailClosed must always default true")
	}
	if c.Runtime.WebsocketBufferFrames != 256 {
		t.Errorf("Runtime.WebsocketBufferFrames = %d, want 256", c.Runtime.WebsocketBufferFrames)
	}

	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidateRequiresGraphURI(t *testing.T) {
	var c Config
	c.Cache.URL = "redis://localhost:6379"
	c.LLM.Primary.DefaultModel = "llama3"
	c.LLM.Secondary.DefaultModel = "claude-sonnet-4"
	c.SetDefaults()

	if err := c.Validate(); err == nil {
		t.Errorf("Validate() = nil, want error for missing graph.uri")
	}
}

func TestValidateRequiresAuthJWKSURL(t *testing.T) {
	var c Config
	c.Graph.URI = "bolt://localhost:7687"
	c.Cache.URL = "redis://localhost:6379"
	c.LLM.Primary.DefaultModel = "llama3"
	c.LLM.Secondary.DefaultModel = "claude-sonnet-4"
	c.Auth.Issuer = "https://idp.example.com/"
	c.Auth.Audience = "onevice"
	c.SetDefaults()

	if err := c.Validate(); err == nil {
		t.Errorf("Validate() = nil, want error for missing auth.jwks_url")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ONEVICE_TEST_VAR", "resolved")

	cases := map[string]string{
		"${ONEVICE_TEST_VAR}":           "resolved",
		"$ONEVICE_TEST_VAR":             "resolved",
		"${ONEVICE_MISSING:-fallback}":  "fallback",
		"${ONEVICE_TEST_VAR:-fallback}": "resolved",
		"plain string, no vars":         "plain string, no vars",
	}

	for in, want := range cases {
		if got := expandEnvVars(in); got != want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseValue(t *testing.T) {
	if v := parseValue("true"); v != true {
		t.Errorf("parseValue(true) = %v, want true", v)
	}
	if v := parseValue("42"); v != int64(42) {
		t.Errorf("parseValue(42) = %v, want int64(42)", v)
	}
	if v := parseValue("3.14"); v != 3.14 {
		t.Errorf("parseValue(3.14) = %v, want 3.14", v)
	}
	if v := parseValue("hello"); v != "hello" {
		t.Errorf("parseValue(hello) = %v, want hello", v)
	}
}
