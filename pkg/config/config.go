// Copyright 2025 OneVice Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads and validates the environment configuration block
// recognized by the orchestration core: graph store, KV cache, LLM
// providers, memory, RBAC, and runtime settings.
package config

import (
	"fmt"

	"github.com/dirkdd/OneVice-sub002/pkg/vectorstore"
)

// GraphConfig configures the pooled property-graph connection.
type GraphConfig struct {
	URI                string `yaml:"uri" json:"uri"`
	Username           string `yaml:"username" json:"username"`
	Password           string `yaml:"password" json:"password"`
	Database           string `yaml:"database" json:"database"`
	PoolMax            int    `yaml:"pool_max" json:"pool_max"`
	ConnectionTimeoutS int    `yaml:"connection_timeout_s" json:"connection_timeout_s"`
	Encrypted          bool   `yaml:"encrypted" json:"encrypted"`
}

func (c *GraphConfig) SetDefaults() {
	if c.PoolMax <= 0 {
		c.PoolMax = 100
	}
	if c.ConnectionTimeoutS <= 0 {
		c.ConnectionTimeoutS = 30
	}
}

func (c GraphConfig) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("graph.uri is required")
	}
	if c.PoolMax <= 0 {
		return fmt.Errorf("graph.pool_max must be positive")
	}
	return nil
}

// CacheConfig configures the Redis-backed key-value cache.
type CacheConfig struct {
	URL string `yaml:"url" json:"url"`
}

func (c CacheConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("cache.url is required")
	}
	return nil
}

// ProviderConfig is one LLM provider slot (primary, secondary or
// tertiary) within the LLM providers block.
type ProviderConfig struct {
	APIKey       string `yaml:"api_key" json:"api_key"`
	DefaultModel string `yaml:"default_model" json:"default_model"`
	BaseURL      string `yaml:"base_url" json:"base_url"`
}

// LLMProvidersConfig configures the provider set and the sensitivity
// floor allow-list.
type LLMProvidersConfig struct {
	Primary                     ProviderConfig `yaml:"primary" json:"primary"`
	Secondary                   ProviderConfig `yaml:"secondary" json:"secondary"`
	Tertiary                    ProviderConfig `yaml:"tertiary" json:"tertiary"`
	SensitivityFloorProviderSet []string       `yaml:"sensitivity_floor_provider_set" json:"sensitivity_floor_provider_set"`
	SensitivityFloorLevel       int            `yaml:"sensitivity_floor_level" json:"sensitivity_floor_level"`
}

func (c *LLMProvidersConfig) SetDefaults() {
	if c.SensitivityFloorLevel <= 0 {
		c.SensitivityFloorLevel = 5
	}
	if len(c.SensitivityFloorProviderSet) == 0 {
		c.SensitivityFloorProviderSet = []string{"anthropic", "openai"}
	}
}

// MemoryConfig configures the extraction worker pool and consolidator.
type MemoryConfig struct {
	Workers                int     `yaml:"workers" json:"workers"`
	ExtractionRetries      int     `yaml:"extraction_retries" json:"extraction_retries"`
	ConsolidationIntervalS int     `yaml:"consolidation_interval_s" json:"consolidation_interval_s"`
	DedupSimilarity        float64 `yaml:"dedup_similarity" json:"dedup_similarity"`
	ConsolidationCohesion  float64 `yaml:"consolidation_cohesion" json:"consolidation_cohesion"`
	ConsolidationMinSize   int     `yaml:"consolidation_min_size" json:"consolidation_min_size"`
}

func (c *MemoryConfig) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.ExtractionRetries <= 0 {
		c.ExtractionRetries = 3
	}
	if c.ConsolidationIntervalS <= 0 {
		c.ConsolidationIntervalS = 3600
	}
	if c.DedupSimilarity <= 0 {
		c.DedupSimilarity = 0.92
	}
	if c.ConsolidationCohesion <= 0 {
		c.ConsolidationCohesion = 0.85
	}
	if c.ConsolidationMinSize <= 0 {
		c.ConsolidationMinSize = 3
	}
}

// AuthConfig configures the JWKS-based bearer token validator. The IdP
// itself is an external, non-goal collaborator; this block only names
// the endpoint and claims it's expected to issue.
type AuthConfig struct {
	JWKSURL  string `yaml:"jwks_url" json:"jwks_url"`
	Issuer   string `yaml:"issuer" json:"issuer"`
	Audience string `yaml:"audience" json:"audience"`
}

func (c AuthConfig) Validate() error {
	if c.JWKSURL == "" {
		return fmt.Errorf("auth.jwks_url is required")
	}
	if c.Issuer == "" {
		return fmt.Errorf("auth.issuer is required")
	}
	if c.Audience == "" {
		return fmt.Errorf("auth.audience is required")
	}
	return nil
}

// RBACConfig configures the permission cache behavior and the static
// role-to-permission table used when no relational permission service
// is configured.
type RBACConfig struct {
	PermissionCacheTTLS int                 `yaml:"permission_cache_ttl_s" json:"permission_cache_ttl_s"`
	FailClosed          bool                `yaml:"fail_closed" json:"fail_closed"`
	RolePermissions     map[string][]string `yaml:"role_permissions" json:"role_permissions"`
}

func (c *RBACConfig) SetDefaults() {
	if c.PermissionCacheTTLS <= 0 {
		c.PermissionCacheTTLS = 900
	}
	// fail_closed is true by default regardless of what's set; the gate
	// must never fail open on a cache miss.
	c.FailClosed = true
	if c.RolePermissions == nil {
		c.RolePermissions = map[string][]string{
			"creative_director": {"view_projects", "view_talent"},
			"salesperson":       {"view_projects", "view_talent", "view_deals", "view_clients"},
			"director":          {"view_projects", "view_talent", "view_deals", "view_clients", "view_financials"},
			"leadership":        {"view_projects", "view_talent", "view_deals", "view_clients", "view_financials", "view_compensation"},
		}
	}
}

// RuntimeConfig configures the process entrypoint and the session
// manager.
type RuntimeConfig struct {
	Host                  string   `yaml:"host" json:"host"`
	Port                  int      `yaml:"port" json:"port"`
	WebsocketBufferFrames int      `yaml:"websocket_buffer_frames" json:"websocket_buffer_frames"`
	LogLevel              string   `yaml:"log_level" json:"log_level"`
	LogFormat             string   `yaml:"log_format" json:"log_format"`
	AllowedOrigins        []string `yaml:"allowed_origins" json:"allowed_origins"`
}

func (c *RuntimeConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port <= 0 {
		c.Port = 8080
	}
	if c.WebsocketBufferFrames <= 0 {
		c.WebsocketBufferFrames = 256
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
}

// Config is the complete environment configuration block recognized by
// the orchestration core.
type Config struct {
	Graph       GraphConfig               `yaml:"graph" json:"graph"`
	Cache       CacheConfig               `yaml:"cache" json:"cache"`
	VectorStore vectorstore.BackendConfig `yaml:"vector_store" json:"vector_store"`
	LLM         LLMProvidersConfig        `yaml:"llm" json:"llm"`
	Memory      MemoryConfig              `yaml:"memory" json:"memory"`
	Auth        AuthConfig                `yaml:"auth" json:"auth"`
	RBAC        RBACConfig                `yaml:"rbac" json:"rbac"`
	Runtime     RuntimeConfig             `yaml:"runtime" json:"runtime"`
}

// SetDefaults fills every sub-block's zero values with the documented
// defaults. Called once after load, before Validate.
func (c *Config) SetDefaults() {
	c.Graph.SetDefaults()
	c.VectorStore.SetDefaults()
	c.LLM.SetDefaults()
	c.Memory.SetDefaults()
	c.RBAC.SetDefaults()
	c.Runtime.SetDefaults()
}

// Validate checks the cross-field invariants the core depends on at
// startup, returning the first violation found.
func (c Config) Validate() error {
	if err := c.Graph.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if c.LLM.Primary.DefaultModel == "" {
		return fmt.Errorf("llm.primary.default_model is required")
	}
	if c.LLM.Secondary.DefaultModel == "" {
		return fmt.Errorf("llm.secondary.default_model is required")
	}
	return nil
}
