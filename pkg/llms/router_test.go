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

package llms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

type fakeProvider struct {
	name      string
	trusted   bool
	completes func(ctx context.Context, params CompleteParams) (CompleteResponse, error)
	calls     int
}

func (f *fakeProvider) Name() string                 { return f.name }
func (f *fakeProvider) Trusted() bool                { return f.trusted }
func (f *fakeProvider) ModelFor(c Complexity) string { return f.name + "-" + string(c) }
func (f *fakeProvider) Complete(ctx context.Context, params CompleteParams) (CompleteResponse, error) {
	f.calls++
	return f.completes(ctx, params)
}
func (f *fakeProvider) CompleteStream(ctx context.Context, params CompleteParams) (<-chan StreamChunk, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeProvider) Health(ctx context.Context) bool { return true }

func newTestRegistry(providers ...*fakeProvider) *Registry {
	reg := NewRegistry()
	for _, p := range providers {
		_ = reg.Register(p.name, Provider(p))
	}
	return reg
}

func TestRouterFallbackOnRetryableFailure(t *testing.T) {
	failing := &fakeProvider{
		name: "alpha", trusted: true,
		completes: func(ctx context.Context, params CompleteParams) (CompleteResponse, error) {
			return CompleteResponse{}, errkind.New(errkind.Connection, "fake", errors.New("down"))
		},
	}
	healthy := &fakeProvider{
		name: "beta", trusted: true,
		completes: func(ctx context.Context, params CompleteParams) (CompleteResponse, error) {
			return CompleteResponse{Content: "ok"}, nil
		},
	}
	reg := newTestRegistry(failing, healthy)
	r := NewRouter(reg, nil, nil, 5, nil)

	resp, provider, err := r.Complete(context.Background(), CompleteRequest{
		Messages:  []Message{{Role: RoleUser, Content: "hi"}},
		Principal: principal.Principal{DataAccessLevel: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "beta", provider)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 2, failing.calls, "retryable failure should be retried once before falling over")
}

func TestRouterExhaustedProvidersWhenAllFail(t *testing.T) {
	mkFailing := func(name string) *fakeProvider {
		return &fakeProvider{name: name, trusted: true, completes: func(ctx context.Context, params CompleteParams) (CompleteResponse, error) {
			return CompleteResponse{}, errkind.New(errkind.Validation, "fake", errors.New("bad request"))
		}}
	}
	a, b := mkFailing("alpha"), mkFailing("beta")
	reg := newTestRegistry(a, b)
	r := NewRouter(reg, nil, nil, 5, nil)

	_, _, err := r.Complete(context.Background(), CompleteRequest{
		Messages:  []Message{{Role: RoleUser, Content: "hi"}},
		Principal: principal.Principal{DataAccessLevel: 1},
	})
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.ExhaustedProviders))
	assert.Equal(t, 1, a.calls, "non-retryable kind should not be retried")
}

func TestRouterSensitivityFloorExcludesUntrusted(t *testing.T) {
	untrusted := &fakeProvider{name: "ollama", trusted: false, completes: func(ctx context.Context, params CompleteParams) (CompleteResponse, error) {
		return CompleteResponse{Content: "should not be reached"}, nil
	}}
	reg := newTestRegistry(untrusted)
	r := NewRouter(reg, nil, nil, 3, []string{"anthropic"})

	_, _, err := r.Complete(context.Background(), CompleteRequest{
		Messages:  []Message{{Role: RoleUser, Content: "hi"}},
		Principal: principal.Principal{DataAccessLevel: 4},
	})
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.ProviderUnavailable))
}

func TestRouterPreferredProviderPromotedWhenEligible(t *testing.T) {
	alpha := &fakeProvider{name: "alpha", trusted: true, completes: func(ctx context.Context, params CompleteParams) (CompleteResponse, error) {
		return CompleteResponse{Content: "from-alpha"}, nil
	}}
	beta := &fakeProvider{name: "beta", trusted: true, completes: func(ctx context.Context, params CompleteParams) (CompleteResponse, error) {
		return CompleteResponse{Content: "from-beta"}, nil
	}}
	reg := newTestRegistry(alpha, beta)
	r := NewRouter(reg, nil, nil, 5, nil)

	resp, provider, err := r.Complete(context.Background(), CompleteRequest{
		Messages:          []Message{{Role: RoleUser, Content: "hi"}},
		PreferredProvider: "beta",
		Principal:         principal.Principal{DataAccessLevel: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "beta", provider)
	assert.Equal(t, "from-beta", resp.Content)
}

func TestRouterHealthCooldownSkipsRecentlyFailedProvider(t *testing.T) {
	flaky := &fakeProvider{name: "alpha", trusted: true, completes: func(ctx context.Context, params CompleteParams) (CompleteResponse, error) {
		return CompleteResponse{}, errkind.New(errkind.Validation, "fake", errors.New("bad"))
	}}
	reg := newTestRegistry(flaky)
	r := NewRouter(reg, nil, nil, 5, nil)

	_, _, err := r.Complete(context.Background(), CompleteRequest{
		Messages:  []Message{{Role: RoleUser, Content: "hi"}},
		Principal: principal.Principal{DataAccessLevel: 1},
	})
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.ExhaustedProviders))

	_, _, err = r.Complete(context.Background(), CompleteRequest{
		Messages:  []Message{{Role: RoleUser, Content: "hi"}},
		Principal: principal.Principal{DataAccessLevel: 1},
	})
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.ProviderUnavailable), "the only provider should now be excluded by the health cooldown")
	assert.Equal(t, 1, flaky.calls, "second call should not re-invoke a provider in cooldown")
}
