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

package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

type stubVerifier struct {
	p   principal.Principal
	err error
}

func (s stubVerifier) Verify(ctx context.Context, bearerToken string) (principal.Principal, error) {
	return s.p, s.err
}

type stubRegistry struct {
	registered []principal.Principal
}

func (r *stubRegistry) Register(p principal.Principal) {
	r.registered = append(r.registered, p)
}

func TestRegisteringVerifierRegistersOnSuccess(t *testing.T) {
	want := principal.Principal{ID: "user-1", Role: principal.RoleDirector}
	reg := &stubRegistry{}
	v := NewRegisteringVerifier(stubVerifier{p: want}, reg)

	got, err := v.Verify(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	require.Len(t, reg.registered, 1)
	assert.Equal(t, want, reg.registered[0])
}

func TestRegisteringVerifierSkipsRegistrationOnFailure(t *testing.T) {
	reg := &stubRegistry{}
	v := NewRegisteringVerifier(stubVerifier{err: errors.New("bad token")}, reg)

	_, err := v.Verify(context.Background(), "token")
	require.Error(t, err)
	assert.Empty(t, reg.registered)
}
