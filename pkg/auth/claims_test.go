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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

func TestClaimsToPrincipalSuccess(t *testing.T) {
	c := Claims{Subject: "user-1", Role: "director", DataAccessLevel: 4, Department: "sales"}
	p, err := c.ToPrincipal()
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.ID)
	assert.Equal(t, principal.RoleDirector, p.Role)
	assert.Equal(t, principal.DataAccessLevel(4), p.DataAccessLevel)
	assert.Equal(t, "sales", p.Department)
}

func TestClaimsToPrincipalMissingSubjectIsUnauthorized(t *testing.T) {
	c := Claims{Role: "director", DataAccessLevel: 4}
	_, err := c.ToPrincipal()
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.Unauthorized))
}

func TestClaimsToPrincipalUnknownRoleIsUnauthorized(t *testing.T) {
	c := Claims{Subject: "user-1", Role: "contractor", DataAccessLevel: 4}
	_, err := c.ToPrincipal()
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.Unauthorized))
}

func TestClaimsToPrincipalOutOfRangeDataLevelIsUnauthorized(t *testing.T) {
	c := Claims{Subject: "user-1", Role: "director", DataAccessLevel: 9}
	_, err := c.ToPrincipal()
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.Unauthorized))
}

func TestClaimsToPrincipalZeroDataLevelIsUnauthorized(t *testing.T) {
	c := Claims{Subject: "user-1", Role: "director"}
	_, err := c.ToPrincipal()
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.Unauthorized))
}
