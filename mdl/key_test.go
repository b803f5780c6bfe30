// Copyright 2024 The Cockroach Authors
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

package mdl

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	k := NewKey(Table, "test", "t1")
	require.Equal(t, Table, k.Namespace())
	require.Equal(t, "test", k.DB())
	require.Equal(t, "t1", k.Name())
	require.Equal(t, "TABLE test.t1", k.String())
	require.Equal(t, xxhash.Sum64([]byte("\x02test\x00t1\x00")), k.Hash())

	empty := NewKey(Backup, "", "")
	require.Equal(t, "", empty.DB())
	require.Equal(t, "", empty.Name())
	require.Equal(t, Backup, empty.Namespace())
}

func TestKeyEqual(t *testing.T) {
	a := NewKey(Table, "test", "t1")
	testCases := []struct {
		other    *Key
		expected bool
	}{
		{a, true},
		{NewKey(Table, "test", "t1"), true},
		{NewKey(Schema, "test", "t1"), false},
		{NewKey(Table, "test", "t2"), false},
		{NewKey(Table, "test1", "t1"), false},
		// The separator keeps the db and name apart.
		{NewKey(Table, "tes", "tt1"), false},
		{nil, false},
	}
	for _, c := range testCases {
		t.Run(c.other.safeString(), func(t *testing.T) {
			require.Equal(t, c.expected, a.Equal(c.other))
			if c.other != nil {
				require.Equal(t, c.expected, c.other.Equal(a))
				require.Equal(t, c.expected, a.Hash() == c.other.Hash())
			}
		})
	}
}

func (k *Key) safeString() string {
	if k == nil {
		return "nil"
	}
	return k.String()
}

func TestEnumStrings(t *testing.T) {
	require.Equal(t, "PACKAGE BODY", PackageBody.String())
	require.Equal(t, "namespace(200)", Namespace(200).String())
	require.Equal(t, "MDL_SHARED_NO_READ_WRITE", SharedNoReadWrite.String())
	require.Equal(t, "type(99)", Type(99).String())
	require.Equal(t, "MDL_TRANSACTION", Transaction.String())
	require.Equal(t, "duration(7)", Duration(7).String())
}
