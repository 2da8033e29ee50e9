// Copyright 2023 The chuhe.io Authors
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

package taskqueue

import (
	"testing"

	"chuhe.io/workservice/pkg/utils/redis"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	cli := NewClient(&redis.Options{Addr: mr.Addr()}, NewDefaultOptions())
	t.Cleanup(func() { _ = cli.Close() })
	return cli
}

func TestSubmitAndStatus(t *testing.T) {
	cli := newTestClient(t)

	id, err := cli.SubmitImport(ImportJob{
		FilePath:      "/ftp/2023/orders.csv",
		WarehouseHost: "warehouse-1",
		Database:      "sales",
		Table:         "orders",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	state, err := cli.Status(id)
	require.NoError(t, err)
	assert.Equal(t, JobStatePending, state)
	assert.False(t, state.Finished())
}

func TestStatusUnknownID(t *testing.T) {
	cli := newTestClient(t)

	_, err := cli.Status("no-such-id")
	assert.Error(t, err)
}

func TestRevokePending(t *testing.T) {
	cli := newTestClient(t)

	id, err := cli.SubmitImport(ImportJob{FilePath: "/ftp/a.csv"})
	require.NoError(t, err)

	require.NoError(t, cli.Revoke(id))

	_, err = cli.Status(id)
	assert.Error(t, err)
}

func TestFinished(t *testing.T) {
	assert.True(t, JobStateSuccess.Finished())
	assert.True(t, JobStateFailure.Finished())
	assert.False(t, JobStateStarted.Finished())
	assert.False(t, JobStatePending.Finished())
}
