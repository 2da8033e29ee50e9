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

package resourceservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chuhe.io/workservice/pkg/utils/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(&Options{Addr: srv.URL, Timeout: 5 * time.Second})
}

func TestSubmitTask(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tasks", r.URL.Path)
		spec := TaskSpec{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&spec))
		assert.Equal(t, "daily-report", spec.Name)
		assert.Equal(t, "SPARK_JAR", spec.Category)
		_ = json.NewEncoder(w).Encode(map[string]string{"task_id": "rs-123"})
	})
	id, err := cli.SubmitTask(context.Background(), TaskSpec{
		WorkspaceID: 1,
		WorkID:      2,
		TaskID:      "uuid-1",
		Name:        "daily-report",
		Category:    "SPARK_JAR",
	})
	require.NoError(t, err)
	assert.Equal(t, "rs-123", id)
}

func TestSubmitTaskMissingID(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	})
	_, err := cli.SubmitTask(context.Background(), TaskSpec{TaskID: "uuid-1"})
	assert.Error(t, err)
}

func TestCancelTask(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/tasks/rs-123", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	assert.NoError(t, cli.CancelTask(context.Background(), "rs-123"))
}

func TestCancelTaskRejected(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	err := cli.CancelTask(context.Background(), "rs-123")
	require.Error(t, err)
	assert.True(t, remote.IsRejected(err))
}
