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

package worker

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"chuhe.io/workservice/pkg/repository"
	"chuhe.io/workservice/pkg/services/works"
	"github.com/pkg/errors"
)

// registerWorkRoutes exposes the manual work and task actions. The routes
// are operator facing plumbing, all lifecycle logic lives in the works
// service and the state machine behind it.
func registerWorkRoutes(mux *http.ServeMux, service *works.Service) {
	mux.HandleFunc("/v1/works/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		// /v1/works/{kind}/{id}/submit
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v1/works/"), "/")
		if len(parts) != 3 || parts[2] != "submit" {
			http.NotFound(w, r)
			return
		}
		id, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			http.Error(w, "invalid work id", http.StatusBadRequest)
			return
		}
		submittedBy := r.URL.Query().Get("submittedBy")
		var result interface{}
		switch parts[0] {
		case "common":
			result, err = service.SubmitCommonWork(r.Context(), uint(id), submittedBy)
		case "import":
			result, err = service.SubmitImportWork(r.Context(), uint(id), submittedBy)
		default:
			http.NotFound(w, r)
			return
		}
		respond(w, result, err)
	})

	mux.HandleFunc("/v1/tasks/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		// /v1/tasks/{uuid}/{action}
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v1/tasks/"), "/")
		if len(parts) != 2 {
			http.NotFound(w, r)
			return
		}
		var result interface{}
		var err error
		switch parts[1] {
		case "start":
			result, err = service.StartUpTask(r.Context(), parts[0])
		case "stop":
			result, err = service.ShutDownTask(r.Context(), parts[0])
		default:
			http.NotFound(w, r)
			return
		}
		respond(w, result, err)
	})
}

func respond(w http.ResponseWriter, result interface{}, err error) {
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, repository.ErrNotFound) {
			code = http.StatusNotFound
		}
		http.Error(w, err.Error(), code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}
