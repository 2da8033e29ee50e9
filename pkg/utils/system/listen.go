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

package system

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-logr/logr"
)

// ListenAndServeContext serves handler on listen until ctx is canceled.
func ListenAndServeContext(ctx context.Context, listen string, handler http.Handler) error {
	log := logr.FromContextOrDiscard(ctx)
	s := http.Server{Handler: handler, Addr: listen}
	go func() {
		<-ctx.Done()
		log.Info("shutting down server", "addr", listen)
		s.Close()
	}()
	log.Info("starting http server", "addr", listen)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
