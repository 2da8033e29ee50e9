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
	"time"

	"chuhe.io/workservice/pkg/utils"
	"github.com/spf13/pflag"
)

type Options struct {
	Addr    string        `json:"addr" description:"resource service api address"`
	Timeout time.Duration `json:"timeout" description:"request timeout"`
}

func NewDefaultOptions() *Options {
	return &Options{
		Addr:    "http://resource-service:8000",
		Timeout: 10 * time.Second,
	}
}

func (o *Options) RegistFlags(prefix string, fs *pflag.FlagSet) {
	fs.StringVar(&o.Addr, utils.JoinFlagName(prefix, "addr"), o.Addr, "resource service api address")
	fs.DurationVar(&o.Timeout, utils.JoinFlagName(prefix, "timeout"), o.Timeout, "request timeout")
}
