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

package airflow

import (
	"time"

	"chuhe.io/workservice/pkg/utils"
	"github.com/spf13/pflag"
)

type Options struct {
	Addr     string        `json:"addr,omitempty" description:"airflow api base url"`
	Username string        `json:"username,omitempty" description:"airflow basic auth username"`
	Password string        `json:"password,omitempty" description:"airflow basic auth password"`
	Timeout  time.Duration `json:"timeout,omitempty" description:"per request timeout"`
}

func NewDefaultOptions() *Options {
	return &Options{
		Addr:     "http://airflow:8080/api/v1",
		Username: "admin",
		Password: "admin",
		Timeout:  10 * time.Second,
	}
}

func (o *Options) RegistFlags(prefix string, fs *pflag.FlagSet) {
	fs.StringVar(&o.Addr, utils.JoinFlagName(prefix, "addr"), o.Addr, "airflow api base url")
	fs.StringVar(&o.Username, utils.JoinFlagName(prefix, "username"), o.Username, "airflow basic auth username")
	fs.StringVar(&o.Password, utils.JoinFlagName(prefix, "password"), o.Password, "airflow basic auth password")
	fs.DurationVar(&o.Timeout, utils.JoinFlagName(prefix, "timeout"), o.Timeout, "per request timeout")
}
