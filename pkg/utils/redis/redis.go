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

package redis

import (
	"context"
	"fmt"

	"chuhe.io/workservice/pkg/utils"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/pflag"
)

type Options struct {
	Addr     string `json:"addr,omitempty" description:"redis broker address"`
	Password string `json:"password,omitempty" description:"redis broker password"`
	DB       int    `json:"db,omitempty" description:"redis database"`
}

func NewDefaultOptions() *Options {
	return &Options{
		Addr:     "redis:6379",
		Password: "",
		DB:       1,
	}
}

func (o *Options) RegistFlags(prefix string, fs *pflag.FlagSet) {
	fs.StringVar(&o.Addr, utils.JoinFlagName(prefix, "addr"), o.Addr, "redis broker address")
	fs.StringVar(&o.Password, utils.JoinFlagName(prefix, "password"), o.Password, "redis broker password")
	fs.IntVar(&o.DB, utils.JoinFlagName(prefix, "db"), o.DB, "redis database")
}

func (o *Options) ToDsn() string {
	if len(o.Password) == 0 {
		return fmt.Sprintf("redis://%s/%v", o.Addr, o.DB)
	}
	return fmt.Sprintf("redis://%s@%s/%v", o.Password, o.Addr, o.DB)
}

type Client struct {
	*redis.Client
}

func NewClient(options *Options) (*Client, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:     options.Addr,
		Password: options.Password,
		DB:       options.DB,
	})
	if err := cli.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis broker %s: %w", options.Addr, err)
	}
	return &Client{Client: cli}, nil
}
