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

// Package workspace resolves workspace metadata, most importantly the
// warehouse endpoint that import jobs load data into.
package workspace

import (
	"context"
	"fmt"
	"time"

	"chuhe.io/workservice/pkg/utils"
	"chuhe.io/workservice/pkg/utils/remote"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/pflag"
)

type Options struct {
	Addr    string        `json:"addr" description:"workspace service api address"`
	Timeout time.Duration `json:"timeout" description:"request timeout"`
}

func NewDefaultOptions() *Options {
	return &Options{
		Addr:    "http://workspace-service:8000",
		Timeout: 10 * time.Second,
	}
}

func (o *Options) RegistFlags(prefix string, fs *pflag.FlagSet) {
	fs.StringVar(&o.Addr, utils.JoinFlagName(prefix, "addr"), o.Addr, "workspace service api address")
	fs.DurationVar(&o.Timeout, utils.JoinFlagName(prefix, "timeout"), o.Timeout, "request timeout")
}

// Warehouse locates the database an import job writes into.
type Warehouse struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
}

type Client struct {
	client *resty.Client
}

func NewClient(options *Options) *Client {
	return &Client{
		client: resty.New().SetBaseURL(options.Addr).SetTimeout(options.Timeout),
	}
}

func (c *Client) GetWarehouseInfo(ctx context.Context, workspaceID uint) (*Warehouse, error) {
	into := &struct {
		Warehouse Warehouse `json:"warehouse"`
	}{}
	resp, err := c.client.R().SetContext(ctx).SetResult(into).
		Get(fmt.Sprintf("/workspaces/%d", workspaceID))
	if err != nil {
		return nil, remote.Classify("workspace.GetWarehouseInfo", 0, err)
	}
	if err := remote.Classify("workspace.GetWarehouseInfo", resp.StatusCode(), nil); err != nil {
		return nil, err
	}
	if into.Warehouse.Host == "" {
		return nil, fmt.Errorf("workspace %d has no warehouse configured", workspaceID)
	}
	return &into.Warehouse, nil
}
