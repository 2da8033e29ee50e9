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

package config

import (
	"os"
	"strings"

	"chuhe.io/workservice/pkg/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Parse loads configuration with the following precedence:
//
//  1. command line flags
//  2. environment variables
//  3. config file (config.yaml in . or ./config)
//  4. defaults already present on the flagset
//
// A flag named "mysql-addr" is fed from the env var "MYSQL_ADDR" and the
// config file key "mysql.addr".
func Parse(fs *pflag.FlagSet) error {
	LoadConfigFile(fs)
	LoadEnv(fs)
	if err := fs.Parse(os.Args); err != nil {
		return err
	}
	Print(fs)
	return nil
}

func Print(fs *pflag.FlagSet) {
	fs.VisitAll(func(flag *pflag.Flag) {
		if flag.Changed {
			log.Infof("config from flag: --%s=%s", flag.Name, flag.Value)
		}
	})
}

func LoadEnv(fs *pflag.FlagSet) {
	flagNameToEnvKey := func(fname string) string {
		return strings.ToUpper(strings.ReplaceAll(fname, "-", "_"))
	}
	fs.VisitAll(func(f *pflag.Flag) {
		envname := flagNameToEnvKey(f.Name)
		val, ok := os.LookupEnv(envname)
		if ok {
			log.Infof("config from env: %s=%s", envname, val)
			_ = f.Value.Set(val)
		}
	})
}

func LoadConfigFile(fs *pflag.FlagSet) {
	flagNameToConfigKey := func(fname string) string {
		return strings.ToLower(strings.ReplaceAll(fname, "-", "."))
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	if err := v.ReadInConfig(); err != nil {
		log.Warnf("no config file found")
	}

	fs.VisitAll(func(f *pflag.Flag) {
		filekeyname := flagNameToConfigKey(f.Name)
		val := v.GetString(filekeyname)
		if val != "" {
			log.Infof("config from file: %s=%s", filekeyname, val)
			_ = f.Value.Set(val)
		}
	})
}
