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

package database

import (
	"time"

	"chuhe.io/workservice/pkg/log"
	"chuhe.io/workservice/pkg/models"
	"chuhe.io/workservice/pkg/utils"
	driver "github.com/go-sql-driver/mysql"
	"github.com/spf13/pflag"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type Options struct {
	Addr     string `json:"addr" description:"mysql host addr"`
	Username string `json:"username" description:"mysql username"`
	Password string `json:"password" description:"mysql password"`
	Database string `json:"database" description:"database to use"`
}

func NewDefaultOptions() *Options {
	return &Options{
		Addr:     "mysql:3306",
		Username: "root",
		Password: "",
		Database: "work_service",
	}
}

func (o *Options) RegistFlags(prefix string, fs *pflag.FlagSet) {
	fs.StringVar(&o.Addr, utils.JoinFlagName(prefix, "addr"), o.Addr, "mysql host addr")
	fs.StringVar(&o.Username, utils.JoinFlagName(prefix, "username"), o.Username, "mysql username")
	fs.StringVar(&o.Password, utils.JoinFlagName(prefix, "password"), o.Password, "mysql password")
	fs.StringVar(&o.Database, utils.JoinFlagName(prefix, "database"), o.Database, "database to use")
}

func (opts *Options) ToDriverConfig() *driver.Config {
	return &driver.Config{
		User:                 opts.Username,
		Passwd:               opts.Password,
		Net:                  "tcp",
		Addr:                 opts.Addr,
		DBName:               opts.Database,
		ParseTime:            true,
		Collation:            "utf8_general_ci",
		Loc:                  time.Local,
		AllowNativePasswords: true,
	}
}

func (opts *Options) ToDsn() string {
	return opts.ToDriverConfig().FormatDSN()
}

type Database struct {
	db      *gorm.DB
	options *Options
}

func (o *Database) DB() *gorm.DB {
	return o.db
}

func (o *Database) Options() *Options {
	return o.options
}

func NewDatabase(options *Options) (*Database, error) {
	db, err := gorm.Open(mysql.Open(options.ToDsn()), &gorm.Config{
		Logger: log.NewDefaultGormZapLogger(),
	})
	if err != nil {
		return nil, err
	}
	return &Database{db: db, options: options}, nil
}

// Migrate creates or updates the work/task tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.CommonWork{},
		&models.CommonWorkInstance{},
		&models.ImportWork{},
		&models.ImportWorkInstance{},
		&models.Task{},
	)
}
