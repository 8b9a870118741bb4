/*
Copyright 2025 OCMS Project Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ocmsproject/ocms"
	"github.com/ocmsproject/ocms/config"
	"github.com/ocmsproject/ocms/database"
	"github.com/ocmsproject/ocms/internal/notification"
)

// Ocms represents the CLI application, encapsulating the root Cobra command.
type Ocms struct {
	cmd *cobra.Command
}

// ocmsInstance holds the runtime instance and configuration shared by the
// subcommands.
type ocmsInstance struct {
	ocms *ocms.Ocms
	cnf  *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and initializes the application instance
// before any subcommand runs.
func preRun(app *ocmsInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("ocms.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newOcms, err := setupOcms(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.ocms = newOcms
		app.cnf = cnf

		return nil
	}
}

// setupOcms connects the datasources and wires the application instance.
func setupOcms(cfg *config.Configuration) (*ocms.Ocms, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newOcms, err := ocms.NewOcms(db)
	if err != nil {
		return nil, fmt.Errorf("error creating ocms: %v", err)
	}
	return newOcms, nil
}

// NewCLI creates the command-line interface for the application.
func NewCLI() *Ocms {
	var configFile string
	o := &ocmsInstance{}

	var rootCmd = &cobra.Command{
		Use:   "ocms",
		Short: "Offence notice lifecycle processing",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./ocms.json", "Configuration file for the server")

	rootCmd.PersistentPreRunE = preRun(o)

	rootCmd.AddCommand(serverCommands(o))
	rootCmd.AddCommand(workerCommands(o))
	rootCmd.AddCommand(jobCommands(o))
	rootCmd.AddCommand(migrateCommands(o))
	rootCmd.AddCommand(configCommands())

	return &Ocms{cmd: rootCmd}
}

func (w Ocms) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
