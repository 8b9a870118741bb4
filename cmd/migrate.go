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

	"github.com/spf13/cobra"

	"github.com/ocmsproject/ocms/config"
	"github.com/ocmsproject/ocms/database"
)

// migrateCommands creates the command that bootstraps the schema on both
// stores. The statements are idempotent, so re-running is safe.
func migrateCommands(_ *ocmsInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "bootstrap the ocms schema",
		Run: func(cmd *cobra.Command, args []string) {
			cnf, err := config.Fetch()
			if err != nil {
				log.Printf("Error fetching config: %v", err)
				return
			}

			if _, err := database.NewDataSource(cnf); err != nil {
				log.Printf("Error bootstrapping schema: %v", err)
				return
			}
			fmt.Println("Schema bootstrapped on intranet and internet stores")
		},
	}

	return cmd
}
