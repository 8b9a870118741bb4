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
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ocmsproject/ocms"
)

// jobCommands defines the "jobs" command group for running and listing
// batch jobs from an operator shell.
func jobCommands(o *ocmsInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "run and inspect batch jobs",
	}

	cmd.AddCommand(jobRunCommands(o))
	cmd.AddCommand(jobListCommands())

	return cmd
}

// jobRunCommands runs one job synchronously under the same lease the
// scheduled runs use, so a shell run cannot overlap a timer run.
func jobRunCommands(o *ocmsInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [job name]",
		Short: "run a batch job now",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			result, err := o.ocms.RunJob(context.Background(), args[0])
			if err != nil {
				log.Fatalf("Error running job: %v", err)
			}

			if result.Skipped {
				fmt.Println("Skipped: another run holds the lease")
				return
			}
			fmt.Printf("Success: %v\nProcessed: %d\nFailed: %d\nMessage: %s\n",
				result.Success, result.SuccessCount, result.FailureCount, result.Message)
		},
	}

	return cmd
}

func jobListCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list available batch jobs",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(strings.Join(ocms.JobNames(), "\n"))
		},
	}

	return cmd
}
