// Copyright 2025 Microsoft Corporation
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

package provision

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewCommand() (*cobra.Command, error) {
	opts := DefaultOptions()

	cmd := &cobra.Command{
		Use:   "provision NAME",
		Short: "Provision an MCA subscription across tenants",
		Long: `provision creates a subscription billed to an MCA billing account in the
source tenant and accepts its ownership in the destination tenant.

The workflow is two-phase: a subscription alias is created under the billing
scope resolved from the invoice section display name, homed in the destination
tenant and owned by the destination service principal; the destination service
principal then accepts ownership. If ownership acceptance fails the
subscription already exists, so the run reports partial success and emits the
subscription ID for manual remediation.`,
		Example: `  subprov provision payments-prod --workload Production
  subprov provision sandbox-dev --workload DevTest --output json --pipeline-output`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SubscriptionName = args[0]

			validated, err := opts.Validate()
			if err != nil {
				return err
			}
			completed, err := validated.Complete(cmd.Context())
			if err != nil {
				return err
			}
			return completed.Run(cmd.Context())
		},
	}

	if err := opts.BindOptions(cmd); err != nil {
		return nil, fmt.Errorf("failed to bind options: %w", err)
	}

	return cmd, nil
}
