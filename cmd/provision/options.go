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
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/subscription/armsubscription"

	"github.com/Azure/mca-subscription-provisioner/pkg/azauth"
	"github.com/Azure/mca-subscription-provisioner/pkg/azsdk"
	"github.com/Azure/mca-subscription-provisioner/pkg/billing"
	"github.com/Azure/mca-subscription-provisioner/pkg/provision"
	"github.com/Azure/mca-subscription-provisioner/pkg/subscription"
)

// Environment variable names for the required configuration values. Flags
// take precedence; the environment is the fallback so the tool slots into
// pipeline variable groups without long argument lists.
const (
	envSourceTenantID     = "SOURCE_TENANT_ID"
	envSourceClientID     = "SOURCE_CLIENT_ID"
	envSourceClientSecret = "SOURCE_CLIENT_SECRET"
	envDestTenantID       = "DEST_TENANT_ID"
	envDestClientID       = "DEST_CLIENT_ID"
	envDestClientSecret   = "DEST_CLIENT_SECRET"
	envDestOwnerObjectID  = "DEST_OWNER_OBJECT_ID"
	envBillingAccountID   = "BILLING_ACCOUNT_ID"
	envBillingProfileID   = "BILLING_PROFILE_ID"
	envInvoiceSectionName = "INVOICE_SECTION_NAME"
)

func DefaultOptions() *RawOptions {
	return &RawOptions{
		Workload:       string(armsubscription.WorkloadProduction),
		Cloud:          "public",
		Output:         "table",
		RequestTimeout: 10 * time.Minute,
	}
}

// RawOptions holds input values.
type RawOptions struct {
	SubscriptionName string
	Workload         string

	SourceTenantID          string
	SourceClientID          string
	SourceClientSecret      string
	DestinationTenantID     string
	DestinationClientID     string
	DestinationClientSecret string
	OwnerObjectID           string
	BillingAccountID        string
	BillingProfileID        string
	InvoiceSectionName      string

	Cloud          string
	Output         string
	RequestTimeout time.Duration
	PipelineOutput bool
}

func (opts *RawOptions) BindOptions(cmd *cobra.Command) error {
	cmd.Flags().StringVar(&opts.Workload, "workload", opts.Workload, "Workload type of the subscription (Production or DevTest).")
	cmd.Flags().StringVar(&opts.SourceTenantID, "source-tenant-id", getEnv(envSourceTenantID, opts.SourceTenantID), "Tenant hosting the billing account.")
	cmd.Flags().StringVar(&opts.SourceClientID, "source-client-id", getEnv(envSourceClientID, opts.SourceClientID), "Client ID of the source tenant service principal.")
	cmd.Flags().StringVar(&opts.SourceClientSecret, "source-client-secret", getEnv(envSourceClientSecret, opts.SourceClientSecret), "Client secret of the source tenant service principal.")
	cmd.Flags().StringVar(&opts.DestinationTenantID, "dest-tenant-id", getEnv(envDestTenantID, opts.DestinationTenantID), "Tenant the subscription will be homed in.")
	cmd.Flags().StringVar(&opts.DestinationClientID, "dest-client-id", getEnv(envDestClientID, opts.DestinationClientID), "Client ID of the destination tenant service principal.")
	cmd.Flags().StringVar(&opts.DestinationClientSecret, "dest-client-secret", getEnv(envDestClientSecret, opts.DestinationClientSecret), "Client secret of the destination tenant service principal.")
	cmd.Flags().StringVar(&opts.OwnerObjectID, "dest-owner-object-id", getEnv(envDestOwnerObjectID, opts.OwnerObjectID), "Object ID of the destination service principal that accepts ownership.")
	cmd.Flags().StringVar(&opts.BillingAccountID, "billing-account-id", getEnv(envBillingAccountID, opts.BillingAccountID), "MCA billing account ID.")
	cmd.Flags().StringVar(&opts.BillingProfileID, "billing-profile-id", getEnv(envBillingProfileID, opts.BillingProfileID), "Billing profile ID under the billing account.")
	cmd.Flags().StringVar(&opts.InvoiceSectionName, "invoice-section-name", getEnv(envInvoiceSectionName, opts.InvoiceSectionName), "Display name of the invoice section to bill against.")
	cmd.Flags().StringVar(&opts.Cloud, "cloud", opts.Cloud, "Azure cloud to target (public, government, china).")
	cmd.Flags().StringVar(&opts.Output, "output", opts.Output, "Result output format (table, json, yaml).")
	cmd.Flags().DurationVar(&opts.RequestTimeout, "request-timeout", opts.RequestTimeout, "Timeout applied to each outbound step, including provisioning polls.")
	cmd.Flags().BoolVar(&opts.PipelineOutput, "pipeline-output", opts.PipelineOutput, "Emit Azure DevOps task output variables for the created subscription.")
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// validatedOptions is a private wrapper that enforces a call of Validate() before Complete() can be invoked.
type validatedOptions struct {
	*RawOptions
	workload armsubscription.Workload
	output   provision.OutputFormat
}

type ValidatedOptions struct {
	// Embed a private pointer that cannot be instantiated outside of this package.
	*validatedOptions
}

// completedOptions is a private wrapper that enforces a call of Complete() before Run can be invoked.
type completedOptions struct {
	provisioner    *provision.Provisioner
	request        provision.Request
	output         provision.OutputFormat
	pipelineOutput bool
}

type Options struct {
	// Embed a private pointer that cannot be instantiated outside of this package.
	*completedOptions
}

// Validate checks all required configuration values before any credential or
// client is constructed; missing values are collected into a single error
// naming every absent key.
func (o *RawOptions) Validate() (*ValidatedOptions, error) {
	required := []struct {
		key   string
		value string
	}{
		{envSourceTenantID, o.SourceTenantID},
		{envSourceClientID, o.SourceClientID},
		{envSourceClientSecret, o.SourceClientSecret},
		{envDestTenantID, o.DestinationTenantID},
		{envDestClientID, o.DestinationClientID},
		{envDestClientSecret, o.DestinationClientSecret},
		{envDestOwnerObjectID, o.OwnerObjectID},
		{envBillingAccountID, o.BillingAccountID},
		{envBillingProfileID, o.BillingProfileID},
		{envInvoiceSectionName, o.InvoiceSectionName},
	}
	var missing []string
	for _, entry := range required {
		if entry.value == "" {
			missing = append(missing, entry.key)
		}
	}
	if len(missing) > 0 {
		return nil, &provision.ConfigurationError{MissingKeys: missing}
	}

	if o.SubscriptionName == "" {
		return nil, fmt.Errorf("subscription name is required")
	}

	var workload armsubscription.Workload
	switch armsubscription.Workload(o.Workload) {
	case armsubscription.WorkloadProduction:
		workload = armsubscription.WorkloadProduction
	case armsubscription.WorkloadDevTest:
		workload = armsubscription.WorkloadDevTest
	default:
		return nil, fmt.Errorf("unsupported workload %q (supported: %v)", o.Workload, armsubscription.PossibleWorkloadValues())
	}

	output, err := provision.ValidateOutputFormat(o.Output)
	if err != nil {
		return nil, err
	}

	if _, err := azsdk.CloudConfiguration(o.Cloud); err != nil {
		return nil, err
	}

	return &ValidatedOptions{
		validatedOptions: &validatedOptions{
			RawOptions: o,
			workload:   workload,
			output:     output,
		},
	}, nil
}

// Complete constructs the per-tenant credentials and ARM clients.
func (o *ValidatedOptions) Complete(ctx context.Context) (*Options, error) {
	logger := logr.FromContextOrDiscard(ctx)

	cloudCfg, err := azsdk.CloudConfiguration(o.Cloud)
	if err != nil {
		return nil, err
	}
	clientOptions := azsdk.NewClientOptions(cloudCfg)
	scope := azsdk.ARMScope(cloudCfg)

	sourceCred, err := azauth.NewTenantCredential(o.SourceTenantID, o.SourceClientID, o.SourceClientSecret, scope, clientOptions)
	if err != nil {
		return nil, err
	}
	destCred, err := azauth.NewTenantCredential(o.DestinationTenantID, o.DestinationClientID, o.DestinationClientSecret, scope, clientOptions)
	if err != nil {
		return nil, err
	}

	armOptions := &arm.ClientOptions{ClientOptions: clientOptions}
	sections, err := billing.NewSectionResolver(sourceCred.TokenCredential(), armOptions, logger)
	if err != nil {
		return nil, err
	}
	aliases, err := subscription.NewAliasCreator(sourceCred.TokenCredential(), armOptions, logger)
	if err != nil {
		return nil, err
	}
	ownership, err := subscription.NewOwnershipAccepter(destCred.TokenCredential(), armOptions, logger)
	if err != nil {
		return nil, err
	}

	return &Options{
		completedOptions: &completedOptions{
			provisioner: &provision.Provisioner{
				SourceToken:      sourceCred,
				DestinationToken: destCred,
				Sections:         sections,
				Aliases:          aliases,
				Ownership:        ownership,
				StepTimeout:      o.RequestTimeout,
				Logger:           logger,
			},
			request: provision.Request{
				SubscriptionName:    o.SubscriptionName,
				Workload:            o.workload,
				SourceTenantID:      o.SourceTenantID,
				DestinationTenantID: o.DestinationTenantID,
				OwnerObjectID:       o.OwnerObjectID,
				BillingAccountID:    o.BillingAccountID,
				BillingProfileID:    o.BillingProfileID,
				InvoiceSectionName:  o.InvoiceSectionName,
			},
			output:         o.output,
			pipelineOutput: o.PipelineOutput,
		},
	}, nil
}

// Run executes the provisioning workflow and renders the terminal result.
// The result and pipeline variables are emitted on partial success too, so
// downstream automation learns the subscription ID that needs remediation.
func (o *Options) Run(ctx context.Context) error {
	result, runErr := o.provisioner.Run(ctx, o.request)

	if result != nil {
		formatted, err := result.Format(o.output)
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, formatted)
		if o.pipelineOutput {
			result.WritePipelineVariables(os.Stdout)
		}
	}

	if runErr != nil && result != nil && result.Status == provision.StatusPartialSuccess {
		return fmt.Errorf("subscription %s was created but ownership acceptance failed, manual remediation required: %w",
			result.SubscriptionID, runErr)
	}
	return runErr
}
