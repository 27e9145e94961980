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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"sigs.k8s.io/yaml"
)

// OutputFormat represents the supported result output formats.
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// ValidateOutputFormat validates and returns the output format.
func ValidateOutputFormat(format string) (OutputFormat, error) {
	switch OutputFormat(format) {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return OutputFormat(format), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (supported: %v)", format, []OutputFormat{OutputFormatTable, OutputFormatJSON, OutputFormatYAML})
	}
}

// Result is the terminal record of a provisioning run, handed to the caller
// and, when requested, to the calling pipeline as output variables.
type Result struct {
	SubscriptionID      string `json:"subscriptionId"`
	SubscriptionName    string `json:"subscriptionName"`
	Status              Status `json:"status"`
	Workload            string `json:"workload"`
	SourceTenantID      string `json:"sourceTenantId"`
	DestinationTenantID string `json:"destinationTenantId"`
	BillingAccountID    string `json:"billingAccountId"`
	BillingProfileID    string `json:"billingProfileId"`
	InvoiceSectionName  string `json:"invoiceSectionName"`
	InvoiceSectionID    string `json:"invoiceSectionId,omitempty"`
	AliasName           string `json:"aliasName,omitempty"`
}

// Format renders the result in the given output format.
func (r *Result) Format(format OutputFormat) (string, error) {
	switch format {
	case OutputFormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal result to JSON: %w", err)
		}
		return string(data) + "\n", nil
	case OutputFormatYAML:
		data, err := yaml.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("failed to marshal result to YAML: %w", err)
		}
		return string(data), nil
	case OutputFormatTable:
		return r.formatTable(), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

func (r *Result) formatTable() string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Subscription ID:\t%s\n", r.SubscriptionID)
	fmt.Fprintf(w, "Subscription Name:\t%s\n", r.SubscriptionName)
	fmt.Fprintf(w, "Status:\t%s\n", r.Status)
	fmt.Fprintf(w, "Workload:\t%s\n", r.Workload)
	fmt.Fprintf(w, "Source Tenant:\t%s\n", r.SourceTenantID)
	fmt.Fprintf(w, "Destination Tenant:\t%s\n", r.DestinationTenantID)
	fmt.Fprintf(w, "Billing Account:\t%s\n", r.BillingAccountID)
	fmt.Fprintf(w, "Billing Profile:\t%s\n", r.BillingProfileID)
	fmt.Fprintf(w, "Invoice Section:\t%s (%s)\n", r.InvoiceSectionName, r.InvoiceSectionID)
	fmt.Fprintf(w, "Alias Name:\t%s\n", r.AliasName)
	_ = w.Flush()
	return buf.String()
}

// WritePipelineVariables emits the result as Azure DevOps task output
// variables for downstream pipeline stages.
func (r *Result) WritePipelineVariables(w io.Writer) {
	fmt.Fprintf(w, "##vso[task.setvariable variable=CreatedSubscriptionId;isoutput=true]%s\n", r.SubscriptionID)
	fmt.Fprintf(w, "##vso[task.setvariable variable=CreatedSubscriptionName;isoutput=true]%s\n", r.SubscriptionName)
	fmt.Fprintf(w, "##vso[task.setvariable variable=CreatedSubscriptionStatus;isoutput=true]%s\n", r.Status)
}
