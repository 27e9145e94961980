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

package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/billing/armbilling"
)

// InvoiceSection is the resolved identity of an invoice section: the
// human-facing display name and the system name used in billing scope paths.
type InvoiceSection struct {
	// Name is the resource name, the segment used in
	// /billingAccounts/{a}/billingProfiles/{p}/invoiceSections/{name}.
	Name string
	// DisplayName is the operator-facing name the section was resolved by.
	DisplayName string
	// ID is the fully qualified ARM resource ID.
	ID string
}

// InvoiceSectionNotFoundError reports that no invoice section under the
// billing profile carries the requested display name. AvailableNames lists
// every display name that was found so operators can correct the input.
type InvoiceSectionNotFoundError struct {
	DisplayName      string
	BillingAccountID string
	BillingProfileID string
	AvailableNames   []string
}

func (e *InvoiceSectionNotFoundError) Error() string {
	return fmt.Sprintf(
		"invoice section %q not found under billing profile %s of account %s, available sections: [%s]",
		e.DisplayName, e.BillingProfileID, e.BillingAccountID, strings.Join(e.AvailableNames, ", "))
}

// SectionResolver resolves invoice section display names against the billing
// hierarchy of an MCA billing account.
type SectionResolver struct {
	client *armbilling.InvoiceSectionsClient
	logger logr.Logger
}

func NewSectionResolver(credential azcore.TokenCredential, options *arm.ClientOptions, logger logr.Logger) (*SectionResolver, error) {
	client, err := armbilling.NewInvoiceSectionsClient(credential, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice sections client: %w", err)
	}
	return &SectionResolver{
		client: client,
		logger: logger,
	}, nil
}

// Resolve lists all invoice sections under the billing profile and returns
// the first one whose display name exactly equals displayName. Additional
// exact matches are logged; first match wins.
func (r *SectionResolver) Resolve(ctx context.Context, billingAccountID, billingProfileID, displayName string) (*InvoiceSection, error) {
	var resolved *InvoiceSection
	var available []string

	pager := r.client.NewListByBillingProfilePager(billingAccountID, billingProfileID, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list invoice sections under billing profile %s: %w", billingProfileID, err)
		}
		for _, section := range page.Value {
			if section == nil || section.Properties == nil || section.Properties.DisplayName == nil {
				continue
			}
			name := *section.Properties.DisplayName
			available = append(available, name)
			if name != displayName {
				continue
			}
			if resolved != nil {
				r.logger.Info("ignoring duplicate invoice section display name",
					"display_name", displayName,
					"used_section", resolved.Name,
					"ignored_section", deref(section.Name))
				continue
			}
			resolved = &InvoiceSection{
				Name:        deref(section.Name),
				DisplayName: name,
				ID:          deref(section.ID),
			}
		}
	}

	if resolved == nil {
		return nil, &InvoiceSectionNotFoundError{
			DisplayName:      displayName,
			BillingAccountID: billingAccountID,
			BillingProfileID: billingProfileID,
			AvailableNames:   available,
		}
	}

	r.logger.Info("resolved invoice section",
		"display_name", resolved.DisplayName,
		"section_name", resolved.Name)
	return resolved, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
