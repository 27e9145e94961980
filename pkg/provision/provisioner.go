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
	"time"

	"github.com/go-logr/logr"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/subscription/armsubscription"

	"github.com/Azure/mca-subscription-provisioner/pkg/billing"
	"github.com/Azure/mca-subscription-provisioner/pkg/subscription"
)

// Status is the terminal outcome of a provisioning run.
type Status string

const (
	// StatusSucceeded means the subscription was created and its ownership
	// accepted in the destination tenant.
	StatusSucceeded Status = "Succeeded"
	// StatusPartialSuccess means the subscription exists and is
	// billing-active in the source tenant, but ownership acceptance in the
	// destination tenant did not complete. Manual remediation is required;
	// re-running from scratch would create a second subscription.
	StatusPartialSuccess Status = "PartialSuccess"
	// StatusFailed means no subscription was created.
	StatusFailed Status = "Failed"
)

// Request is the validated, immutable input of a provisioning run.
type Request struct {
	SubscriptionName    string
	Workload            armsubscription.Workload
	SourceTenantID      string
	DestinationTenantID string
	OwnerObjectID       string
	BillingAccountID    string
	BillingProfileID    string
	InvoiceSectionName  string
}

// TokenVerifier eagerly exchanges credentials for a token so authentication
// problems surface before management-plane calls.
type TokenVerifier interface {
	Verify(ctx context.Context) error
}

// SectionResolver resolves an invoice section display name under a billing
// profile.
type SectionResolver interface {
	Resolve(ctx context.Context, billingAccountID, billingProfileID, displayName string) (*billing.InvoiceSection, error)
}

// AliasCreator creates the subscription alias that triggers subscription
// creation.
type AliasCreator interface {
	Create(ctx context.Context, spec subscription.AliasSpec) (*subscription.Alias, error)
}

// OwnershipAccepter accepts ownership of the created subscription in the
// destination tenant.
type OwnershipAccepter interface {
	Accept(ctx context.Context, subscriptionID, displayName string) error
}

// Provisioner runs the two-phase cross-tenant provisioning workflow. Every
// step depends on the previous one; there is exactly one in-flight call at
// any moment.
type Provisioner struct {
	SourceToken      TokenVerifier
	DestinationToken TokenVerifier
	Sections         SectionResolver
	Aliases          AliasCreator
	Ownership        OwnershipAccepter

	// StepTimeout bounds each outbound step, including LRO polling.
	StepTimeout time.Duration
	Logger      logr.Logger
}

// Run executes the workflow and always returns a Result carrying the
// terminal status. A non-nil error accompanies every status other than
// Succeeded; on PartialSuccess the Result still carries the subscription ID
// so callers can remediate instead of starting over.
func (p *Provisioner) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{
		SubscriptionName:    req.SubscriptionName,
		Workload:            string(req.Workload),
		Status:              StatusFailed,
		SourceTenantID:      req.SourceTenantID,
		DestinationTenantID: req.DestinationTenantID,
		BillingAccountID:    req.BillingAccountID,
		BillingProfileID:    req.BillingProfileID,
		InvoiceSectionName:  req.InvoiceSectionName,
	}

	p.Logger.Info("acquiring source tenant token", "tenant_id", req.SourceTenantID)
	if err := p.step(ctx, p.SourceToken.Verify); err != nil {
		return result, err
	}

	p.Logger.Info("resolving invoice section",
		"billing_account_id", req.BillingAccountID,
		"billing_profile_id", req.BillingProfileID,
		"invoice_section_name", req.InvoiceSectionName)
	var section *billing.InvoiceSection
	if err := p.step(ctx, func(ctx context.Context) error {
		var err error
		section, err = p.Sections.Resolve(ctx, req.BillingAccountID, req.BillingProfileID, req.InvoiceSectionName)
		return err
	}); err != nil {
		return result, err
	}
	result.InvoiceSectionID = section.Name

	var alias *subscription.Alias
	if err := p.step(ctx, func(ctx context.Context) error {
		var err error
		alias, err = p.Aliases.Create(ctx, subscription.AliasSpec{
			DisplayName:         req.SubscriptionName,
			Workload:            req.Workload,
			BillingScope:        subscription.BillingScope(req.BillingAccountID, req.BillingProfileID, section.Name),
			DestinationTenantID: req.DestinationTenantID,
			OwnerObjectID:       req.OwnerObjectID,
		})
		return err
	}); err != nil {
		return result, err
	}
	result.AliasName = alias.Name
	result.SubscriptionID = alias.SubscriptionID

	// The subscription exists from here on. Any further failure leaves it
	// created but unowned, so the status downgrades to PartialSuccess
	// instead of Failed.
	result.Status = StatusPartialSuccess

	p.Logger.Info("acquiring destination tenant token", "tenant_id", req.DestinationTenantID)
	if err := p.step(ctx, p.DestinationToken.Verify); err != nil {
		return result, err
	}

	if err := p.step(ctx, func(ctx context.Context) error {
		return p.Ownership.Accept(ctx, alias.SubscriptionID, req.SubscriptionName)
	}); err != nil {
		return result, err
	}

	result.Status = StatusSucceeded
	p.Logger.Info("provisioning complete",
		"subscription_id", result.SubscriptionID,
		"subscription_name", result.SubscriptionName,
		"status", string(result.Status))
	return result, nil
}

func (p *Provisioner) step(ctx context.Context, fn func(context.Context) error) error {
	if p.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.StepTimeout)
		defer cancel()
	}
	return fn(ctx)
}
