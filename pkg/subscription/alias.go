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

package subscription

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/subscription/armsubscription"
)

// AliasCreationError indicates the alias PUT failed or did not reach a usable
// terminal state. The wrapped error preserves the provider payload
// (azcore.ResponseError) for operator diagnosis. This failure is terminal for
// the whole run: no subscription exists to accept ownership of.
type AliasCreationError struct {
	AliasName string
	Err       error
}

func (e *AliasCreationError) Error() string {
	return fmt.Sprintf("failed to create subscription alias %s: %v", e.AliasName, e.Err)
}

func (e *AliasCreationError) Unwrap() error {
	return e.Err
}

// AliasSpec describes the subscription to create under a billing scope in the
// source tenant, owned by a service principal in the destination tenant.
type AliasSpec struct {
	DisplayName string
	Workload    armsubscription.Workload
	// BillingScope attributes the subscription's costs, composed as
	// /billingAccounts/{account}/billingProfiles/{profile}/invoiceSections/{section}.
	BillingScope string
	// DestinationTenantID pins subscriptionTenantId so the subscription is
	// created homed in the destination tenant.
	DestinationTenantID string
	// OwnerObjectID is the destination service principal that must accept
	// ownership before the subscription becomes usable.
	OwnerObjectID string
}

// Alias is the outcome of alias creation. SubscriptionID is server-assigned
// and is the join key for the ownership acceptance phase.
type Alias struct {
	Name              string
	SubscriptionID    string
	ProvisioningState string
}

// BillingScope composes the billing scope path for an MCA invoice section.
func BillingScope(billingAccountID, billingProfileID, invoiceSectionName string) string {
	return fmt.Sprintf("/billingAccounts/%s/billingProfiles/%s/invoiceSections/%s",
		billingAccountID, billingProfileID, invoiceSectionName)
}

// AliasCreator creates subscription aliases using a source-tenant credential.
type AliasCreator struct {
	client *armsubscription.AliasClient
	logger logr.Logger

	// newAliasName generates the alias resource name, overridable in tests.
	newAliasName func() string
}

func NewAliasCreator(credential azcore.TokenCredential, options *arm.ClientOptions, logger logr.Logger) (*AliasCreator, error) {
	client, err := armsubscription.NewAliasClient(credential, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription alias client: %w", err)
	}
	return &AliasCreator{
		client:       client,
		logger:       logger,
		newAliasName: uuid.NewString,
	}, nil
}

// Create puts a subscription alias under a fresh random name and waits for
// the operation to reach a terminal state. The alias name is only the
// resource name within the alias namespace, not the subscription ID.
func (c *AliasCreator) Create(ctx context.Context, spec AliasSpec) (*Alias, error) {
	aliasName := c.newAliasName()
	c.logger.Info("creating subscription alias",
		"alias_name", aliasName,
		"display_name", spec.DisplayName,
		"workload", string(spec.Workload),
		"billing_scope", spec.BillingScope,
		"subscription_tenant_id", spec.DestinationTenantID)

	body := armsubscription.PutAliasRequest{
		Properties: &armsubscription.PutAliasRequestProperties{
			DisplayName:  to.Ptr(spec.DisplayName),
			Workload:     to.Ptr(spec.Workload),
			BillingScope: to.Ptr(spec.BillingScope),
			// SubscriptionID stays nil: the server assigns it.
			AdditionalProperties: &armsubscription.PutAliasRequestAdditionalProperties{
				SubscriptionTenantID: to.Ptr(spec.DestinationTenantID),
				SubscriptionOwnerID:  to.Ptr(spec.OwnerObjectID),
				// ManagementGroupID stays nil: the subscription is not placed
				// in a management group at creation time.
			},
		},
	}

	poller, err := c.client.BeginCreate(ctx, aliasName, body, nil)
	if err != nil {
		return nil, &AliasCreationError{AliasName: aliasName, Err: err}
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, &AliasCreationError{AliasName: aliasName, Err: err}
	}

	alias := &Alias{Name: aliasName}
	if props := resp.Properties; props != nil {
		if props.SubscriptionID != nil {
			alias.SubscriptionID = *props.SubscriptionID
		}
		if props.ProvisioningState != nil {
			alias.ProvisioningState = string(*props.ProvisioningState)
		}
	}
	if alias.SubscriptionID == "" {
		// Ownership acceptance must never run without a subscription ID.
		return nil, &AliasCreationError{
			AliasName: aliasName,
			Err:       fmt.Errorf("alias reached state %q without a subscription ID", alias.ProvisioningState),
		}
	}

	c.logger.Info("subscription alias created",
		"alias_name", alias.Name,
		"subscription_id", alias.SubscriptionID,
		"provisioning_state", alias.ProvisioningState)
	return alias, nil
}
