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

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/subscription/armsubscription"
)

// OwnershipAcceptanceError indicates the acceptOwnership action failed. The
// subscription already exists and is billing-active in the source tenant, so
// callers must treat this as partial success requiring manual remediation,
// not as a from-scratch failure.
type OwnershipAcceptanceError struct {
	SubscriptionID string
	Err            error
}

func (e *OwnershipAcceptanceError) Error() string {
	return fmt.Sprintf("failed to accept ownership of subscription %s: %v", e.SubscriptionID, e.Err)
}

func (e *OwnershipAcceptanceError) Unwrap() error {
	return e.Err
}

// OwnershipAccepter accepts subscription ownership using a destination-tenant
// credential.
type OwnershipAccepter struct {
	client *armsubscription.Client
	logger logr.Logger
}

func NewOwnershipAccepter(credential azcore.TokenCredential, options *arm.ClientOptions, logger logr.Logger) (*OwnershipAccepter, error) {
	client, err := armsubscription.NewClient(credential, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription client: %w", err)
	}
	return &OwnershipAccepter{
		client: client,
		logger: logger,
	}, nil
}

// Accept associates the subscription with the destination tenant as its
// administrative home and waits for the operation to finish. The management
// group stays unset.
func (a *OwnershipAccepter) Accept(ctx context.Context, subscriptionID, displayName string) error {
	a.logger.Info("accepting subscription ownership",
		"subscription_id", subscriptionID,
		"display_name", displayName)

	body := armsubscription.AcceptOwnershipRequest{
		Properties: &armsubscription.AcceptOwnershipRequestProperties{
			DisplayName: to.Ptr(displayName),
		},
	}
	poller, err := a.client.BeginAcceptOwnership(ctx, subscriptionID, body, nil)
	if err != nil {
		return &OwnershipAcceptanceError{SubscriptionID: subscriptionID, Err: err}
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return &OwnershipAcceptanceError{SubscriptionID: subscriptionID, Err: err}
	}

	a.logger.Info("subscription ownership accepted", "subscription_id", subscriptionID)
	return nil
}
