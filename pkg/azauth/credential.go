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

package azauth

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// AuthenticationError indicates a client-credentials token exchange failed
// for a specific tenant. The wrapped error carries the provider's error text.
type AuthenticationError struct {
	TenantID string
	Err      error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("failed to authenticate against tenant %s: %v", e.TenantID, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// TenantCredential is a client-secret credential bound to a single tenant
// together with the token scope it will be exercised against.
type TenantCredential struct {
	tenantID string
	scope    string
	cred     azcore.TokenCredential
}

// NewTenantCredential mints a client-secret credential for the tenant.
// The credential is lazy; no token is requested until Verify or the first
// SDK call using it.
func NewTenantCredential(tenantID, clientID, clientSecret, scope string, clientOptions azcore.ClientOptions) (*TenantCredential, error) {
	cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, &azidentity.ClientSecretCredentialOptions{
		ClientOptions: clientOptions,
	})
	if err != nil {
		return nil, &AuthenticationError{TenantID: tenantID, Err: err}
	}
	return &TenantCredential{
		tenantID: tenantID,
		scope:    scope,
		cred:     cred,
	}, nil
}

// TokenCredential exposes the underlying credential for SDK client construction.
func (c *TenantCredential) TokenCredential() azcore.TokenCredential {
	return c.cred
}

// TenantID returns the tenant this credential authenticates against.
func (c *TenantCredential) TenantID() string {
	return c.tenantID
}

// Verify eagerly requests a token so an invalid secret or tenant fails the
// run before any management-plane call is attempted with this credential.
func (c *TenantCredential) Verify(ctx context.Context) error {
	_, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{c.scope},
	})
	if err != nil {
		return &AuthenticationError{TenantID: c.tenantID, Err: err}
	}
	return nil
}
