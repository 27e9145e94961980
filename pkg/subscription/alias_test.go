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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/subscription/armsubscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSubscriptionID = "11111111-1111-1111-1111-111111111111"

type fakeCredential struct{}

func (fakeCredential) GetToken(ctx context.Context, options policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "fake-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

// recordingTransport captures requests and replays a canned response.
type recordingTransport struct {
	status   int
	body     func(req *http.Request) string
	requests []*http.Request
	bodies   []string
}

func (t *recordingTransport) Do(req *http.Request) (*http.Response, error) {
	t.requests = append(t.requests, req)
	var reqBody string
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		reqBody = string(data)
	}
	t.bodies = append(t.bodies, reqBody)
	return &http.Response{
		StatusCode: t.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(t.body(req))),
		Request:    req,
	}, nil
}

func aliasResponseBody(subscriptionID string) func(req *http.Request) string {
	return func(req *http.Request) string {
		segments := strings.Split(strings.TrimSuffix(req.URL.Path, "/"), "/")
		aliasName := segments[len(segments)-1]
		subscriptionField := ""
		if subscriptionID != "" {
			subscriptionField = fmt.Sprintf(`"subscriptionId": "%s",`, subscriptionID)
		}
		return fmt.Sprintf(`{
			"id": "/providers/Microsoft.Subscription/aliases/%[1]s",
			"name": "%[1]s",
			"type": "Microsoft.Subscription/aliases",
			"properties": {%[2]s "provisioningState": "Succeeded"}
		}`, aliasName, subscriptionField)
	}
}

func newTestAliasCreator(t *testing.T, transport *recordingTransport) *AliasCreator {
	t.Helper()
	creator, err := NewAliasCreator(fakeCredential{}, &arm.ClientOptions{
		ClientOptions: azcore.ClientOptions{Transport: transport},
	}, testr.New(t))
	require.NoError(t, err)
	return creator
}

func testAliasSpec() AliasSpec {
	return AliasSpec{
		DisplayName:         "payments-prod",
		Workload:            armsubscription.WorkloadProduction,
		BillingScope:        BillingScope("acct1", "prof1", "sec1"),
		DestinationTenantID: "22222222-2222-2222-2222-222222222222",
		OwnerObjectID:       "33333333-3333-3333-3333-333333333333",
	}
}

func TestBillingScope(t *testing.T) {
	scope := BillingScope("acct1", "prof1", "sec1")
	assert.Equal(t, "/billingAccounts/acct1/billingProfiles/prof1/invoiceSections/sec1", scope)
}

func TestCreateAlias(t *testing.T) {
	transport := &recordingTransport{
		status: http.StatusOK,
		body:   aliasResponseBody(testSubscriptionID),
	}
	creator := newTestAliasCreator(t, transport)
	creator.newAliasName = func() string { return "test-alias" }

	alias, err := creator.Create(t.Context(), testAliasSpec())
	require.NoError(t, err)
	assert.Equal(t, "test-alias", alias.Name)
	assert.Equal(t, testSubscriptionID, alias.SubscriptionID)
	assert.Equal(t, "Succeeded", alias.ProvisioningState)

	require.Len(t, transport.requests, 1)
	req := transport.requests[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Contains(t, req.URL.Path, "/providers/Microsoft.Subscription/aliases/test-alias")
}

func TestCreateAliasRequestBody(t *testing.T) {
	transport := &recordingTransport{
		status: http.StatusOK,
		body:   aliasResponseBody(testSubscriptionID),
	}
	creator := newTestAliasCreator(t, transport)

	_, err := creator.Create(t.Context(), testAliasSpec())
	require.NoError(t, err)

	require.Len(t, transport.bodies, 1)
	var body struct {
		Properties struct {
			DisplayName          string  `json:"displayName"`
			Workload             string  `json:"workload"`
			BillingScope         string  `json:"billingScope"`
			SubscriptionID       *string `json:"subscriptionId"`
			AdditionalProperties struct {
				SubscriptionTenantID string  `json:"subscriptionTenantId"`
				SubscriptionOwnerID  string  `json:"subscriptionOwnerId"`
				ManagementGroupID    *string `json:"managementGroupId"`
			} `json:"additionalProperties"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal([]byte(transport.bodies[0]), &body))

	assert.Equal(t, "payments-prod", body.Properties.DisplayName)
	assert.Equal(t, "Production", body.Properties.Workload)
	assert.Equal(t, "/billingAccounts/acct1/billingProfiles/prof1/invoiceSections/sec1", body.Properties.BillingScope)
	assert.Nil(t, body.Properties.SubscriptionID)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", body.Properties.AdditionalProperties.SubscriptionTenantID)
	assert.Equal(t, "33333333-3333-3333-3333-333333333333", body.Properties.AdditionalProperties.SubscriptionOwnerID)
	assert.Nil(t, body.Properties.AdditionalProperties.ManagementGroupID)
}

func TestCreateAliasGeneratesUniqueNames(t *testing.T) {
	transport := &recordingTransport{
		status: http.StatusOK,
		body:   aliasResponseBody(testSubscriptionID),
	}
	creator := newTestAliasCreator(t, transport)

	first, err := creator.Create(t.Context(), testAliasSpec())
	require.NoError(t, err)
	second, err := creator.Create(t.Context(), testAliasSpec())
	require.NoError(t, err)

	assert.NotEqual(t, first.Name, second.Name)
	assert.NotEqual(t, first.Name, first.SubscriptionID, "alias name is not the subscription ID")
}

func TestCreateAliasFailurePreservesProviderError(t *testing.T) {
	transport := &recordingTransport{
		status: http.StatusForbidden,
		body: func(*http.Request) string {
			return `{"error": {"code": "AuthorizationFailed", "message": "The client does not have authorization to perform action."}}`
		},
	}
	creator := newTestAliasCreator(t, transport)

	_, err := creator.Create(t.Context(), testAliasSpec())
	require.Error(t, err)

	var creationErr *AliasCreationError
	require.True(t, errors.As(err, &creationErr))

	var respErr *azcore.ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusForbidden, respErr.StatusCode)
	assert.Contains(t, err.Error(), "AuthorizationFailed")
}

func TestCreateAliasWithoutSubscriptionIDFails(t *testing.T) {
	transport := &recordingTransport{
		status: http.StatusOK,
		body:   aliasResponseBody(""),
	}
	creator := newTestAliasCreator(t, transport)

	_, err := creator.Create(t.Context(), testAliasSpec())
	require.Error(t, err)

	var creationErr *AliasCreationError
	require.True(t, errors.As(err, &creationErr))
	assert.Contains(t, err.Error(), "without a subscription ID")
}
