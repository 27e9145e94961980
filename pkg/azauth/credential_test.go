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
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTenantID = "00000000-0000-0000-0000-000000000001"

// tokenEndpointTransport answers the identity provider's discovery and token
// endpoints without touching the network.
type tokenEndpointTransport struct {
	tokenStatus int
	tokenBody   string
	tokenCalls  int
}

func (t *tokenEndpointTransport) Do(req *http.Request) (*http.Response, error) {
	var status int
	var body string
	if strings.Contains(req.URL.Path, ".well-known/openid-configuration") {
		status = http.StatusOK
		authority := fmt.Sprintf("https://login.microsoftonline.com/%s", testTenantID)
		body = fmt.Sprintf(`{
			"token_endpoint": "%[1]s/oauth2/v2.0/token",
			"authorization_endpoint": "%[1]s/oauth2/v2.0/authorize",
			"issuer": "%[1]s/v2.0"
		}`, authority)
	} else {
		t.tokenCalls++
		status = t.tokenStatus
		body = t.tokenBody
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}, nil
}

func TestVerifySucceeds(t *testing.T) {
	transport := &tokenEndpointTransport{
		tokenStatus: http.StatusOK,
		tokenBody:   `{"token_type": "Bearer", "expires_in": 3600, "access_token": "test-token"}`,
	}
	cred, err := NewTenantCredential(testTenantID, "client-id", "client-secret", "https://management.core.windows.net/.default", azcore.ClientOptions{
		Transport: transport,
	})
	require.NoError(t, err)

	require.NoError(t, cred.Verify(t.Context()))
	assert.Equal(t, 1, transport.tokenCalls)
	assert.Equal(t, testTenantID, cred.TenantID())
}

func TestVerifyReturnsAuthenticationError(t *testing.T) {
	transport := &tokenEndpointTransport{
		tokenStatus: http.StatusUnauthorized,
		tokenBody:   `{"error": "invalid_client", "error_description": "AADSTS7000215: Invalid client secret provided."}`,
	}
	cred, err := NewTenantCredential(testTenantID, "client-id", "bad-secret", "https://management.core.windows.net/.default", azcore.ClientOptions{
		Transport: transport,
	})
	require.NoError(t, err)

	err = cred.Verify(t.Context())
	require.Error(t, err)

	var authErr *AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, testTenantID, authErr.TenantID)
	assert.Contains(t, err.Error(), testTenantID)
	assert.Contains(t, err.Error(), "AADSTS7000215")
}

func TestNewTenantCredentialRejectsEmptyTenant(t *testing.T) {
	_, err := NewTenantCredential("", "client-id", "client-secret", "scope", azcore.ClientOptions{})
	require.Error(t, err)

	var authErr *AuthenticationError
	assert.True(t, errors.As(err, &authErr))
}
