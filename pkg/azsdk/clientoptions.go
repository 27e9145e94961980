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

package azsdk

import (
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	"github.com/Azure/mca-subscription-provisioner/pkg/version"
)

// NewClientOptions returns azcore.ClientOptions for the given cloud with
// Telemetry.ApplicationID identifying subprov and its version.
// The ApplicationID follows the format: subprov/<commitSHA> truncating to 24
// characters as per the Azure SDK guidelines.
func NewClientOptions(cloudCfg cloud.Configuration) azcore.ClientOptions {
	return azcore.ClientOptions{
		Cloud: cloudCfg,
		Telemetry: policy.TelemetryOptions{
			ApplicationID: firstN(fmt.Sprintf("subprov/%s", version.CommitSHA), 24),
		},
	}
}

// CloudConfiguration maps a cloud name to its azcore configuration.
// Supported names: public, government, china.
func CloudConfiguration(name string) (cloud.Configuration, error) {
	switch name {
	case "public":
		return cloud.AzurePublic, nil
	case "government":
		return cloud.AzureGovernment, nil
	case "china":
		return cloud.AzureChina, nil
	default:
		return cloud.Configuration{}, fmt.Errorf("unsupported cloud %q (supported: public, government, china)", name)
	}
}

// ARMScope returns the token scope for the cloud's resource manager audience.
func ARMScope(cloudCfg cloud.Configuration) string {
	return strings.TrimSuffix(cloudCfg.Services[cloud.ResourceManager].Audience, "/") + "/.default"
}

func firstN(str string, n int) string {
	v := []rune(str)
	if n >= len(v) {
		return str
	}

	return string(v[:n])
}
