// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package azureopenai

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// CognitiveServicesScope is the Entra ID scope for Azure OpenAI data-plane calls.
const CognitiveServicesScope = "https://cognitiveservices.azure.com/.default"

// TokenProvider supplies bearer tokens for Entra ID authentication.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a pre-issued Entra token (e.g. from `az account get-access-token`).
type StaticToken string

// Token returns the token as-is.
func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("static token is empty")
	}
	return string(s), nil
}

// CredentialProvider adapts an azcore.TokenCredential to TokenProvider.
// The underlying credential handles caching and refresh.
type CredentialProvider struct {
	cred   azcore.TokenCredential
	scopes []string
}

// NewCredentialProvider wraps cred for the given scopes (default: CognitiveServicesScope).
func NewCredentialProvider(cred azcore.TokenCredential, scopes ...string) *CredentialProvider {
	if len(scopes) == 0 {
		scopes = []string{CognitiveServicesScope}
	}
	return &CredentialProvider{cred: cred, scopes: scopes}
}

// NewDefaultCredentialProvider builds a provider on top of DefaultAzureCredential
// (environment, workload identity, managed identity, Azure CLI, ...).
func NewDefaultCredentialProvider() (*CredentialProvider, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create default Azure credential: %w", err)
	}
	return NewCredentialProvider(cred), nil
}

// Token fetches a bearer token for the configured scopes.
func (p *CredentialProvider) Token(ctx context.Context) (string, error) {
	tok, err := p.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: p.scopes})
	if err != nil {
		return "", err
	}
	return tok.Token, nil
}
