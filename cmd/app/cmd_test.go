// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_gatherCredentials_precedence(t *testing.T) {
	tests := []struct {
		name string
		o    *Options
		want map[string]string
	}{
		{
			name: "empty_options_yield_no_credentials",
			o:    &Options{},
			want: map[string]string{},
		},
		{
			name: "config_file_credentials_are_kept",
			o: &Options{
				Credentials: []Credential{{Host: "git.example.com", OAuthToken: "from-config"}},
			},
			want: map[string]string{"git.example.com": "from-config"},
		},
		{
			name: "token_map_overrides_config_file",
			o: &Options{
				Credentials:   []Credential{{Host: "git.example.com", OAuthToken: "from-config"}},
				GhOAuthTokens: map[string]string{"git.example.com": "from-map"},
			},
			want: map[string]string{"git.example.com": "from-map"},
		},
		{
			name: "single_token_overrides_both_and_targets_github_com",
			o: &Options{
				Credentials:   []Credential{{Host: "github.com", OAuthToken: "from-config"}},
				GhOAuthTokens: map[string]string{"github.com": "from-map"},
				GhOAuthToken:  "from-flag",
			},
			want: map[string]string{"github.com": "from-flag"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.o.gatherCredentials()
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_NewCommand_registersSubcommands(t *testing.T) {
	cmd := NewCommand(context.Background())
	assert.Equal(t, "nimbusc", cmd.Use)

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["version"])
	assert.True(t, names["completion"])
}

func Test_NewCommand_requiresManifestFlag(t *testing.T) {
	cmd := NewCommand(context.Background())
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	assert.Error(t, err)
}
