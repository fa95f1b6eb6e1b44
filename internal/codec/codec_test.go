package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFolder(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"myRepo", "my-repo"},
		{"my-repo", "my-repo"},
		{"MyApp", "my-app"},
		{"repo A", "repo-a"},
		{"backend_api", "backend_api"},
		{"weird!!name", "weird--name"},
		{"already-normal-123", "already-normal-123"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeFolder(tt.raw))
		})
	}
}

func TestNormalizeFolderIdempotent(t *testing.T) {
	inputs := []string{"myRepo", "Some Repo!", "a_bC-d", "ALLCAPS", "répo"}
	for _, in := range inputs {
		once := NormalizeFolder(in)
		assert.Equal(t, once, NormalizeFolder(once), "normalize should be idempotent for %q", in)
	}
}

func TestMakeSecretName(t *testing.T) {
	assert.Equal(t, "my-repo_API_KEY", MakeSecretName("my-repo", "API_KEY", ""))
	assert.Equal(t, "my-repo_prod_API_KEY", MakeSecretName("my-repo", "API_KEY", "prod"))
}

func TestDecodeSecretName(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		folder   string
		wantKey  string
		wantEnv  string
	}{
		{"with environment", "my-repo_prod_API_KEY", "my-repo", "API_KEY", "prod"},
		{"no environment", "my-repo_API_KEY", "my-repo", "API_KEY", ""},
		{"legacy without folder prefix", "SOMETHING_ELSE", "my-repo", "SOMETHING_ELSE", ""},
		{"multi-underscore key", "my-repo_dev_DB_URL", "my-repo", "DB_URL", "dev"},
		{"single segment after folder", "my-repo_TOKEN", "my-repo", "TOKEN", ""},
		// Ambiguous case: a key whose first segment is lowercase letters
		// decodes as an environment. Documented, labels take precedence.
		{"ambiguous lowercase key segment", "my-repo_dev_MODE", "my-repo", "MODE", "dev"},
		{"digit segment is not an environment", "my-repo_v2_KEY", "my-repo", "v2_KEY", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, env := DecodeSecretName(tt.fullName, tt.folder)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantEnv, env)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		folder, key, env string
	}{
		{"my-repo", "API_KEY", "prod"},
		{"my-repo", "API_KEY", ""},
		{"svc", "DB_CONNECTION_URL", "staging"},
	}
	for _, c := range cases {
		key, env := DecodeSecretName(MakeSecretName(c.folder, c.key, c.env), c.folder)
		assert.Equal(t, c.key, key)
		assert.Equal(t, c.env, env)
	}
}

func TestKeyFromName(t *testing.T) {
	assert.Equal(t, "API_KEY", KeyFromName("my-repo_prod_API_KEY", "my-repo", "prod"))
	assert.Equal(t, "API_KEY", KeyFromName("my-repo_API_KEY", "my-repo", ""))
	// A known environment resolves the case the heuristic gets wrong:
	// without one, "dev_MODE" is the whole key.
	assert.Equal(t, "dev_MODE", KeyFromName("my-repo_dev_MODE", "my-repo", ""))
	// Unexpected prefix falls back to heuristic decoding.
	assert.Equal(t, "LEGACY", KeyFromName("LEGACY", "my-repo", "prod"))
}

func TestGroupKey(t *testing.T) {
	assert.Equal(t, "my-repo|prod", GroupKey("my-repo", "prod"))
	assert.Equal(t, "my-repo|", GroupKey("my-repo", ""))
}
