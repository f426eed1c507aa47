package apikey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	key, err := GenerateAPIKey("p1", "k1", "secret")
	require.NoError(t, err)

	payload, err := ParseAndVerifyAPIKey(key, "secret")
	require.NoError(t, err)
	assert.Equal(t, "p1", payload.ProjectID)
	assert.Equal(t, "k1", payload.ApiKeyID)

	decoded, err := DecodeAPIKeyPayload(key)
	require.NoError(t, err)
	assert.Equal(t, payload.IssuedAt, decoded.IssuedAt)
}

func TestVerifyRejectsWrongSecretOrFormat(t *testing.T) {
	key, err := GenerateAPIKey("p1", "k1", "secret")
	require.NoError(t, err)

	_, err = ParseAndVerifyAPIKey(key, "other")
	assert.Error(t, err)
	_, err = ParseAndVerifyAPIKey("no-dot", "secret")
	assert.Error(t, err)
	_, err = GenerateAPIKey("p1", "k1", "")
	assert.Error(t, err)
}

func TestMask(t *testing.T) {
	masked := Mask("abcdefghijklmnopqrstuvwxyz")
	assert.True(t, strings.HasPrefix(masked, "abcdef"))
	assert.True(t, strings.HasSuffix(masked, "wxyz"))
	assert.Len(t, masked, 26)
	assert.Equal(t, "*****", Mask("short"))
}
