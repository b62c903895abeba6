package auth_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/auth"
)

func TestHashAndVerifyAPIKey(t *testing.T) {
	hash, err := auth.HashAPIKey("test-key-123")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	valid, err := auth.VerifyAPIKey("test-key-123", hash)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = auth.VerifyAPIKey("wrong-key", hash)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifyAPIKeyMalformedHash(t *testing.T) {
	_, err := auth.VerifyAPIKey("key", "not-a-valid-hash")
	assert.Error(t, err)
}

func TestJWTIssueAndVerify(t *testing.T) {
	mgr, err := auth.NewJWTManager("", "", 1*time.Hour)
	require.NoError(t, err)

	token, expiresAt, err := mgr.IssueToken("officer")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := mgr.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "officer", claims.Subject)
}

func TestJWTExpiredToken(t *testing.T) {
	mgr, err := auth.NewJWTManager("", "", -1*time.Minute)
	require.NoError(t, err)

	token, _, err := mgr.IssueToken("officer")
	require.NoError(t, err)

	_, err = mgr.VerifyToken(token)
	assert.Error(t, err)
}

func TestJWTRejectsForeignKey(t *testing.T) {
	mgr1, err := auth.NewJWTManager("", "", 1*time.Hour)
	require.NoError(t, err)
	mgr2, err := auth.NewJWTManager("", "", 1*time.Hour)
	require.NoError(t, err)

	token, _, err := mgr1.IssueToken("officer")
	require.NoError(t, err)

	_, err = mgr2.VerifyToken(token)
	assert.Error(t, err)
}

func TestJWTFromPEMFiles(t *testing.T) {
	dir := t.TempDir()
	privPath := filepath.Join(dir, "jwt.key")
	pubPath := filepath.Join(dir, "jwt.pub")
	writeKeyPair(t, privPath, pubPath)

	mgr, err := auth.NewJWTManager(privPath, pubPath, 1*time.Hour)
	require.NoError(t, err)

	token, _, err := mgr.IssueToken("officer")
	require.NoError(t, err)

	claims, err := mgr.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "officer", claims.Subject)
}

func TestJWTMismatchedKeyPair(t *testing.T) {
	dir := t.TempDir()
	privPath := filepath.Join(dir, "jwt.key")
	pubPath := filepath.Join(dir, "jwt.pub")
	writeKeyPair(t, privPath, pubPath)

	// Overwrite the public key with one from a different pair.
	otherPub := filepath.Join(dir, "other.pub")
	writeKeyPair(t, filepath.Join(dir, "other.key"), otherPub)

	_, err := auth.NewJWTManager(privPath, otherPub, 1*time.Hour)
	assert.Error(t, err)
}

func writeKeyPair(t *testing.T, privPath, pubPath string) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0o600))

	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0o644))
}
