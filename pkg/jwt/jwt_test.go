package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/stock-ledger/pkg/jwt"
)

func TestGenerateParse_IdaYVuelta(t *testing.T) {
	tok, err := pkgjwt.Generate("s3cret", "actor-1", "tenant-1", "bodeguero", "test", 5)
	require.NoError(t, err)

	id, err := pkgjwt.Parse("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, pkgjwt.Identity{ActorID: "actor-1", TenantID: "tenant-1", Role: "bodeguero"}, id)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	tok, err := pkgjwt.Generate("s3cret", "actor-1", "tenant-1", "admin", "test", 5)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro", tok)
	assert.Error(t, err)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := pkgjwt.Generate("s3cret", "actor-1", "tenant-1", "admin", "test", -1)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("s3cret", tok)
	assert.Error(t, err)
}

func TestParse_SinTenantEsInvalido(t *testing.T) {
	tok, err := pkgjwt.Generate("s3cret", "actor-1", "", "admin", "test", 5)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("s3cret", tok)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", "a", "t", "admin", "test", 5)
	assert.Error(t, err)
}
