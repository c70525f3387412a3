package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	assert.Equal(t, CodecName, c.Name())
}

func TestCodec_UsesContractFieldNames(t *testing.T) {
	c := jsonCodec{}

	raw, err := c.Marshal(&LoginRequest{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@x.com","password":"secret123"}`, string(raw))

	var s SessionResponse
	require.NoError(t, c.Unmarshal([]byte(`{"access_token":"t","user":{"id":"1","email":"a@x.com"}}`), &s))
	assert.Equal(t, SessionResponse{AccessToken: "t", User: UserRef{ID: "1", Email: "a@x.com"}}, s)
}

func TestFullMethod(t *testing.T) {
	assert.Equal(t, "/gophauth.AuthService/Login", FullMethod(MethodLogin))
	assert.Len(t, AuthServiceDesc.Methods, 11)
}
