package paystack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"ref_1"}}`)
	valid := ComputeSignature("sk_test", body)

	assert.Len(t, valid, 128)
	assert.NoError(t, VerifySignature("sk_test", body, valid))
	assert.NoError(t, VerifySignature("sk_test", body, strings.ToUpper(valid)))
	assert.ErrorIs(t, VerifySignature("sk_test", body, ""), ErrMissingSignature)
	assert.ErrorIs(t, VerifySignature("sk_other", body, valid), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("sk_test", append(body, ' '), valid), ErrInvalidSignature)
}
