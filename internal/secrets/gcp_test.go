package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeAccessor struct {
	value string
	err   error
	calls int
}

func (f *fakeAccessor) GetSecret(context.Context, string) (string, error) {
	f.calls++
	return f.value, f.err
}

func TestVersionName(t *testing.T) {
	assert.Equal(t, "projects/p1/secrets/solscan/versions/latest", VersionName("p1", "solscan"))
}

func TestResolvePrefersCurrentValue(t *testing.T) {
	acc := &fakeAccessor{value: "remote"}
	assert.Equal(t, "local", Resolve(context.Background(), "local", acc, "solscan", zerolog.Nop()))
	assert.Zero(t, acc.calls)
}

func TestResolveReadsSecret(t *testing.T) {
	acc := &fakeAccessor{value: "remote"}
	assert.Equal(t, "remote", Resolve(context.Background(), "", acc, "solscan", zerolog.Nop()))
}

func TestResolveFailureYieldsEmpty(t *testing.T) {
	acc := &fakeAccessor{err: errors.New("denied")}
	assert.Empty(t, Resolve(context.Background(), "", acc, "solscan", zerolog.Nop()))
	assert.Empty(t, Resolve(context.Background(), "", nil, "solscan", zerolog.Nop()))
}
