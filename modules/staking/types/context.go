package types

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

type signerKey struct{}

// WithSigner attaches the authenticated caller of the current call to ctx.
// An empty address marks a call that carries a signer context but no signature.
func WithSigner(ctx context.Context, signer sdk.AccAddress) context.Context {
	return context.WithValue(ctx, signerKey{}, signer)
}

// SignerFromContext returns the authenticated caller of the current call.
func SignerFromContext(ctx context.Context) (sdk.AccAddress, error) {
	signer, ok := ctx.Value(signerKey{}).(sdk.AccAddress)
	if !ok {
		return nil, ErrUnauthenticated
	}
	if signer.Empty() {
		return nil, ErrUnsigned
	}
	return signer, nil
}
