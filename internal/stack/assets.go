package stack

import (
	"fmt"

	"github.com/lex00/wetwire-lambda-examples/internal/bundle"
	"github.com/lex00/wetwire-lambda-examples/internal/functions"
)

// AssetResolver names the object key a unit's archive is published under.
type AssetResolver interface {
	AssetKey(u functions.Unit) (string, error)
}

// FingerprintAssets keys archives by the fingerprint of their build, the
// same key the bundler stages and publishes them under.
type FingerprintAssets struct{}

// AssetKey implements AssetResolver.
func (FingerprintAssets) AssetKey(u functions.Unit) (string, error) {
	dgst, err := bundle.Fingerprint(u.Build)
	if err != nil {
		return "", err
	}
	return bundle.AssetKey(dgst), nil
}

// StaticAssets maps unit IDs to keys, typically from a previous bundle run.
type StaticAssets map[string]string

// AssetKey implements AssetResolver.
func (s StaticAssets) AssetKey(u functions.Unit) (string, error) {
	key, ok := s[u.ID]
	if !ok {
		return "", fmt.Errorf("no asset for %s", u.ID)
	}
	return key, nil
}
