// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package envprovider is the process-wide environment/secret singleton
// (spec §6, §9 "Global state"). The core never reads os.Getenv directly;
// everything goes through an injected Provider so tests can supply a
// fake and production can supply one seeded from the real environment.
package envprovider

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/openswarm-labs/agentswarm/internal/errs"
)

const encryptedPrefix = "enc:"

// CapabilityToken stands in for "current process authorisation". The
// source this spec was distilled from kept a literal pid allow-list;
// per the spec's explicit guidance we do not replicate pid equality —
// a token is granted once at Init and checked before any decrypt, so
// the capability travels with whoever holds the token, not with a pid.
type CapabilityToken string

// DefaultCapability is granted to the process that calls Init.
const DefaultCapability CapabilityToken = "process"

// Provider reads raw key/value pairs (as pulled from the OS environment
// or a .env file) and transparently decrypts values stored with the
// "enc:" prefix using a key derived from a master key and salt.
type Provider struct {
	mu         sync.RWMutex
	values     map[string]string
	cipher     *cipherBox
	authorized map[CapabilityToken]bool
}

var (
	singleton     *Provider
	singletonOnce sync.Once
	singletonMu   sync.Mutex
)

// Init builds the process-wide Provider. Safe to call once; subsequent
// calls are no-ops and return the original instance, matching the
// "explicit init/teardown" singleton the spec calls for.
func Init(masterKey, salt string, raw map[string]string) (*Provider, error) {
	var initErr error
	singletonOnce.Do(func() {
		p, err := New(masterKey, salt, raw)
		if err != nil {
			initErr = err
			return
		}
		p.AuthorizeToken(DefaultCapability)
		singletonMu.Lock()
		singleton = p
		singletonMu.Unlock()
	})
	if initErr != nil {
		return nil, initErr
	}
	return Get(), nil
}

// Get returns the process-wide Provider, or nil if Init has not run.
func Get() *Provider {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	return singleton
}

// Teardown clears the singleton so a fresh Init can run; only tests
// and process shutdown should call this.
func Teardown() {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	singleton = nil
	singletonOnce = sync.Once{}
}

// New constructs a standalone Provider, independent of the process
// singleton. Useful for tests and for components that need their own
// scoped view of the environment.
func New(masterKey, salt string, raw map[string]string) (*Provider, error) {
	cb, err := newCipherBox(masterKey, salt)
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		values[k] = v
	}
	p := &Provider{values: values, cipher: cb, authorized: map[CapabilityToken]bool{}}
	p.AuthorizeToken(DefaultCapability)
	return p, nil
}

// AuthorizeToken grants tok the capability to read encrypted values.
func (p *Provider) AuthorizeToken(tok CapabilityToken) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authorized[tok] = true
}

// RevokeToken withdraws a previously granted capability.
func (p *Provider) RevokeToken(tok CapabilityToken) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.authorized, tok)
}

// HasCapability reports whether tok may currently read encrypted values.
func (p *Provider) HasCapability(tok CapabilityToken) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.authorized[tok]
}

// Get returns the resolved value for key, decrypting it if it was
// stored with the "enc:" prefix, using DefaultCapability.
func (p *Provider) Get(key string) (string, error) {
	return p.GetAs(key, DefaultCapability)
}

// GetAs is Get with an explicit capability token, for callers that do
// not hold the process-wide default capability.
func (p *Provider) GetAs(key string, tok CapabilityToken) (string, error) {
	p.mu.RLock()
	raw, ok := p.values[key]
	p.mu.RUnlock()
	if !ok {
		return "", errs.New(errs.NotFound, "envprovider.Get", fmt.Sprintf("missing required key %q", key))
	}
	return p.resolve(key, raw, tok)
}

// GetOptional returns the resolved value for key, or fallback if absent.
func (p *Provider) GetOptional(key, fallback string) string {
	p.mu.RLock()
	raw, ok := p.values[key]
	p.mu.RUnlock()
	if !ok {
		return fallback
	}
	v, err := p.resolve(key, raw, DefaultCapability)
	if err != nil {
		return fallback
	}
	return v
}

// GetBoolean parses the value for key as a bool ("true"/"false"/"1"/"0"/...).
func (p *Provider) GetBoolean(key string) (bool, error) {
	v, err := p.Get(key)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, errs.Wrap(errs.InputInvalid, "envprovider.GetBoolean", fmt.Sprintf("key %q is not a boolean", key), err)
	}
	return b, nil
}

// GetNumber parses the value for key as a float64.
func (p *Provider) GetNumber(key string) (float64, error) {
	v, err := p.Get(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, errs.Wrap(errs.InputInvalid, "envprovider.GetNumber", fmt.Sprintf("key %q is not a number", key), err)
	}
	return n, nil
}

// Has reports whether key has any value configured, without decrypting it.
func (p *Provider) Has(key string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.values[key]
	return ok
}

// Validate checks that every key in required is present, returning a
// single aggregated error naming all that are missing.
func (p *Provider) Validate(required []string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var missing []string
	for _, key := range required {
		if _, ok := p.values[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return errs.New(errs.InputInvalid, "envprovider.Validate", fmt.Sprintf("missing required keys: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// SetEncrypted seals value and stores it under key with the "enc:"
// prefix, for tooling that needs to provision new secrets at runtime.
func (p *Provider) SetEncrypted(key, value string) error {
	sealed, err := p.cipher.seal(value)
	if err != nil {
		return fmt.Errorf("envprovider: seal %q: %w", key, err)
	}
	p.mu.Lock()
	p.values[key] = encryptedPrefix + sealed
	p.mu.Unlock()
	return nil
}

func (p *Provider) resolve(key, raw string, tok CapabilityToken) (string, error) {
	if !strings.HasPrefix(raw, encryptedPrefix) {
		return raw, nil
	}
	if !p.HasCapability(tok) {
		return "", errs.New(errs.PreconditionFailed, "envprovider.resolve", fmt.Sprintf("token not authorised to decrypt %q", key))
	}
	plaintext, err := p.cipher.open(strings.TrimPrefix(raw, encryptedPrefix))
	if err != nil {
		return "", errs.Wrap(errs.InputInvalid, "envprovider.resolve", fmt.Sprintf("failed to decrypt %q", key), err)
	}
	return plaintext, nil
}
