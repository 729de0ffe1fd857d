/*
Copyright 2025, 2026 Dima Krasner

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package proof

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/json"
	"testing"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/calico-social/calico/ap"
	"github.com/calico-social/calico/httpsig"
	"github.com/stretchr/testify/assert"
)

func TestCreate(t *testing.T) {
	assert := assert.New(t)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	assert.NoError(err)

	key := httpsig.Key{ID: "https://a.b/users/alice#ed25519-key", PrivateKey: priv}

	note := ap.Object{
		ID:           "https://a.b/notes/1",
		Type:         ap.Note,
		AttributedTo: "https://a.b/users/alice",
		Content:      "hello",
	}

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	p, err := Create(key, now, &note)
	assert.NoError(err)

	assert.Equal("DataIntegrityProof", p.Type)
	assert.Equal("eddsa-jcs-2022", p.CryptoSuite)
	assert.Equal("assertionMethod", p.Purpose)
	assert.Equal(key.ID, p.VerificationMethod)
	assert.Equal("2026-08-01T12:00:00Z", p.Created)
	assert.Equal(uint8('z'), p.Value[0])

	cfg, err := normalizeJSON(map[string]any{
		"@context":           proofContext,
		"type":               "DataIntegrityProof",
		"cryptosuite":        "eddsa-jcs-2022",
		"created":            p.Created,
		"proofPurpose":       "assertionMethod",
		"verificationMethod": key.ID,
	})
	assert.NoError(err)

	doc, err := normalizeJSON(&note)
	assert.NoError(err)

	cfgHash := sha256.Sum256(cfg)
	docHash := sha256.Sum256(doc)
	assert.True(ed25519.Verify(pub, append(cfgHash[:], docHash[:]...), base58.Decode(p.Value[1:])))
}

func TestCreate_WrongKeyType(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	if _, err := Create(httpsig.Key{ID: "https://a.b/users/alice#main-key", PrivateKey: priv}, time.Now(), map[string]any{}); err == nil {
		t.Fatal("expected an error")
	}
}

func TestAdd(t *testing.T) {
	assert := assert.New(t)

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	assert.NoError(err)

	key := httpsig.Key{ID: "https://a.b/users/alice#ed25519-key", PrivateKey: priv}

	raw, err := Add(key, time.Now(), []byte(`{"id":"https://a.b/notes/1","type":"Note","content":"hello"}`))
	assert.NoError(err)

	var m map[string]any
	assert.NoError(json.Unmarshal(raw, &m))
	assert.Contains(m, "proof")
	assert.Equal("hello", m["content"])

	p := m["proof"].(map[string]any)
	assert.Equal("eddsa-jcs-2022", p["cryptosuite"])
	assert.Equal(key.ID, p["verificationMethod"])
}
