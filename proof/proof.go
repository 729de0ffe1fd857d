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

// Package proof creates integrity proofs.
//
// See https://codeberg.org/fediverse/fep/src/branch/main/fep/8b32/fep-8b32.md for more details.
package proof

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/calico-social/calico/ap"
	"github.com/calico-social/calico/httpsig"
	"github.com/gowebpki/jcs"
)

var proofContext = []string{"https://www.w3.org/ns/activitystreams", "https://w3id.org/security/data-integrity/v1"}

func normalizeJSON(v any) ([]byte, error) {
	j, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return jcs.Transform(j)
}

func create(key httpsig.Key, now time.Time, doc, context any) (ap.Proof, error) {
	edKey, ok := key.PrivateKey.(ed25519.PrivateKey)
	if !ok {
		return ap.Proof{}, fmt.Errorf("wrong key type: %T", key.PrivateKey)
	}

	created := now.UTC().Format(time.RFC3339)

	cfg, err := normalizeJSON(map[string]any{
		"@context":           context,
		"type":               "DataIntegrityProof",
		"cryptosuite":        "eddsa-jcs-2022",
		"created":            created,
		"proofPurpose":       "assertionMethod",
		"verificationMethod": key.ID,
	})
	if err != nil {
		return ap.Proof{}, err
	}

	data, err := normalizeJSON(doc)
	if err != nil {
		return ap.Proof{}, err
	}

	cfgHash := sha256.Sum256(cfg)
	docHash := sha256.Sum256(data)

	return ap.Proof{
		Type:               "DataIntegrityProof",
		CryptoSuite:        "eddsa-jcs-2022",
		VerificationMethod: key.ID,
		Purpose:            "assertionMethod",
		Value:              "z" + base58.Encode(ed25519.Sign(edKey, append(cfgHash[:], docHash[:]...))),
		Created:            created,
	}, nil
}

// Create returns an eddsa-jcs-2022 integrity proof over a document.
func Create(key httpsig.Key, now time.Time, doc any) (ap.Proof, error) {
	return create(key, now, doc, proofContext)
}

// Add adds an eddsa-jcs-2022 integrity proof to a JSON object.
func Add(key httpsig.Key, now time.Time, raw []byte) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	m["@context"] = proofContext

	proof, err := create(key, now, m, proofContext)
	if err != nil {
		return nil, err
	}

	m["proof"] = proof
	return json.Marshal(m)
}
