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

package httpsig

import (
	"bytes"
	"crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	defaultHeaders = []string{"(request-target)", "host", "date"}
	postHeaders    = []string{"(request-target)", "host", "date", "content-type", "digest"}
)

// addDigest hashes the request body into a Digest header, leaving the body
// readable for the transport.
func addDigest(r *http.Request) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	hash := sha256.Sum256(body)
	r.Header.Set("Digest", "SHA-256="+base64.StdEncoding.EncodeToString(hash[:]))
	return nil
}

func sign(key Key, s string) (string, string, error) {
	switch privateKey := key.PrivateKey.(type) {
	case *rsa.PrivateKey:
		hash := sha256.Sum256([]byte(s))
		sig, err := rsa.SignPKCS1v15(nil, privateKey, crypto.SHA256, hash[:])
		if err != nil {
			return "", "", err
		}
		return "rsa-sha256", base64.StdEncoding.EncodeToString(sig), nil

	case ed25519.PrivateKey:
		return "hs2019", base64.StdEncoding.EncodeToString(ed25519.Sign(privateKey, []byte(s))), nil

	default:
		return "", "", fmt.Errorf("invalid private key: %T", key.PrivateKey)
	}
}

// Sign adds a signature to an outgoing HTTP request.
func Sign(r *http.Request, key Key, now time.Time) error {
	if key.ID == "" {
		return errors.New("empty key ID")
	}

	headers := defaultHeaders
	if r.Method == http.MethodPost {
		if err := addDigest(r); err != nil {
			return err
		}
		headers = postHeaders
	}

	r.Header.Set("Date", now.UTC().Format(http.TimeFormat))
	r.Header.Set("Host", r.URL.Host)

	s, err := buildSignatureString(r, headers)
	if err != nil {
		return err
	}

	algorithm, signature, err := sign(key, s)
	if err != nil {
		return err
	}

	r.Header.Set(
		"Signature",
		fmt.Sprintf(
			`keyId="%s",algorithm="%s",headers="%s",signature="%s"`,
			key.ID,
			algorithm,
			strings.Join(headers, " "),
			signature,
		),
	)

	return nil
}
