// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package certificate_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/claimlink/signer/lib/certificate"
	"github.com/claimlink/signer/lib/certificate/certtest"
	"github.com/claimlink/signer/lib/codec"
	"github.com/claimlink/signer/lib/principal"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var ledger = principal.MustFromText("ryjl3-tyaaa-aaaaa-aaaba-cai")

func verifyOptions() certificate.VerifyOptions {
	return certificate.VerifyOptions{
		RootKey:    certtest.RootKey,
		CanisterID: ledger,
		Verifier:   certtest.Verifier{},
		Now:        now,
	}
}

func TestParseAndVerify(t *testing.T) {
	requestID := bytes.Repeat([]byte{0xab}, 32)
	raw := certtest.Build(certtest.Forks(
		certtest.RequestStatus(requestID, "replied", []byte("DIDL\x00\x00")),
		certtest.Time(now),
	), certtest.RootKey)

	cert, err := certificate.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := certificate.Verify(cert, verifyOptions()); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	status, found := cert.Lookup(certificate.NewPath("request_status", requestID, "status"))
	if found != certificate.Found || string(status) != "replied" {
		t.Errorf("status lookup = %q (%s), want replied (found)", status, found)
	}
	reply, found := cert.Lookup(certificate.NewPath("request_status", requestID, "reply"))
	if found != certificate.Found || !bytes.Equal(reply, []byte("DIDL\x00\x00")) {
		t.Errorf("reply lookup = %x (%s)", reply, found)
	}
	if !bytes.Equal(cert.Raw, raw) {
		t.Error("Raw does not hold the input bytes")
	}
}

func TestVerifyRejectsTamperedTree(t *testing.T) {
	raw := certtest.Build(certtest.Time(now), certtest.RootKey)
	cert, err := certificate.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cert.Signature[0] ^= 0xff

	err = certificate.Verify(cert, verifyOptions())
	if !errors.Is(err, certificate.ErrVerification) {
		t.Fatalf("Verify of tampered certificate: err = %v, want ErrVerification", err)
	}
}

func TestVerifyWrongRootKey(t *testing.T) {
	cert, err := certificate.Parse(certtest.Build(certtest.Time(now), certtest.RootKey))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	options := verifyOptions()
	options.RootKey = certtest.SubnetKey
	if err := certificate.Verify(cert, options); !errors.Is(err, certificate.ErrVerification) {
		t.Fatalf("Verify with wrong root key: err = %v", err)
	}
}

func TestVerifyFreshness(t *testing.T) {
	tests := []struct {
		name      string
		certified time.Time
		wantErr   bool
	}{
		{"current", now, false},
		{"four minutes old", now.Add(-4 * time.Minute), false},
		{"stale", now.Add(-6 * time.Minute), true},
		{"future", now.Add(6 * time.Minute), true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cert, err := certificate.Parse(certtest.Build(certtest.Time(test.certified), certtest.RootKey))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			err = certificate.Verify(cert, verifyOptions())
			if (err != nil) != test.wantErr {
				t.Fatalf("Verify err = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}

func TestVerifyDelegation(t *testing.T) {
	subnetID := []byte{0x01, 0x02}
	tree := certtest.Time(now)

	covered := certtest.BuildDelegated(tree, subnetID,
		[]byte{0, 0, 0, 0, 0, 0, 0, 0, 1, 1},
		[]byte{0, 0, 0, 0, 0, 0, 0, 9, 1, 1})
	cert, err := certificate.Parse(covered)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := certificate.Verify(cert, verifyOptions()); err != nil {
		t.Fatalf("Verify delegated certificate: %v", err)
	}

	notCovered := certtest.BuildDelegated(tree, subnetID,
		[]byte{0, 0, 0, 0, 0, 0, 0, 5, 1, 1},
		[]byte{0, 0, 0, 0, 0, 0, 0, 9, 1, 1})
	cert, err = certificate.Parse(notCovered)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := certificate.Verify(cert, verifyOptions()); !errors.Is(err, certificate.ErrVerification) {
		t.Fatalf("Verify outside canister range: err = %v", err)
	}
}

func TestLookupStatuses(t *testing.T) {
	hidden := certtest.Labeled("c", certtest.Leaf([]byte("secret")))
	tree, err := certificate.Parse(certtest.Build(certtest.Forks(
		certtest.Labeled("a", certtest.Leaf([]byte("x"))),
		certtest.Labeled("b", certtest.Forks(certtest.Labeled("inner", certtest.Leaf([]byte("y"))))),
		certtest.Pruned(digestOf(t, hidden)),
		certtest.Labeled("d", certtest.Leaf([]byte("z"))),
	), certtest.RootKey))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tests := []struct {
		path []any
		want certificate.LookupStatus
	}{
		{[]any{"a"}, certificate.Found},
		{[]any{"b", "inner"}, certificate.Found},
		{[]any{"b"}, certificate.NotLeaf},
		{[]any{"aa"}, certificate.Absent},
		{[]any{"c"}, certificate.Unknown},
		{[]any{"e"}, certificate.Absent},
		{[]any{"a", "deeper"}, certificate.Absent},
	}
	for _, test := range tests {
		_, got := tree.Lookup(certificate.NewPath(test.path...))
		if got != test.want {
			t.Errorf("Lookup(%v) = %s, want %s", test.path, got, test.want)
		}
	}
}

func TestDecodeTreeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		tree any
	}{
		{"empty root", []any{}},
		{"empty child", []any{uint64(1), []any{}, []any{uint64(0)}}},
		{"leaf without value", []any{uint64(3)}},
		{"unknown tag", []any{uint64(9)}},
		{"short pruned hash", []any{uint64(4), []byte{1, 2, 3}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			encoded, err := codec.Marshal(test.tree)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if _, err := certificate.DecodeTree(encoded); err == nil {
				t.Error("DecodeTree accepted a malformed tree")
			}
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := certificate.Parse([]byte{0x01, 0x02}); err == nil {
		t.Error("Parse accepted non-certificate bytes")
	}
}

func TestRootKeyOrMainnet(t *testing.T) {
	if got := certificate.RootKeyOrMainnet(nil); !bytes.Equal(got, certificate.MainnetRootKey) {
		t.Error("empty root key did not fall back to mainnet")
	}
	if got := certificate.RootKeyOrMainnet(certtest.RootKey); !bytes.Equal(got, certtest.RootKey) {
		t.Error("configured root key was replaced")
	}
	if _, err := certificate.ExtractBLSKey(certificate.MainnetRootKey); err != nil {
		t.Errorf("mainnet root key is not a valid DER BLS key: %v", err)
	}
}

func digestOf(t *testing.T, tree any) certificate.Digest {
	t.Helper()
	cert, err := certificate.Parse(certtest.Build(tree, certtest.RootKey))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cert.Tree.Digest()
}
