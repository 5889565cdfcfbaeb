package crypto

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := make([]byte, 20)
	raw[19] = 0x42
	addr, err := NewAddress(SynPrefix, raw)
	if err != nil {
		t.Fatalf("new address: %v", err)
	}

	encoded := addr.String()
	if encoded == "" {
		t.Fatalf("expected bech32 encoding")
	}
	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Equal(addr) {
		t.Fatalf("round trip mismatch: %s vs %s", decoded, addr)
	}
	if decoded.Prefix() != SynPrefix {
		t.Fatalf("unexpected prefix: %s", decoded.Prefix())
	}
	if !bytes.Equal(decoded.Bytes(), raw) {
		t.Fatalf("unexpected bytes: %x", decoded.Bytes())
	}
}

func TestAddressValidation(t *testing.T) {
	if _, err := NewAddress(SynPrefix, make([]byte, 19)); err == nil {
		t.Fatalf("expected rejection of short input")
	}
	if _, err := DecodeAddress("not-bech32"); err == nil {
		t.Fatalf("expected rejection of invalid encoding")
	}

	var zero Address
	if !zero.IsZero() {
		t.Fatalf("expected empty address to be zero")
	}
	if zero.String() != "" {
		t.Fatalf("expected empty string for zero address, got %q", zero.String())
	}
	allZero := MustNewAddress(SynPrefix, make([]byte, 20))
	if !allZero.IsZero() {
		t.Fatalf("expected all-zero bytes to be zero")
	}
}

func TestModuleAddressDeterministic(t *testing.T) {
	first := ModuleAddress("collateral")
	second := ModuleAddress("collateral")
	if !first.Equal(second) {
		t.Fatalf("module address not deterministic")
	}
	if first.IsZero() {
		t.Fatalf("module address should not be zero")
	}
	if first.Equal(ModuleAddress("other")) {
		t.Fatalf("distinct module names should derive distinct addresses")
	}
}

func TestAddressJSON(t *testing.T) {
	addr := MustNewAddress(SynPrefix, bytes.Repeat([]byte{0x11}, 20))

	encoded, err := json.Marshal(addr)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Address
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Equal(addr) {
		t.Fatalf("json round trip mismatch")
	}

	var empty Address
	if err := json.Unmarshal([]byte(`""`), &empty); err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if !empty.IsZero() {
		t.Fatalf("expected zero address from empty string")
	}
}

func TestKeyAddressDerivation(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	addr := key.PubKey().Address()
	if addr.IsZero() {
		t.Fatalf("expected derived address")
	}

	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !restored.PubKey().Address().Equal(addr) {
		t.Fatalf("restored key derives different address")
	}
}
