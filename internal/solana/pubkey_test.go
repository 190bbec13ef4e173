package solana

import (
	"bytes"
	"testing"
)

func TestPublicKeyFromBase58_RoundTrip(t *testing.T) {
	addr := "11111111111111111111111111111111"
	pk, err := PublicKeyFromBase58(addr)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !bytes.Equal(pk.Bytes(), make([]byte, 32)) {
		t.Fatalf("expected all-zero key, got %v", pk.Bytes())
	}
	if pk.String() != addr {
		t.Fatalf("round trip=%q want %q", pk.String(), addr)
	}
}

func TestPublicKeyFromBase58_Invalid(t *testing.T) {
	if _, err := PublicKeyFromBase58("not-base58-0OIl"); err == nil {
		t.Fatalf("expected error for invalid charset")
	}
	// Valid base58 but wrong length.
	if _, err := PublicKeyFromBase58("abc"); err == nil {
		t.Fatalf("expected error for short key")
	}
}

func TestFindProgramAddress_Deterministic(t *testing.T) {
	program, err := PublicKeyFromBase58("11111111111111111111111111111111")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	seeds := [][]byte{[]byte("rumble"), {42, 0, 0, 0, 0, 0, 0, 0}}

	a1, bump1, err := FindProgramAddress(seeds, program)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	a2, bump2, err := FindProgramAddress(seeds, program)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if a1 != a2 || bump1 != bump2 {
		t.Fatalf("derivation not deterministic: %s/%d vs %s/%d", a1, bump1, a2, bump2)
	}
	if isOnCurve(a1[:]) {
		t.Fatalf("derived address must be off curve")
	}
}

func TestFindProgramAddress_SeedsChangeAddress(t *testing.T) {
	program, _ := PublicKeyFromBase58("11111111111111111111111111111111")
	a1, _, err := FindProgramAddress([][]byte{[]byte("rumble"), {1}}, program)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	a2, _, err := FindProgramAddress([][]byte{[]byte("rumble"), {2}}, program)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if a1 == a2 {
		t.Fatalf("different seeds yielded identical addresses")
	}
}

func TestCreateProgramAddress_SeedTooLong(t *testing.T) {
	program, _ := PublicKeyFromBase58("11111111111111111111111111111111")
	if _, err := CreateProgramAddress([][]byte{make([]byte, 33)}, program); err == nil {
		t.Fatalf("expected error for oversized seed")
	}
}
