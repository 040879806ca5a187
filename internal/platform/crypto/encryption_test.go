package crypto

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	svc, err := New("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !svc.Configured() {
		t.Fatal("expected configured service")
	}

	plain := []byte("NL91ABNA0417164300")
	enc, err := svc.Encrypt(plain)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Equal(enc, plain) {
		t.Fatal("ciphertext equals plaintext")
	}
	dec, err := svc.Decrypt(enc)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(dec, plain) {
		t.Fatalf("round trip got %q", dec)
	}
}

func TestShortKeyIsStretched(t *testing.T) {
	svc, err := New("short-passphrase")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	enc, err := svc.EncryptString("hello")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	out, err := svc.DecryptString(enc)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if out != "hello" {
		t.Fatalf("got %q", out)
	}
}

func TestUnconfigured(t *testing.T) {
	svc, err := New("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Configured() {
		t.Fatal("empty key must leave the service unconfigured")
	}
}

func TestDecryptTampered(t *testing.T) {
	svc, err := New("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	enc, err := svc.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	enc[len(enc)-1] ^= 0xff
	if _, err := svc.Decrypt(enc); err == nil {
		t.Fatal("tampered ciphertext accepted")
	}
}
