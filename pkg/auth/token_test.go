package auth

import (
	"testing"
	"time"

	"github.com/solsticehq/beacon-messaging/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "beacon",
		ExpirationMinutes: 60,
	}
}

func TestMintAndParseServiceToken(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintServiceToken(cfg, time.Now(), "checkout")
	if err != nil {
		t.Fatalf("mint returned error: %v", err)
	}

	claims, err := ParseServiceToken(cfg, token)
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if claims.ServiceName != "checkout" {
		t.Fatalf("unexpected service name %q", claims.ServiceName)
	}
	if claims.Issuer != "beacon" {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
}

func TestParseServiceTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintServiceToken(cfg, time.Now().Add(-2*time.Hour), "checkout")
	if err != nil {
		t.Fatalf("mint returned error: %v", err)
	}
	if _, err := ParseServiceToken(cfg, token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseServiceTokenRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintServiceToken(cfg, time.Now(), "checkout")
	if err != nil {
		t.Fatalf("mint returned error: %v", err)
	}

	other := cfg
	other.Secret = "different"
	if _, err := ParseServiceToken(other, token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestMintServiceTokenValidation(t *testing.T) {
	cfg := testJWTConfig()
	if _, err := MintServiceToken(cfg, time.Now(), "  "); err == nil {
		t.Fatal("expected blank service name to be rejected")
	}

	cfg.Secret = ""
	if _, err := MintServiceToken(cfg, time.Now(), "checkout"); err == nil {
		t.Fatal("expected missing secret to be rejected")
	}
}
