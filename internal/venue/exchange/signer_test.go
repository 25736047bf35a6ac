package exchange

import (
	"bytes"
	"testing"

	"perp-trade-panel/internal/wallet"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const testPrivateKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func testWallet(t *testing.T) *wallet.Local {
	t.Helper()
	w, err := wallet.FromHexKey(testPrivateKey)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	return w
}

func TestSignOrderActionRecoversWallet(t *testing.T) {
	w := testWallet(t)
	signer, err := NewSigner(w, false)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	action := sampleAction()
	const nonce = 1700000000000
	sig, err := signer.SignOrderAction(action, nonce)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if sig.V != 27 && sig.V != 28 {
		t.Fatalf("V = %d, want 27 or 28", sig.V)
	}

	payload, err := EncodeOrderAction(action)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	digest, err := typedDataHash(actionHash(payload, nonce), false)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	r, err := hexutil.Decode(sig.R)
	if err != nil {
		t.Fatalf("decode r: %v", err)
	}
	s, err := hexutil.Decode(sig.S)
	if err != nil {
		t.Fatalf("decode s: %v", err)
	}
	raw := append(append(r, s...), byte(sig.V-27))
	pub, err := crypto.SigToPub(digest, raw)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	walletAddr, _ := w.Address()
	if recovered := crypto.PubkeyToAddress(*pub); recovered != walletAddr {
		t.Fatalf("recovered %s, want %s", recovered.Hex(), walletAddr.Hex())
	}
}

func TestTypedDataHashNetworkSeparation(t *testing.T) {
	actionDigest := crypto.Keccak256([]byte("payload"))
	mainnet, err := typedDataHash(actionDigest, true)
	if err != nil {
		t.Fatalf("mainnet digest: %v", err)
	}
	testnet, err := typedDataHash(actionDigest, false)
	if err != nil {
		t.Fatalf("testnet digest: %v", err)
	}
	if bytes.Equal(mainnet, testnet) {
		t.Fatal("mainnet and testnet digests must differ")
	}
}

func TestActionHashBindsNonce(t *testing.T) {
	payload := []byte("payload")
	if bytes.Equal(actionHash(payload, 1), actionHash(payload, 2)) {
		t.Fatal("different nonces must hash differently")
	}
}

func TestDeriveAccountAddress(t *testing.T) {
	w := testWallet(t)
	walletAddr, _ := w.Address()
	account := DeriveAccountAddress(walletAddr)
	if account == walletAddr {
		t.Fatal("derived account must differ from the wallet address")
	}
	if again := DeriveAccountAddress(walletAddr); again != account {
		t.Fatal("derivation must be deterministic")
	}
}

func TestNewSignerRequiresCompleteWallet(t *testing.T) {
	if _, err := NewSigner(nil, false); err == nil {
		t.Fatal("expected error for nil provider")
	}
}
