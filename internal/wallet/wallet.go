package wallet

import (
	"crypto/ecdsa"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Provider is the external wallet contract: a public key plus single
// and batch digest signers. The three capabilities are treated as one
// atomic set; session initialization refuses to proceed when any is
// missing.
type Provider interface {
	Address() (common.Address, bool)
	SignDigest(digest []byte) ([]byte, error)
	SignBatch(digests [][]byte) ([][]byte, error)
	Capabilities() Capabilities
}

type Capabilities struct {
	HasPublicKey bool
	CanSign      bool
	CanSignBatch bool
}

func (c Capabilities) Complete() bool {
	return c.HasPublicKey && c.CanSign && c.CanSignBatch
}

// Local is an in-process wallet backed by a secp256k1 key.
type Local struct {
	privKey *ecdsa.PrivateKey
	address common.Address
}

func FromHexKey(hexKey string) (*Local, error) {
	clean := strings.TrimSpace(hexKey)
	if clean == "" {
		return nil, errors.New("private key is required")
	}
	clean = strings.TrimPrefix(clean, "0x")
	key, err := crypto.HexToECDSA(clean)
	if err != nil {
		return nil, err
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)
	return &Local{privKey: key, address: addr}, nil
}

func (w *Local) Address() (common.Address, bool) {
	return w.address, true
}

func (w *Local) SignDigest(digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, errors.New("digest must be 32 bytes")
	}
	return crypto.Sign(digest, w.privKey)
}

func (w *Local) SignBatch(digests [][]byte) ([][]byte, error) {
	sigs := make([][]byte, 0, len(digests))
	for _, digest := range digests {
		sig, err := w.SignDigest(digest)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

func (w *Local) Capabilities() Capabilities {
	return Capabilities{HasPublicKey: true, CanSign: true, CanSignBatch: true}
}
