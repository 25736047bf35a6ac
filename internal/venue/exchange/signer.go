package exchange

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"perp-trade-panel/internal/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Signer turns an order action into a wallet-signed envelope. The
// wallet provider performs the actual digest signing; everything here
// is deterministic hashing.
type Signer struct {
	wallet    wallet.Provider
	isMainnet bool
}

func NewSigner(provider wallet.Provider, isMainnet bool) (*Signer, error) {
	if provider == nil {
		return nil, errors.New("wallet provider is required")
	}
	if !provider.Capabilities().Complete() {
		return nil, errors.New("wallet capability set is incomplete")
	}
	return &Signer{wallet: provider, isMainnet: isMainnet}, nil
}

func (s *Signer) Address() (common.Address, error) {
	addr, ok := s.wallet.Address()
	if !ok {
		return common.Address{}, errors.New("wallet public key unavailable")
	}
	return addr, nil
}

// DeriveAccountAddress resolves the wallet's venue trading account
// address: keccak(wallet || "perp" || subaccount 0), truncated to an
// address. Existence of this account is a session precondition, not
// something this client creates.
func DeriveAccountAddress(walletAddr common.Address) common.Address {
	seed := append(walletAddr.Bytes(), []byte("perp")...)
	seed = append(seed, 0)
	return common.BytesToAddress(crypto.Keccak256(seed)[12:])
}

func (s *Signer) SignOrderAction(action OrderAction, nonce uint64) (Signature, error) {
	payload, err := EncodeOrderAction(action)
	if err != nil {
		return Signature{}, err
	}
	hash := actionHash(payload, nonce)
	digest, err := typedDataHash(hash, s.isMainnet)
	if err != nil {
		return Signature{}, err
	}
	sig, err := s.wallet.SignDigest(digest)
	if err != nil {
		return Signature{}, err
	}
	return signatureFromBytes(sig)
}

func actionHash(action []byte, nonce uint64) []byte {
	buf := bytes.NewBuffer(action)
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	buf.Write(nonceBytes[:])
	return crypto.Keccak256(buf.Bytes())
}

func typedDataHash(actionHash []byte, isMainnet bool) ([]byte, error) {
	source := "a"
	if !isMainnet {
		source = "b"
	}
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Agent": {
				{Name: "source", Type: "string"},
				{Name: "connectionId", Type: "bytes32"},
			},
		},
		PrimaryType: "Agent",
		Domain: apitypes.TypedDataDomain{
			Name:              "PerpVenue",
			Version:           "1",
			ChainId:           math.NewHexOrDecimal256(1337),
			VerifyingContract: "0x0000000000000000000000000000000000000000",
		},
		Message: apitypes.TypedDataMessage{
			"source":       source,
			"connectionId": hexutil.Encode(actionHash),
		},
	}
	domainHash, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, err
	}
	messageHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256([]byte("\x19\x01"), domainHash, messageHash), nil
}

func signatureFromBytes(sig []byte) (Signature, error) {
	if len(sig) != 65 {
		return Signature{}, fmt.Errorf("unexpected signature length %d", len(sig))
	}
	r := hexutil.Encode(sig[:32])
	s := hexutil.Encode(sig[32:64])
	v := int(sig[64]) + 27
	return Signature{R: r, S: s, V: v}, nil
}
