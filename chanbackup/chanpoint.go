package chanbackup

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// ErrInvalidChanPoint is returned for channel points that don't decode to a
// 32 byte txid and an output index.
var ErrInvalidChanPoint = errors.New("invalid channel point")

// ChanPoint identifies a channel by its funding outpoint, in the form the
// RPC interface shows it.
type ChanPoint struct {
	// FundingTxid is the lower-case hex txid in RPC byte order, which is
	// the reverse of the order the hash is stored in.
	FundingTxid string

	OutputIndex uint32
}

// DecodeChanPoint converts a base64 txid in internal byte order into a
// ChanPoint.
func DecodeChanPoint(internalB64 string, outputIndex uint32) (ChanPoint,
	error) {

	txid, err := base64.StdEncoding.DecodeString(internalB64)
	if err != nil {
		return ChanPoint{}, fmt.Errorf("%w: %v", ErrInvalidChanPoint,
			err)
	}

	hash, err := chainhash.NewHash(txid)
	if err != nil {
		return ChanPoint{}, fmt.Errorf("%w: %v", ErrInvalidChanPoint,
			err)
	}

	return ChanPoint{
		FundingTxid: hash.String(),
		OutputIndex: outputIndex,
	}, nil
}

// EncodeChanPoint is the inverse of DecodeChanPoint.
func EncodeChanPoint(p ChanPoint) (string, uint32, error) {
	hash, err := p.hash()
	if err != nil {
		return "", 0, err
	}

	return base64.StdEncoding.EncodeToString(hash[:]), p.OutputIndex, nil
}

// ParseChanPoint parses the txid:index form.
func ParseChanPoint(s string) (ChanPoint, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return ChanPoint{}, fmt.Errorf("%w: expected txid:index, got "+
			"%q", ErrInvalidChanPoint, s)
	}

	index, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return ChanPoint{}, fmt.Errorf("%w: %v", ErrInvalidChanPoint,
			err)
	}

	p := ChanPoint{
		FundingTxid: strings.ToLower(parts[0]),
		OutputIndex: uint32(index),
	}
	if _, err := p.hash(); err != nil {
		return ChanPoint{}, err
	}

	return p, nil
}

// FromOutPoint converts a funding outpoint.
func FromOutPoint(op wire.OutPoint) ChanPoint {
	return ChanPoint{
		FundingTxid: op.Hash.String(),
		OutputIndex: op.Index,
	}
}

// String returns the txid:index form.
func (p ChanPoint) String() string {
	return fmt.Sprintf("%s:%d", p.FundingTxid, p.OutputIndex)
}

// OutPoint returns the funding outpoint.
func (p ChanPoint) OutPoint() (wire.OutPoint, error) {
	hash, err := p.hash()
	if err != nil {
		return wire.OutPoint{}, err
	}

	return wire.OutPoint{Hash: *hash, Index: p.OutputIndex}, nil
}

// hash checks that FundingTxid is exactly 64 lower-case hex characters and
// returns the hash it stands for. chainhash.NewHashFromStr alone accepts
// short strings.
func (p ChanPoint) hash() (*chainhash.Hash, error) {
	txid := p.FundingTxid
	if len(txid) != chainhash.MaxHashStringSize ||
		txid != strings.ToLower(txid) {

		return nil, fmt.Errorf("%w: txid must be %d lower-case hex "+
			"characters", ErrInvalidChanPoint,
			chainhash.MaxHashStringSize)
	}

	if _, err := hex.DecodeString(txid); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChanPoint, err)
	}

	return chainhash.NewHashFromStr(txid)
}
