// Package chanbackup converts static channel backups between the node's
// RPC form and a portable file, and verifies and restores them.
package chanbackup

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/wire"
	"github.com/ellemouton/lnscan/node"
)

var (
	// ErrInvalidBackup is returned for backups that can't be used.
	ErrInvalidBackup = errors.New("invalid channel backup")

	// ErrEmptyBackup is returned when there is no backup to restore.
	ErrEmptyBackup = errors.New("empty channel backup")
)

// Node is the part of node.Client the backup service uses.
type Node interface {
	ListChannels(ctx context.Context) ([]node.Channel, error)

	ChannelBackup(ctx context.Context) (*node.ChannelBackup, error)

	VerifyChannelBackup(ctx context.Context, points []wire.OutPoint,
		blob []byte) error

	RestoreChannelBackup(ctx context.Context, blob []byte) error
}

// FileChanPoint is a channel point as stored in a backup file. The txid is
// base64 in internal byte order.
type FileChanPoint struct {
	FundingTxidBytes string `json:"funding_txid_bytes"`
	OutputIndex      uint32 `json:"output_index"`
}

// File is the portable form of a multi-channel backup. It matches the JSON
// of lnd's MultiChanBackup message.
type File struct {
	ChanPoints      []FileChanPoint `json:"chan_points"`
	MultiChanBackup string          `json:"multi_chan_backup"`
}

// NewFile builds a File from a node backup.
func NewFile(backup *node.ChannelBackup) *File {
	file := &File{
		ChanPoints: make([]FileChanPoint, 0, len(backup.ChanPoints)),
		MultiChanBackup: base64.StdEncoding.EncodeToString(
			backup.Blob,
		),
	}

	for _, op := range backup.ChanPoints {
		file.ChanPoints = append(file.ChanPoints, FileChanPoint{
			FundingTxidBytes: base64.StdEncoding.EncodeToString(
				op.Hash[:],
			),
			OutputIndex: op.Index,
		})
	}

	return file
}

// ParseFile decodes a backup file.
func ParseFile(data []byte) (*File, error) {
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	return &file, nil
}

// VerifyReport is the outcome of a successful Verify.
type VerifyReport struct {
	// Verified are the backed up channels that are currently open.
	Verified []ChanPoint

	// Closed are backed up channels the node no longer has open. Backups
	// may legitimately outlive their channels.
	Closed []ChanPoint

	// Skipped is the number of entries that couldn't be decoded.
	Skipped int
}

// Service exports, verifies and restores channel backups through a node.
type Service struct {
	node Node
}

// NewService creates a Service.
func NewService(n Node) *Service {
	return &Service{node: n}
}

// Export returns the node's current backup as a file.
func (s *Service) Export(ctx context.Context) (*File, error) {
	backup, err := s.node.ChannelBackup(ctx)
	if err != nil {
		return nil, err
	}

	log.Infof("Exported backup covering %d channels",
		len(backup.ChanPoints))

	return NewFile(backup), nil
}

// Verify checks a backup file. Its channel points are cross-referenced
// against the node's open channels and the node is asked to validate the
// blob. A backup with no decodable channel point fails before any RPC is
// made.
func (s *Service) Verify(ctx context.Context, file *File) (*VerifyReport,
	error) {

	report := &VerifyReport{}

	var points []ChanPoint
	for _, fp := range file.ChanPoints {
		p, err := DecodeChanPoint(fp.FundingTxidBytes, fp.OutputIndex)
		if err != nil {
			log.Warnf("Skipping backup entry: %v", err)
			report.Skipped++

			continue
		}

		points = append(points, p)
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no channel points", ErrInvalidBackup)
	}

	blob, err := decodeBlob(file.MultiChanBackup)
	if err != nil {
		return nil, err
	}

	channels, err := s.node.ListChannels(ctx)
	if err != nil {
		return nil, err
	}

	open := make(map[wire.OutPoint]struct{}, len(channels))
	for _, c := range channels {
		open[c.ChannelPoint] = struct{}{}
	}

	outPoints := make([]wire.OutPoint, 0, len(points))
	for _, p := range points {
		op, err := p.OutPoint()
		if err != nil {
			return nil, err
		}
		outPoints = append(outPoints, op)

		if _, ok := open[op]; ok {
			report.Verified = append(report.Verified, p)
			continue
		}

		log.Warnf("Backed up channel %v is not open", p)
		report.Closed = append(report.Closed, p)
	}

	err = s.node.VerifyChannelBackup(ctx, outPoints, blob)
	switch {
	case errors.Is(err, node.ErrTimeout):
		return nil, err

	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	log.Infof("Verified backup: %d open, %d closed, %d skipped",
		len(report.Verified), len(report.Closed), report.Skipped)

	return report, nil
}

// Restore hands a base64 multi-channel backup to the node. Restoring is
// idempotent on the node side.
func (s *Service) Restore(ctx context.Context, multiChanBackup string) error {
	blob, err := decodeBlob(multiChanBackup)
	if err != nil {
		return err
	}

	if err := s.node.RestoreChannelBackup(ctx, blob); err != nil {
		return err
	}

	log.Infof("Restored channel backup")

	return nil
}

// RestoreFile restores the backup in a file.
func (s *Service) RestoreFile(ctx context.Context, file *File) error {
	return s.Restore(ctx, file.MultiChanBackup)
}

func decodeBlob(multiChanBackup string) ([]byte, error) {
	multiChanBackup = strings.TrimSpace(multiChanBackup)
	if multiChanBackup == "" {
		return nil, ErrEmptyBackup
	}

	blob, err := base64.StdEncoding.DecodeString(multiChanBackup)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	return blob, nil
}
