package controller

import (
	"context"

	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/danmuck/rfctl/internal/protocol/codec"
)

// ScanRequest sends one command over a range of ids. Nil fields are
// scanned: every protocol, and 0 up to the protocol maximum for ids the
// protocol needs.
type ScanRequest struct {
	Protocol *string
	Remote   *uint32
	Device   *uint32
	Command  protocol.Command
	ForceRaw bool
}

// ScanVisitor receives every attempt. Errors do not stop the scan.
type ScanVisitor func(Result, error)

// Scan walks the requested range and returns the number of commands sent.
// Protocols that do not accept the command are skipped.
func (c *Controller) Scan(ctx context.Context, req ScanRequest, visit ScanVisitor) (int, error) {
	var codecs []codec.Codec
	if req.Protocol != nil {
		cd, err := c.codecs.Lookup(*req.Protocol)
		if err != nil {
			return 0, err
		}
		codecs = []codec.Codec{cd}
	} else {
		codecs = c.codecs.List()
	}

	sent := 0
	for _, cd := range codecs {
		d := cd.Descriptor()
		if !d.Supports(req.Command) {
			c.log.Debug().Str("protocol", d.CmdName).Str("command", req.Command.String()).Msg("scan skips protocol")
			continue
		}
		remoteFirst, remoteLast := scanRange(req.Remote, d.Needs&codec.NeedRemote != 0, d.RemoteMax)
		deviceFirst, deviceLast := scanRange(req.Device, d.Needs&codec.NeedDevice != 0, d.DeviceMax)
		c.log.Info().
			Str("protocol", d.Name).
			Msgf("scanning remotes 0x%X-0x%X, devices 0x%X-0x%X", remoteFirst, remoteLast, deviceFirst, deviceLast)

		for r := uint64(remoteFirst); r <= uint64(remoteLast); r++ {
			for dev := uint64(deviceFirst); dev <= uint64(deviceLast); dev++ {
				if err := ctx.Err(); err != nil {
					return sent, err
				}
				res, err := c.send(ctx, cd, Request{
					Protocol: d.CmdName,
					Remote:   uint32(r),
					Device:   uint32(dev),
					Command:  req.Command,
					ForceRaw: req.ForceRaw,
				})
				if err == nil {
					sent++
				}
				if visit != nil {
					visit(res, err)
				}
			}
		}
	}
	return sent, nil
}

func scanRange(fixed *uint32, needed bool, limit uint32) (uint32, uint32) {
	switch {
	case fixed != nil:
		return *fixed, *fixed
	case needed:
		return 0, limit
	default:
		return 0, 0
	}
}
