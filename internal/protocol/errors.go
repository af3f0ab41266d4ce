package protocol

import "errors"

var (
	ErrUnsupportedCommand = errors.New("protocol: unsupported command")
	ErrBufferTooSmall     = errors.New("protocol: data buffer too small")
	ErrStoreUnavailable   = errors.New("protocol: counter store unavailable")
	ErrTimingUnsupported  = errors.New("protocol: timing unsupported")
	ErrInvalidAccuracy    = errors.New("protocol: invalid accuracy")
	ErrUnknownProtocol    = errors.New("protocol: unknown protocol")
	ErrUnknownCommand     = errors.New("protocol: unknown command")
	ErrFormatUnsupported  = errors.New("protocol: bit format not supported by transport")
)
