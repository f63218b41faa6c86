package usecase

import (
	"github.com/jaennil/guide_helper/backend/pyramid/internal/sentinel"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/tile"
)

// Origin says how the bytes of a Tile were obtained.
type Origin int

const (
	OriginCache Origin = iota
	OriginComputed
	OriginSentinel
	OriginFallback
)

func (o Origin) String() string {
	switch o {
	case OriginCache:
		return "cache"
	case OriginComputed:
		return "computed"
	case OriginSentinel:
		return "sentinel"
	case OriginFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Failure tags why a tile could not be produced from its inputs.
type Failure int

const (
	FailureNone Failure = iota
	// FailureMissingSource: no base raster exists. A valid sparse case.
	FailureMissingSource
	// FailureSourceRead: the base raster exists but could not be read.
	FailureSourceRead
	// FailureTransform: decode, resize or encode failed.
	FailureTransform
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureMissingSource:
		return "missing_source"
	case FailureSourceRead:
		return "source_read"
	case FailureTransform:
		return "transform"
	default:
		return "unknown"
	}
}

// persistent reports whether a tile degraded for this reason is still
// correct for its key and may be cached.
func (f Failure) persistent() bool {
	return f == FailureNone || f == FailureMissingSource
}

// Tile is the result of resolving one key. A Transient tile stands in for
// a result that may differ once a read or transform failure clears, either
// its own or one of its children's. Transient tiles are never cached.
type Tile struct {
	Key       tile.Key
	Data      []byte
	Origin    Origin
	Sentinel  string
	Failure   Failure
	Transient bool
}

// outcome is what an engine produced before the fallback decision.
// Exactly one of data, sentinel or failure is set. degraded marks a result
// built from transient children.
type outcome struct {
	data     []byte
	sentinel *sentinel.Sentinel
	failure  Failure
	stage    string
	err      error
	degraded bool
}

func produced(data []byte) outcome {
	return outcome{data: data}
}

func canonical(s *sentinel.Sentinel) outcome {
	return outcome{sentinel: s}
}

func failed(f Failure, stage string, err error) outcome {
	return outcome{failure: f, stage: stage, err: err}
}
