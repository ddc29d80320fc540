package gdbstub

import (
	"strings"

	semver "github.com/Masterminds/semver/v3"
)

// ModuleVersion is this module's own semantic version, reported by the
// qRcmd "version" built-in and advertised as the protocolVersion token
// in qSupported replies.
var ModuleVersion = semver.MustParse("1.0.0")

// FeatureBit is one entry of the Feature Bitset from spec.md §3.
type FeatureBit uint32

const (
	// FeatureTargetDescRead tracks whether target-description reads
	// (qXfer:features:read) were negotiated with the peer.
	FeatureTargetDescRead FeatureBit = 1 << iota
)

// FeatureSet is the Session's negotiated-options bitset.
type FeatureSet struct {
	bits FeatureBit
}

func (f *FeatureSet) Has(bit FeatureBit) bool { return f.bits&bit != 0 }
func (f *FeatureSet) Set(bit FeatureBit)      { f.bits |= bit }
func (f *FeatureSet) Clear(bit FeatureBit)    { f.bits &^= bit }

// featureToken is one `;`-separated entry of a qSupported packet:
// `name+`, `name-`, or `name=value`.
type featureToken struct {
	name  string
	kind  byte // '+', '-', or '='
	value string
}

func parseFeatureTokens(body string) []featureToken {
	var out []featureToken
	for _, raw := range strings.Split(body, ";") {
		if raw == "" {
			continue
		}
		if eq := strings.IndexByte(raw, '='); eq >= 0 {
			out = append(out, featureToken{name: raw[:eq], kind: '=', value: raw[eq+1:]})
			continue
		}
		last := raw[len(raw)-1]
		if last == '+' || last == '-' {
			out = append(out, featureToken{name: raw[:len(raw)-1], kind: last})
			continue
		}
		out = append(out, featureToken{name: raw, kind: '+'})
	}
	return out
}

// archAdvertised reports whether the comma-separated xmlRegisters value
// the peer advertised includes arch.
func archAdvertised(value string, arch Architecture) bool {
	want := archString(arch)
	for _, v := range strings.Split(value, ",") {
		if v == want {
			return true
		}
	}
	return false
}

// negotiatedVersion returns the peer's advertised protocolVersion, or
// "unknown" if it never sent one.
func (s *Session) negotiatedVersion() string {
	if s.peerProtocolVersion == "" {
		return "unknown"
	}
	return s.peerProtocolVersion
}

// handleQSupported implements spec.md §4.2's qSupported: parses the
// peer's feature tokens, updates the Feature Bitset, checks the peer's
// advertised protocolVersion (ADDED) against the Session's accepted
// range, and builds the server's own feature-advertisement reply.
func (s *Session) handleQSupported(args string) []byte {
	archMatched := true // spec.md scenario 1: no xmlRegisters token at all still advertises qXfer:features:read+
	for _, tok := range parseFeatureTokens(args) {
		switch tok.name {
		case "xmlRegisters":
			archMatched = tok.kind == '=' && archAdvertised(tok.value, s.target.Architecture())
		case "protocolVersion":
			if tok.kind == '=' {
				s.peerProtocolVersion = tok.value
				if v, err := semver.NewVersion(tok.value); err == nil && s.versionConstraint != nil {
					if !s.versionConstraint.Check(v) {
						s.logger.WithField("peerVersion", tok.value).Warn("peer protocolVersion outside accepted range")
					}
				}
			}
		}
	}

	if archMatched {
		s.features.Set(FeatureTargetDescRead)
	} else {
		s.features.Clear(FeatureTargetDescRead)
	}

	var reply []string
	if archMatched {
		reply = append(reply, "qXfer:features:read+")
	}
	reply = append(reply, "protocolVersion="+ModuleVersion.String())
	return []byte(strings.Join(reply, ";"))
}
