// Copyright 2026 The Capisuite Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package connection

import "github.com/larsimmisch/capisuite/internal/capi"

// FaxInfo is the fax metadata record spec §3 attaches to a Connection:
// "{bit-rate, high-res flag, format (SFF black-and-white / color JPEG),
// page count, station id}".
type FaxInfo struct {
	BitRate   uint16
	HighRes   bool
	ColorJPEG bool
	Pages     uint16
	StationID string
}

func faxInfoFromNCPI(n capi.FaxNCPI) FaxInfo {
	return FaxInfo{
		BitRate:   n.BitRate,
		HighRes:   n.HighRes,
		ColorJPEG: n.ColorJPEG,
		Pages:     n.Pages,
		StationID: n.StationID,
	}
}

// BuildBProtocol assembles the B1/B2/B3 protocol selection for the given
// service tag against profile, the controller's capability vector, per
// spec §4.3: "fax_g3" requires fax or fax_extended capability and
// chooses T.30 or T.30-extended depending on which the controller
// supports (B3Protocol 4 plain, 5 extended); "voice"/"other" require the
// controller's transparent capability. Either missing capability is an
// ExternalError (spec §7): the caller asked for a service this
// controller cannot provide.
//
// transcodeHeadline is applied to headline before encoding, and is the
// AVM ISO-8859-1 -> CP437 workaround hook (spec §9); callers pass the
// identity function when the controller's profile does not require it.
func BuildBProtocol(service string, profile capi.Profile, highRes bool, stationID, headline string, transcodeHeadline func(string) string) (*capi.BProtocolConfig, error) {
	switch service {
	case "fax_g3":
		if !profile.FaxG3 && !profile.FaxG3Extended {
			return nil, &ExternalError{Reason: "controller lacks fax_g3 capability"}
		}
		if transcodeHeadline != nil {
			headline = transcodeHeadline(headline)
		}
		b3, err := capi.FaxB3Config(highRes, stationID, headline)
		if err != nil {
			return nil, err
		}
		b3Protocol := uint16(4) // T.30 fax group 3
		if profile.FaxG3Extended {
			b3Protocol = 5 // T.30 fax group 3 extended
		}
		return &capi.BProtocolConfig{
			B1Protocol: 4,
			B2Protocol: 4,
			B3Protocol: b3Protocol,
			B3Config:   b3,
		}, nil
	default:
		if !profile.Transparent {
			return nil, &ExternalError{Reason: "controller lacks transparent capability"}
		}
		return &capi.BProtocolConfig{
			B1Protocol: 1, // transparent
			B2Protocol: 1,
			B3Protocol: 1,
		}, nil
	}
}

// TranscodeISO88591ToCP437 rewrites a headline from ISO-8859-1 to CP437,
// the workaround AVM controllers require for fax headline bytes (spec §9
// design note, SPEC_FULL §4.3). Only the Latin-1 code points that differ
// between the two encodings in the printable range need remapping; bytes
// below 0x80 are ASCII in both and pass through unchanged.
func TranscodeISO88591ToCP437(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r < 0x80 {
			out = append(out, byte(r))
			continue
		}
		if cp, ok := iso88591ToCP437[r]; ok {
			out = append(out, cp)
			continue
		}
		out = append(out, '?')
	}
	return string(out)
}

// iso88591ToCP437 maps the Latin-1 code points capisuite-go's fax
// headlines actually use (accented letters and the degree/currency signs
// common in German station headers) to their CP437 byte values.
var iso88591ToCP437 = map[rune]byte{
	0x00C4: 0x8E, // Ä
	0x00D6: 0x99, // Ö
	0x00DC: 0x9A, // Ü
	0x00E4: 0x84, // ä
	0x00F6: 0x94, // ö
	0x00FC: 0x81, // ü
	0x00DF: 0xE1, // ß
	0x00B0: 0xF8, // °
}
