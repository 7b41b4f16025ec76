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

package capi

import (
	"encoding/binary"
	"fmt"
)

// Numbering plan byte values; the high nibble carries the type of number
// (spec §4.3).
const (
	PlanUnknown       byte = 0x00
	PlanInternational byte = 0x10
	PlanNational      byte = 0x20
)

// DecodePartyNumber splits a CAPI party-number structure (length byte,
// numbering-plan byte, [presentation byte for calling numbers only],
// digits) into the plan byte and raw digit bytes. Per spec §4.3, a
// calling number's digits start one byte later than a called number's.
func DecodePartyNumber(raw []byte, calling bool) (planByte byte, digits []byte, err error) {
	if len(raw) == 0 {
		return 0, nil, nil
	}
	length := int(raw[0])
	if length < 1 || length+1 > len(raw) {
		return 0, nil, fmt.Errorf("capi: party number length byte %d exceeds buffer of %d bytes", length, len(raw))
	}
	body := raw[1 : 1+length]
	if len(body) < 1 {
		return 0, nil, fmt.Errorf("capi: party number body empty")
	}
	planByte = body[0]

	digitsStart := 1
	if calling {
		digitsStart = 2
	}
	if len(body) < digitsStart {
		return planByte, nil, nil
	}
	digits = append([]byte(nil), body[digitsStart:]...)
	return planByte, digits, nil
}

// EncodePartyNumber assembles a CAPI party-number structure from a plan
// byte and digit bytes, mirroring DecodePartyNumber.
func EncodePartyNumber(planByte byte, digits []byte, calling bool) []byte {
	body := []byte{planByte}
	if calling {
		body = append(body, 0x00) // presentation/screening: presentation allowed, user-provided
	}
	body = append(body, digits...)

	out := make([]byte, 0, len(body)+1)
	out = append(out, byte(len(body)))
	out = append(out, body...)
	return out
}

// BProtocolConfig is the B1/B2/B3 protocol selection plus the up-to-three
// configuration blobs CONNECT_REQ, CONNECT_RESP, and
// SELECT_B_PROTOCOL_REQ all carry (spec §4.3).
type BProtocolConfig struct {
	B1Protocol uint16
	B2Protocol uint16
	B3Protocol uint16
	B1Config   []byte
	B2Config   []byte
	B3Config   []byte
}

// Encode assembles the CAPI B-protocol structure: three protocol numbers
// each followed by a length-prefixed configuration blob.
func (b *BProtocolConfig) Encode() []byte {
	out := make([]byte, 0, 6+len(b.B1Config)+len(b.B2Config)+len(b.B3Config)+3)
	var tmp [2]byte

	binary.LittleEndian.PutUint16(tmp[:], b.B1Protocol)
	out = append(out, tmp[:]...)
	out = append(out, byte(len(b.B1Config)))
	out = append(out, b.B1Config...)

	binary.LittleEndian.PutUint16(tmp[:], b.B2Protocol)
	out = append(out, tmp[:]...)
	out = append(out, byte(len(b.B2Config)))
	out = append(out, b.B2Config...)

	binary.LittleEndian.PutUint16(tmp[:], b.B3Protocol)
	out = append(out, tmp[:]...)
	out = append(out, byte(len(b.B3Config)))
	out = append(out, b.B3Config...)

	return out
}

// FaxNCPI is the decoded form of the fax-specific NCPI trailing field on
// CONNECT_B3_ACTIVE_IND and DISCONNECT_B3_IND (spec §4.3, GLOSSARY).
type FaxNCPI struct {
	BitRate   uint16
	HighRes   bool
	ColorJPEG bool // false means SFF
	Pages     uint16
	StationID string
}

// DecodeFaxNCPI parses the fax NCPI sub-structure. Per spec §4.3, it is
// only parsed when the NCPI is at least 9 bytes; shorter buffers return
// the zero value with no error (there is nothing to read yet, e.g. at
// CONNECT_B3_ACTIVE_IND time before the far end has sent fax parameters).
func DecodeFaxNCPI(raw []byte) (FaxNCPI, error) {
	var f FaxNCPI
	if len(raw) < 9 {
		return f, nil
	}

	f.BitRate = binary.LittleEndian.Uint16(raw[0:2])
	f.HighRes = raw[3]&0x01 != 0
	f.ColorJPEG = raw[4]&0x04 != 0
	f.Pages = binary.LittleEndian.Uint16(raw[7:9])

	if len(raw) > 9 {
		idLen := int(raw[9])
		start := 10
		end := start + idLen
		if end <= len(raw) {
			f.StationID = string(raw[start:end])
		}
	}
	return f, nil
}

// FaxB3Config builds the CONNECT_REQ/CONNECT_RESP/SELECT_B_PROTOCOL_REQ
// configuration blob for T.30 fax, per spec §4.3: a resolution bit, a
// color-capable acceptance bit, format bits, a length-prefixed station id
// (<=20 chars) and a length-prefixed headline (<=254 chars).
func FaxB3Config(highRes bool, stationID, headline string) ([]byte, error) {
	if len(stationID) > 20 {
		return nil, fmt.Errorf("capi: fax station id %q exceeds 20 characters", stationID)
	}
	if len(headline) > 254 {
		return nil, fmt.Errorf("capi: fax headline exceeds 254 characters")
	}

	var res byte
	if highRes {
		res = 0x01
	}
	const acceptColorJPEG = 0x04
	formatBits := byte(acceptColorJPEG)

	out := []byte{res, 0x01 /* color-capable acceptance bit set */, formatBits}
	out = append(out, byte(len(stationID)))
	out = append(out, stationID...)
	out = append(out, byte(len(headline)))
	out = append(out, headline...)
	return out, nil
}

// FacilityDTMFRequest builds the FACILITY_REQ parameter block used to
// enable/disable DTMF listening, per spec §4.3's default 40-tenths-of-ms
// tone/gap durations.
func FacilityDTMFRequest(enable bool, toneDurationTenthMs, gapDurationTenthMs uint16) []byte {
	var function uint16 = 2 // disable
	if enable {
		function = 1 // enable
	}
	out := make([]byte, 6)
	binary.LittleEndian.PutUint16(out[0:2], function)
	binary.LittleEndian.PutUint16(out[2:4], toneDurationTenthMs)
	binary.LittleEndian.PutUint16(out[4:6], gapDurationTenthMs)
	return out
}

// DecodeDTMFFacilityIndication extracts the digit substring from a
// FACILITY_IND carrying the DTMF selector.
func DecodeDTMFFacilityIndication(raw []byte) string {
	if len(raw) < 1 {
		return ""
	}
	n := int(raw[0])
	if n > len(raw)-1 {
		n = len(raw) - 1
	}
	return string(raw[1 : 1+n])
}
