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

import "encoding/binary"

// Manufacturer identifies the vendor string CAPI reports for a
// controller. Only AVM is special-cased (spec §4.3, §9: headline
// transcoding).
type Manufacturer string

const (
	ManufacturerAVM     Manufacturer = "AVM"
	ManufacturerUnknown Manufacturer = ""
)

// Profile is the capability vector read once per controller at startup
// and never mutated afterwards (spec §3).
type Profile struct {
	Manufacturer    Manufacturer
	Version         uint32
	BChannelCount   uint16
	Transparent     bool
	FaxG3           bool
	FaxG3Extended   bool
	DTMF            bool
	SupplementaryServices bool

	// Raw is the undigested profile bytes, kept for diagnostic logging
	// only (SPEC_FULL §3 supplement), never parsed a second time.
	Raw []byte
}

// DecodeProfile parses the CAPI GET_PROFILE response body into a Profile.
// The CAPI profile layout (per CAPI 2.0 §6.8) is a sequence of
// little-endian fields; capisuite-go only decodes the subset spec §3
// names.
func DecodeProfile(manufacturer string, version uint32, raw []byte) Profile {
	p := Profile{
		Manufacturer: Manufacturer(manufacturer),
		Version:      version,
		Raw:          append([]byte(nil), raw...),
	}
	if len(raw) < 12 {
		return p
	}

	p.BChannelCount = binary.LittleEndian.Uint16(raw[2:4])
	globalOptions := binary.LittleEndian.Uint32(raw[4:8])
	b1Protocols := binary.LittleEndian.Uint32(raw[8:12])

	const (
		globalDTMF       = 1 << 3
		globalSuppServ   = 1 << 4
		b1Transparent    = 1 << 0
		b1FaxG3          = 1 << 4
		b1FaxG3Extended  = 1 << 5
	)

	p.DTMF = globalOptions&globalDTMF != 0
	p.SupplementaryServices = globalOptions&globalSuppServ != 0
	p.Transparent = b1Protocols&b1Transparent != 0
	p.FaxG3 = b1Protocols&b1FaxG3 != 0
	p.FaxG3Extended = b1Protocols&b1FaxG3Extended != 0

	return p
}

// SupportsService reports whether the profile's capability bits permit
// the named service ("voice", "fax_g3", "other").
func (p *Profile) SupportsService(service string) bool {
	switch service {
	case "voice":
		return p.Transparent
	case "fax_g3":
		return p.FaxG3 || p.FaxG3Extended
	default:
		return true
	}
}

// TranscodesHeadlines reports whether this controller's manufacturer
// requires the ISO-8859-1 -> CP437 fax headline transcoding workaround
// (spec §9 design note).
func (p *Profile) TranscodesHeadlines() bool {
	return p.Manufacturer == ManufacturerAVM
}
