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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartyNumberRoundTripCalled(t *testing.T) {
	raw := EncodePartyNumber(PlanInternational, []byte("4930123456"), false)
	plan, digits, err := DecodePartyNumber(raw, false)
	require.NoError(t, err)
	assert.Equal(t, PlanInternational, plan)
	assert.Equal(t, "4930123456", string(digits))
}

func TestPartyNumberRoundTripCalling(t *testing.T) {
	raw := EncodePartyNumber(PlanNational, []byte("111"), true)
	plan, digits, err := DecodePartyNumber(raw, true)
	require.NoError(t, err)
	assert.Equal(t, PlanNational, plan)
	assert.Equal(t, "111", string(digits))
}

func TestDecodePartyNumberEmpty(t *testing.T) {
	plan, digits, err := DecodePartyNumber(nil, false)
	require.NoError(t, err)
	assert.Zero(t, plan)
	assert.Nil(t, digits)
}

func TestDecodePartyNumberTruncated(t *testing.T) {
	_, _, err := DecodePartyNumber([]byte{5, 0x02}, false)
	assert.Error(t, err)
}

func TestBProtocolConfigEncode(t *testing.T) {
	cfg := BProtocolConfig{
		B1Protocol: 1,
		B2Protocol: 1,
		B3Protocol: 0,
		B3Config:   []byte{0xAA},
	}
	out := cfg.Encode()
	// 2 bytes protocol + 1 length byte + payload, three times.
	assert.Equal(t, 9+1, len(out))
	assert.Equal(t, byte(1), out[0])
	assert.Equal(t, byte(0), out[2])
}

func TestDecodeFaxNCPITooShort(t *testing.T) {
	f, err := DecodeFaxNCPI([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Zero(t, f)
}

func TestDecodeFaxNCPI(t *testing.T) {
	raw := []byte{
		0x58, 0x02, // bit rate 600 LE
		0x00,       // unused
		0x01,       // high-res bit set
		0x04,       // color jpeg bit set
		0x00, 0x00, // unused
		0x02, 0x00, // pages = 2
		0x04, 'a', 'b', 'c', 'd',
	}
	f, err := DecodeFaxNCPI(raw)
	require.NoError(t, err)
	assert.EqualValues(t, 600, f.BitRate)
	assert.True(t, f.HighRes)
	assert.True(t, f.ColorJPEG)
	assert.EqualValues(t, 2, f.Pages)
	assert.Equal(t, "abcd", f.StationID)
}

func TestFaxB3ConfigLimits(t *testing.T) {
	_, err := FaxB3Config(false, "012345678901234567890", "")
	assert.Error(t, err)

	long := make([]byte, 255)
	for i := range long {
		long[i] = 'x'
	}
	_, err = FaxB3Config(false, "", string(long))
	assert.Error(t, err)

	cfg, err := FaxB3Config(true, "0123", "hdr")
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), cfg[0])
	assert.Equal(t, byte(4), cfg[3])
	assert.Equal(t, "0123", string(cfg[4:8]))
	assert.Equal(t, byte(3), cfg[8])
	assert.Equal(t, "hdr", string(cfg[9:12]))
}

func TestFacilityDTMFRequestRoundTrip(t *testing.T) {
	req := FacilityDTMFRequest(true, 40, 40)
	assert.Equal(t, []byte{1, 0, 40, 0, 40, 0}, req)

	req = FacilityDTMFRequest(false, 40, 40)
	assert.Equal(t, uint16(2), uint16(req[0])|uint16(req[1])<<8)
}

func TestDecodeDTMFFacilityIndication(t *testing.T) {
	raw := append([]byte{3}, []byte("123")...)
	assert.Equal(t, "123", DecodeDTMFFacilityIndication(raw))
	assert.Equal(t, "", DecodeDTMFFacilityIndication(nil))
}
