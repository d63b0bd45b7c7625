// go-cr95hf
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-cr95hf.
//
// go-cr95hf is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-cr95hf is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-cr95hf; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package cr95hf

import (
	"context"
	"time"
)

// DetectTag performs one ISO14443-A discovery attempt: wake-up request,
// two-level anticollision and selection, UID assembly. Absence at any step
// returns ErrNoTagDetected; transport faults during discovery are downgraded
// to the same outcome since a silent tag is the expected common case.
//
// Attempts are independent: nothing survives a failed attempt except the
// last observed ATQA. The caller owns the polling cadence.
func (d *Device) DetectTag() (*DetectedTag, error) {
	return d.DetectTagContext(context.Background())
}

// DetectTagContext performs one discovery attempt with context support
func (d *Device) DetectTagContext(ctx context.Context) (*DetectedTag, error) {
	if !d.initialized {
		return nil, ErrDeviceNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// WUPA also addresses halted tags; fall back to REQA once
	atqa, ok := d.requestType(ctx, iso14443aWUPA)
	if !ok {
		atqa, ok = d.requestType(ctx, iso14443aREQA)
	}
	if !ok {
		return nil, ErrNoTagDetected
	}
	d.lastATQA = atqa

	cl1, ok := d.anticollision(ctx, iso14443aSelCL1)
	if !ok {
		return nil, ErrNoTagDetected
	}

	sak, ok := d.selectCascade(ctx, iso14443aSelCL1, cl1)
	if !ok {
		return nil, ErrNoTagDetected
	}

	var uid []byte
	if cl1[0] != iso14443aCascadeTag {
		// Single cascade: the 4 anticollision bytes are the whole UID
		uid = append(uid, cl1[:4]...)
		return d.newDetectedTag(uid, sak), nil
	}

	// Cascade tag seen at CL1 byte 0: 7-byte UID, bytes 1-3 are the prefix.
	// A CL2 failure discards the prefix entirely, never a truncated UID.
	prefix := cl1[1:4]

	cl2, ok := d.anticollision(ctx, iso14443aSelCL2)
	if !ok {
		return nil, ErrNoTagDetected
	}

	sak, ok = d.selectCascade(ctx, iso14443aSelCL2, cl2)
	if !ok {
		return nil, ErrNoTagDetected
	}

	uid = append(uid, prefix...)
	uid = append(uid, cl2[:4]...)
	return d.newDetectedTag(uid, sak), nil
}

// requestType issues a REQA or WUPA short frame and returns the ATQA
func (d *Device) requestType(ctx context.Context, cmd byte) ([2]byte, bool) {
	code, data, err := d.transceive(ctx, []byte{cmd}, flagShortFrame)
	if err != nil {
		debugf("request 0x%02X: %v", cmd, err)
		return [2]byte{}, false
	}
	if code != rspData || len(data) < 2 {
		return [2]byte{}, false
	}
	return [2]byte{data[0], data[1]}, true
}

// anticollision queries one cascade level. A valid result is the 5-byte
// block of 4 UID bytes plus BCC, echoed back verbatim at selection; the
// check byte is not validated host-side, the chip's selection response is
// the authority.
func (d *Device) anticollision(ctx context.Context, level byte) ([]byte, bool) {
	code, data, err := d.transceive(ctx, []byte{level, iso14443aNVBAnti}, flagStandard)
	if err != nil {
		debugf("anticollision 0x%02X: %v", level, err)
		return nil, false
	}
	if code != rspData || len(data) < 5 {
		return nil, false
	}
	return data[:5], true
}

// selectCascade selects a tag at one cascade level and returns its SAK
func (d *Device) selectCascade(ctx context.Context, level byte, uidBCC []byte) (byte, bool) {
	rfData := make([]byte, 0, 2+len(uidBCC))
	rfData = append(rfData, level, iso14443aNVBSelect)
	rfData = append(rfData, uidBCC...)

	code, data, err := d.transceive(ctx, rfData, flagStandardCRC)
	if err != nil {
		debugf("select 0x%02X: %v", level, err)
		return 0, false
	}
	if code != rspData || len(data) < 1 {
		return 0, false
	}
	return data[0], true
}

// newDetectedTag builds the discovery result for a resolved UID and SAK
func (d *Device) newDetectedTag(uid []byte, sak byte) *DetectedTag {
	tag := &DetectedTag{
		UID:        uidString(uid),
		UIDBytes:   uid,
		SAK:        sak,
		ATQA:       d.lastATQA,
		Type:       tagTypeFromSAK(sak),
		DetectedAt: time.Now(),
	}
	debugf("tag detected: UID=%s SAK=0x%02X type=%s", tag.UID, sak, tag.Type)
	return tag
}
