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
	"fmt"
)

// transceive performs one RF exchange through the send-receive command.
// The framing-mode flag byte is appended as the final byte of the payload.
// Returns the chip's result code and the RF response payload.
func (d *Device) transceive(ctx context.Context, rfData []byte, flags byte) (byte, []byte, error) {
	if err := ValidateRFData(rfData); err != nil {
		return 0, nil, err
	}

	payload := make([]byte, 0, len(rfData)+1)
	payload = append(payload, rfData...)
	payload = append(payload, flags)

	if err := d.transport.SetTimeout(d.config.ExchangeTimeout); err != nil {
		return 0, nil, fmt.Errorf("failed to set exchange timeout: %w", err)
	}

	resp, err := AsTransportContext(d.transport).SendCommandContext(ctx, cmdSendRecv, payload)
	if err != nil {
		return 0, nil, err
	}
	if len(resp) == 0 {
		return 0, nil, NewInvalidResponseError("transceive", "")
	}
	return resp[0], resp[1:], nil
}

// SendRaw transmits arbitrary RF data to a selected tag using standard
// framing with trailing CRC and returns the tag's response. Callers use this
// for tag commands beyond the discovery sequence, such as type-2 block reads.
func (d *Device) SendRaw(data []byte) ([]byte, error) {
	return d.SendRawContext(context.Background(), data)
}

// SendRawContext is SendRaw with context support
func (d *Device) SendRawContext(ctx context.Context, data []byte) ([]byte, error) {
	if !d.initialized {
		return nil, ErrDeviceNotInitialized
	}

	code, payload, err := d.transceive(ctx, data, flagStandardCRC)
	if err != nil {
		return nil, err
	}
	if code != rspData {
		return nil, fmt.Errorf("%w: tag exchange result code 0x%02X", ErrCommunicationFailed, code)
	}
	return payload, nil
}
