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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsTransportContextIdempotent(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	tc := AsTransportContext(mock)
	require.NotNil(t, tc)

	// Wrapping a TransportContext returns it unchanged
	assert.Equal(t, tc, AsTransportContext(tc))
}

func TestSendCommandContextSuccess(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetResponse(cmdIDN, []byte{rspSuccess, 0x01, 0x02})

	resp, err := AsTransportContext(mock).SendCommandContext(context.Background(), cmdIDN, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{rspSuccess, 0x01, 0x02}, resp)
}

func TestSendCommandContextCancelledBeforeSend(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AsTransportContext(mock).SendCommandContext(ctx, cmdIDN, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, mock.GetCallCount(cmdIDN))
}

func TestSendCommandContextDeadlineMapsToTimeout(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetResponse(cmdIDN, []byte{rspSuccess})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := AsTransportContext(mock).SendCommandContext(ctx, cmdIDN, nil)
	require.NoError(t, err)

	timeout := mock.Timeout()
	assert.Positive(t, timeout)
	assert.LessOrEqual(t, timeout, 50*time.Millisecond)
}

func TestSendCommandContextCancelledWhileBlocked(t *testing.T) {
	t.Parallel()

	blocking := NewBlockingMockTransport()
	defer func() { _ = blocking.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := AsTransportContext(blocking).SendCommandContext(ctx, cmdIDN, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
