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
	"errors"
	"fmt"
	"time"
)

// WaitForTag polls until a tag is detected or the context ends.
// This is a high-level convenience wrapper around DetectTagContext that
// treats ErrNoTagDetected as the normal polling outcome and gives up only
// after repeated genuine faults.
//
// Example usage:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	tag, err := device.WaitForTag(ctx)
//	if errors.Is(err, context.DeadlineExceeded) {
//	    fmt.Println("no tag presented")
//	}
func (d *Device) WaitForTag(ctx context.Context) (*DetectedTag, error) {
	const pollInterval = 100 * time.Millisecond
	errorCount := 0

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		detectedTag, err := d.attemptDetection(ctx, &errorCount)
		if err == nil && detectedTag != nil {
			return detectedTag, nil
		}
		if err != nil && !errors.Is(err, ErrNoTagDetected) {
			return nil, err
		}

		if pauseErr := d.pause(ctx, pollInterval); pauseErr != nil {
			return nil, pauseErr
		}
	}
}

func (d *Device) attemptDetection(ctx context.Context, errorCount *int) (*DetectedTag, error) {
	detectedTag, err := d.DetectTagContext(ctx)
	if err != nil {
		if errors.Is(err, ErrNoTagDetected) {
			if *errorCount == 0 {
				debugln("no tag detected, continuing to poll")
			}
			return nil, ErrNoTagDetected
		}
		return nil, d.handleDetectionError(errorCount, err)
	}
	return detectedTag, nil
}

func (*Device) handleDetectionError(errorCount *int, err error) error {
	const (
		maxErrors      = 10
		errorThreshold = 3
	)

	*errorCount++

	if *errorCount <= errorThreshold {
		debugf("tag detection error #%d: %v", *errorCount, err)
	}

	if *errorCount > maxErrors {
		return fmt.Errorf("too many detection errors (%d), last error: %w", *errorCount, err)
	}

	// Swallow and keep polling
	return ErrNoTagDetected
}

func (*Device) pause(ctx context.Context, interval time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(interval):
		return nil
	}
}
