// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build hwfallback

package hwfallback

import "testing"

func TestNullDeviceHandleImplementsDeviceHandle(t *testing.T) {
	var d DeviceHandle = NullDeviceHandle{}
	if d.Device() != nil {
		t.Fatal("expected nil Device() on the null handle")
	}
}
