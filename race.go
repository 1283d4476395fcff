// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package wfq

// RaceEnabled is true when the race detector is active.
// This package's own concurrent tests and examples do not consult it:
// they are excluded under -race by a //go:build !race tag, because the
// race detector cannot see happens-before edges carried by atomix
// ordering alone.
const RaceEnabled = true
