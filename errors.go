// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wfq

import "errors"

// ErrNotEmpty is returned by [Queue.Close] when the handle registry is
// not empty (spec.md §6 destroy: "Requires plist empty").
//
// Unlike the hot-path contract violations below, a non-empty registry at
// shutdown is a recoverable precondition check — an application forgot
// an Unregister somewhere — so Close reports it rather than panicking.
var ErrNotEmpty = errors.New("wfq: registry not empty")

// Hot-path contract violations (spec.md §7: unregistered thread calling
// Put/Get, double Unregister) panic rather than returning an error,
// matching the teacher's treatment of capacity misuse and the source's
// "undefined by design" stance — see the panics in Queue.Unregister and
// the Option constructors.
