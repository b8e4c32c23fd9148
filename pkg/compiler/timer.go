// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"time"

	"k8s.io/utils/clock"
)

// longCompilationTimer wraps a single-shot clock.Timer delivering a
// long_timeout event for one worker. It is armed once on worker spawn and
// never re-armed on suspension/release: the callback answers "is this
// file slow?", not "has this file been around a long time?".
type longCompilationTimer struct {
	timer clock.Timer
}

// armLongCompilationTimer arms a timer that sends id on events after d. The
// mailbox that run creates has room for several events per file, so this
// send does not block in practice; a timeout that arrives after the worker
// has been reaped finds no running record and is ignored by the
// long_timeout handler.
func armLongCompilationTimer(clk clock.Clock, d time.Duration, id WorkerId, events chan<- event) *longCompilationTimer {
	t := clk.AfterFunc(d, func() {
		events <- evLongTimeout{workerID: id}
	})
	return &longCompilationTimer{timer: t}
}

// cancel stops the timer. It is safe to call multiple times.
func (t *longCompilationTimer) cancel() {
	if t == nil || t.timer == nil {
		return
	}
	t.timer.Stop()
}
