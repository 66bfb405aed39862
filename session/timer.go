package session

import "time"

// startTimer begins (or restarts) the per-pick countdown for the
// pickNumberInPack'th pick of the current pack: maxTimer seconds minus
// floor(maxTimer/15) per pick within the pack, per the Concurrency
// Model's "Timer" rule. A PickTimer of 0 disables the timer entirely.
func (s *Session) startTimer(pickNumberInPack int) {
	s.stopTimer()

	if s.Options.PickTimer <= 0 {
		s.broadcast("disableTimer", nil, "")
		return
	}

	duration := s.Options.PickTimer - (s.Options.PickTimer/15)*pickNumberInPack
	if duration < 1 {
		duration = 1
	}
	s.remaining = duration
	s.runTicker(duration)
	s.broadcast("timer", map[string]int{"countdown": duration}, "")
}

// stopTimer halts the currently running countdown goroutine, if any.
// Called on disconnect and on session shutdown (Design Notes'
// "session destruction cancels pending timers").
func (s *Session) stopTimer() {
	if s.timerStop != nil {
		close(s.timerStop)
		s.timerStop = nil
	}
	s.timerRunning = false
}

// resumeTimer restarts the countdown from wherever it was paused,
// rather than resetting to the full per-pick duration, on reconnect or
// replacement of every disconnected participant.
func (s *Session) resumeTimer() {
	if s.Options.PickTimer <= 0 || s.remaining <= 0 {
		return
	}
	s.runTicker(s.remaining)
}

func (s *Session) runTicker(initial int) {
	stop := make(chan struct{})
	s.timerStop = stop
	s.timerRunning = true

	go func(remaining int) {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				remaining--
				r := remaining
				s.Enqueue(func(sess *Session) {
					if sess.timerStop != stop {
						return // a newer timer superseded this one
					}
					sess.remaining = r
					sess.broadcast("timer", map[string]int{"countdown": r}, "")
					if r <= 0 {
						sess.timerRunning = false
						sess.timerStop = nil
					}
				})
				if remaining <= 0 {
					return
				}
			case <-stop:
				return
			}
		}
	}(initial)
}
