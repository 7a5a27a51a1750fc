package session

import (
	"sync"
	"time"
)

// DefaultTips rotate while a request is in flight.
var DefaultTips = []string{
	"江湖風波惡，行事需三思。",
	"內力深厚者，招式威力更強。",
	"輕功了得，可避開不少麻煩。",
	"體力不足時，不妨先歇息片刻。",
	"與人為善，江湖路會寬一些。",
}

// tipRotator calls show with the next tip on every tick until stopped.
type tipRotator struct {
	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

// startTips shows the first tip at once and rotates the rest every interval.
// It returns nil when there is nothing to show.
func startTips(tips []string, interval time.Duration, show func(string)) *tipRotator {
	if show == nil || len(tips) == 0 || interval <= 0 {
		return nil
	}
	show(tips[0])

	r := &tipRotator{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for i := 1; ; i++ {
			select {
			case <-r.done:
				return
			case <-r.ticker.C:
				show(tips[i%len(tips)])
			}
		}
	}()
	return r
}

// stop halts the ticker and waits for the rotating goroutine to exit, so no
// tip is shown after stop returns. Safe on a nil rotator.
func (r *tipRotator) stop() {
	if r == nil {
		return
	}
	r.ticker.Stop()
	close(r.done)
	r.wg.Wait()
}
