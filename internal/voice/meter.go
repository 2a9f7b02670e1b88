package voice

import (
	"sync"
	"time"
)

// Meter drives the "is this participant speaking" indicator: it samples the
// analyser on a fixed frame interval and hands each level to onLevel. Stop
// releases the analyser; leaving one running leaks OS audio resources.
type Meter struct {
	analyser Analyser

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func StartMeter(provider MediaProvider, stream Stream, interval time.Duration, onLevel func(level int)) (*Meter, error) {
	analyser, err := provider.NewAnalyser(stream)
	if err != nil {
		return nil, err
	}

	m := &Meter{
		analyser: analyser,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				onLevel(clampLevel(analyser.Level()))
			}
		}
	}()

	return m, nil
}

// Stop ends the sampling loop and closes the analyser. Safe to call more
// than once; returns after the loop has exited.
func (m *Meter) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		<-m.done
		m.analyser.Close()
	})
}

func clampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > 255 {
		return 255
	}
	return level
}
