package tempprint

import "time"

// wait sleeps for d unless e is skipped first. The refresh rate is read once:
//
//	0    sleep the full duration, skips are ignored until the next wait
//	< 0  react to a skip immediately
//	> 0  look for a skip every refresh interval
//
// A skipped entry returns from every later wait at once.
func (p *Printer) wait(e *Entry, d time.Duration) {
	if d <= 0 || e.skipped() {
		return
	}
	rate := p.RefreshRate()

	timer := time.NewTimer(d)
	defer timer.Stop()

	switch {
	case rate == 0:
		<-timer.C
	case rate < 0:
		select {
		case <-timer.C:
		case <-e.stop:
		}
	default:
		ticker := time.NewTicker(rate)
		defer ticker.Stop()
		for {
			select {
			case <-timer.C:
				return
			case <-ticker.C:
				if e.skipped() {
					return
				}
			}
		}
	}
}
