package editor

import "time"

type TickerGen struct{}

func NewTickerGen() TickerGen {
	return TickerGen{}
}

func (TickerGen) Create(duration time.Duration) <-chan time.Time {
	return time.NewTicker(duration).C
}
