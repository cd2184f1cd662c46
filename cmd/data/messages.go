package main

import "github.com/rxtech-lab/argo-moex/pkg/marketdata"

// SeriesLoadedMsg carries the candles of the selected period.
// Warning is set when fewer trading days than requested were found.
type SeriesLoadedMsg struct {
	Series  *marketdata.TimeSeries
	Warning error
}

// LoadErrorMsg reports a failed request.
type LoadErrorMsg struct {
	Err error
}
