package main

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const (
	statsviewAddr = "localhost:12600"
	statsviewURL  = "http://" + statsviewAddr + "/debug/statsview"
)

// launchStatsview serves runtime statistics in the background.
func launchStatsview(output io.Writer) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(statsviewAddr))
		mgr := statsview.New()
		mgr.Start()
	}()

	fmt.Fprintf(output, "stats server available at %s\n", statsviewURL)
}
