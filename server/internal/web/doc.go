// Package web serves the interactive form for tvsegment-server.
//
//	GET  /       — input form pre-filled with the configured defaults
//	POST /       — run the prediction and render the segment with its chart
//	GET  /chart  — go-echarts scatter of one point in scaled feature space
//
// The result page embeds /chart in an iframe so the chart page stays a plain
// go-echarts render.
package web
