package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// payloads renders an Alert into the JSON body each webhook type expects.
var payloads = map[string]func(*Alert) interface{}{
	"slack": func(a *Alert) interface{} {
		return map[string]string{"text": fmt.Sprintf("%s %s (%s)", tag(a.Severity), a.Message, a.Key)}
	},
	"teams": func(a *Alert) interface{} {
		return map[string]interface{}{
			"@type":      "MessageCard",
			"@context":   "http://schema.org/extensions",
			"themeColor": colorFor(a.Severity),
			"summary":    a.Kind,
			"title":      "tvsegment: " + a.Kind,
			"text":       a.Message,
		}
	},
	"http": func(a *Alert) interface{} {
		return map[string]interface{}{"alert": a}
	},
}

// send delivers a to every webhook whose URL resolves. Failures are logged
// and never reach the prediction path.
func (e *Engine) send(a *Alert) {
	for _, wh := range e.webhooks {
		url := wh.URL()
		render, ok := payloads[wh.Type]
		if url == "" || !ok {
			continue
		}
		body, err := json.Marshal(render(a))
		if err == nil {
			err = e.post(url, body)
		}
		log := slog.With("type", wh.Type, "kind", a.Kind, "key", a.Key)
		if err != nil {
			log.Error("alerts: webhook delivery failed", "err", err)
			continue
		}
		log.Debug("alerts: webhook delivered")
	}
}

func (e *Engine) post(url string, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), e.client.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook answered %s", resp.Status)
	}
	return nil
}

func tag(severity string) string {
	switch severity {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	}
	return "[INFO]"
}

func colorFor(severity string) string {
	switch severity {
	case "critical":
		return "D32F2F"
	case "warning":
		return "F9A825"
	}
	return "1976D2"
}
