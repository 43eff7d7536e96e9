package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/caesium-cloud/cimon/internal/event"
)

// EventFilter narrows the server's event stream.
type EventFilter struct {
	Provider   string
	PipelineID string
	Types      []event.Type
}

func (f EventFilter) query() string {
	params := url.Values{}
	if f.Provider != "" {
		params.Set("provider", f.Provider)
	}
	if f.PipelineID != "" {
		params.Set("pipeline_id", f.PipelineID)
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		params.Set("types", strings.Join(types, ","))
	}
	return params.Encode()
}

// Events streams server-sent events until ctx is done or the server closes
// the connection, at which point the channel is closed.
func (c *Client) Events(ctx context.Context, filter EventFilter) (<-chan event.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve("/v1/events", filter.query()), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")

	// the stream outlives the request timeout
	stream := &http.Client{Transport: c.httpClient.Transport}
	resp, err := stream.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	ch := make(chan event.Event, 100)

	go func() {
		defer resp.Body.Close()
		defer close(ch)

		scanner := bufio.NewScanner(resp.Body)
		var (
			currentType event.Type
			currentData []byte
		)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				if len(currentData) > 0 {
					var evt event.Event
					if err := json.Unmarshal(currentData, &evt); err == nil {
						if evt.Type == "" {
							evt.Type = currentType
						}
						select {
						case ch <- evt:
						case <-ctx.Done():
							return
						}
					}
				}
				currentType = ""
				currentData = nil
				continue
			}

			if bytes.HasPrefix(line, []byte(":")) {
				continue
			}

			parts := bytes.SplitN(line, []byte(":"), 2)
			if len(parts) < 2 {
				continue
			}

			value := bytes.TrimPrefix(parts[1], []byte(" "))
			switch string(bytes.TrimSpace(parts[0])) {
			case "event":
				currentType = event.Type(value)
			case "data":
				currentData = append([]byte(nil), value...)
			}
		}
	}()

	return ch, nil
}
